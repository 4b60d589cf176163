package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botforge-ai/botforge/internal/api/handlers"
	"github.com/botforge-ai/botforge/internal/config"
	"github.com/botforge-ai/botforge/internal/database"
	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/jobs"
	"github.com/botforge-ai/botforge/internal/llm"
	"github.com/botforge-ai/botforge/internal/repository"
	"github.com/botforge-ai/botforge/internal/server"
	"github.com/botforge-ai/botforge/internal/service"
	"github.com/botforge-ai/botforge/internal/storage"
	"github.com/botforge-ai/botforge/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the botforge API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if shutdownTelemetry := initTelemetry(cfg); shutdownTelemetry != nil {
		defer shutdownTelemetry()
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	kbRepo := repository.NewKnowledgeBaseRepository(pool)
	chatbotRepo := repository.NewChatbotRepository(pool)
	tenantRepo := repository.NewTenantRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if cfg.InitTenantName != "" {
		if err := bootstrapInitialTenant(ctx, cfg, tenantRepo, apiKeyRepo); err != nil {
			return fmt.Errorf("failed to bootstrap initial tenant: %w", err)
		}
	}

	var storageClient service.StorageClientInterface
	var objectStore service.ObjectRemover
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		storageClient = &S3StorageAdapter{client: s3Client}
		objectStore = s3Client
	}

	kbSvc := service.NewKnowledgeBaseService(kbRepo, chatbotRepo, txRunner)
	if objectStore != nil {
		kbSvc.WithObjectStore(objectStore)
	}
	crawlSvc := service.NewCrawlService(kbRepo, chatbotRepo)

	var crawlWorker *jobs.Worker
	if cfg.CrawlInterval > 0 {
		crawlWorker = jobs.NewWorker(jobs.NewCrawlWorker(jobs.NewURLFetcher(0), crawlSvc), cfg.CrawlInterval)
		go crawlWorker.Start(ctx)
		log.Printf("crawl worker polling every %v", cfg.CrawlInterval)
	}

	promptSvc := service.NewPromptService(kbRepo)
	authSvc := service.NewAuthService(tenantRepo, apiKeyRepo, &service.DefaultUUIDGenerator{})

	kbHandler := handlers.NewKnowledgeBaseHandler(kbSvc)
	crawlHandler := handlers.NewCrawlHandler(crawlSvc)
	authHandler := handlers.NewAuthHandler(authSvc)
	chatbotHandler := handlers.NewChatbotHandler(chatbotRepo)

	var fileHandler *handlers.FileHandler
	if storageClient != nil {
		fileHandler = handlers.NewFileHandler(service.NewFileService(kbRepo, chatbotRepo, storageClient))
	} else {
		fileHandler = handlers.NewFileHandler(&NoOpFileService{})
	}

	var chatHandler *handlers.ChatHandler
	if cfg.HasOpenAI() {
		model := cfg.ChatModel
		if model == "" {
			model = llm.DefaultChatModel
		}
		chatSvc := service.NewChatService(chatbotRepo, promptSvc, llm.NewClient(cfg.OpenAIAPIKey), model)
		chatHandler = handlers.NewChatHandler(chatSvc, promptSvc, chatbotRepo)
	} else {
		chatHandler = handlers.NewChatHandler(&NoOpChatService{}, promptSvc, chatbotRepo)
	}

	routerCfg := server.RouterConfig{
		AuthValidator:        authSvc,
		KnowledgeBaseHandler: kbHandler,
		CrawlHandler:         crawlHandler,
		FileHandler:          fileHandler,
		ChatbotHandler:       chatbotHandler,
		ChatHandler:          chatHandler,
		AuthHandler:          authHandler,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if crawlWorker != nil {
		crawlWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// initTelemetry enables Sentry tracing when SENTRY_DSN is set. Returns a
// flush func, or nil when tracing stays off.
func initTelemetry(cfg *config.Config) func() {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return nil
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	// 10% sampling in production, everything in development
	sampleRate := 0.1
	if environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              dsn,
		Environment:      environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return nil
	}
	return shutdown
}

type S3StorageAdapter struct {
	client *storage.S3Client
}

func (a *S3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *S3StorageAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *S3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

type NoOpFileService struct{}

func (s *NoOpFileService) InitUpload(ctx context.Context, input service.InitFileUploadInput) (*service.InitFileUploadResult, error) {
	return nil, fmt.Errorf("file service not configured: S3_ENDPOINT required")
}

func (s *NoOpFileService) CompleteUpload(ctx context.Context, tenantID, sourceID string) (*domain.KnowledgeSource, error) {
	return nil, fmt.Errorf("file service not configured: S3_ENDPOINT required")
}

func (s *NoOpFileService) GetDownloadURL(ctx context.Context, tenantID, sourceID string) (string, error) {
	return "", fmt.Errorf("file service not configured: S3_ENDPOINT required")
}

type NoOpChatService struct{}

func (s *NoOpChatService) Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error) {
	return nil, fmt.Errorf("chat service not configured: OPENAI_API_KEY required")
}

func bootstrapInitialTenant(ctx context.Context, cfg *config.Config, tenantRepo *repository.TenantRepository, apiKeyRepo *repository.APIKeyRepository) error {
	tenant, err := tenantRepo.GetByName(ctx, cfg.InitTenantName)
	if err != nil && !errors.Is(err, domain.ErrTenantNotFound) {
		return fmt.Errorf("failed to check existing tenant: %w", err)
	}

	authSvc := service.NewAuthService(tenantRepo, apiKeyRepo, &service.DefaultUUIDGenerator{})

	if tenant == nil {
		tenant, err = authSvc.CreateTenant(ctx, cfg.InitTenantName)
		if err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		log.Printf("bootstrap: created tenant '%s' (id: %s)", tenant.Name, tenant.ID)
	} else {
		log.Printf("bootstrap: tenant '%s' already exists (id: %s)", tenant.Name, tenant.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid BOTFORGE_INIT_API_KEY format (expected 'bfk_<64 hex chars>')")
		}

		existingKey, err := authSvc.GetAPIKeyByHash(ctx, cfg.InitAPIKey)
		if err == nil && existingKey != nil {
			log.Printf("bootstrap: API key already exists (id: %s)", existingKey.ID)
			return nil
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, tenant.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate drives a database/sql connection, not the pgx pool
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if errors.Is(err, migrate.ErrNilVersion) {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
