//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/pagination"
	"github.com/botforge-ai/botforge/internal/service"
	"github.com/botforge-ai/botforge/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTenantChatbot(ctx context.Context, t *testing.T, tenantRepo *TenantRepository, chatbotRepo *ChatbotRepository) (*domain.Tenant, *domain.Chatbot) {
	tenant := &domain.Tenant{
		ID:        uuid.NewString(),
		Name:      "Test Tenant",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, tenantRepo.Create(ctx, tenant))

	bot := &domain.Chatbot{
		ID:           uuid.NewString(),
		TenantID:     tenant.ID,
		Name:         "Test Chatbot",
		Instructions: "You are a helpful assistant.",
		Model:        "gpt-4o-mini",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, chatbotRepo.Create(ctx, bot))

	return tenant, bot
}

func newTextSource(chatbotID, name string, createdAt time.Time) *domain.KnowledgeSource {
	return &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: chatbotID,
		Name:      name,
		Type:      domain.SourceTypeText,
		Status:    domain.SourceStatusActive,
		Content:   "Some reference text.",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestKnowledgeBaseRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	src := newTextSource(bot.ID, "Shipping policy", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, kbRepo.CreateSource(ctx, src))

	got, err := kbRepo.GetSourceByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, src.ID, got.ID)
	assert.Equal(t, bot.ID, got.ChatbotID)
	assert.Equal(t, "Shipping policy", got.Name)
	assert.Equal(t, domain.SourceTypeText, got.Type)
	assert.Equal(t, domain.SourceStatusActive, got.Status)
	assert.Equal(t, "Some reference text.", got.Content)
	assert.Empty(t, got.URLs)
	assert.Empty(t, got.FAQs)
}

func TestKnowledgeBaseRepository_EmptyStringsStoredAsNull(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	src := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Pending upload",
		Type:      domain.SourceTypeFile,
		Status:    domain.SourceStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, kbRepo.CreateSource(ctx, src))

	var content, filePath *string
	err := pool.QueryRow(ctx,
		`SELECT content, file_path FROM knowledge_sources WHERE id = $1`, src.ID,
	).Scan(&content, &filePath)
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.Nil(t, filePath)

	got, err := kbRepo.GetSourceByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Content)
	assert.Equal(t, "", got.FilePath)
}

func TestKnowledgeBaseRepository_GetSourceByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	kbRepo := NewKnowledgeBaseRepository(pool)

	_, err := kbRepo.GetSourceByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrKnowledgeSourceNotFound)
}

func TestKnowledgeBaseRepository_ChildHydration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	website := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Docs site",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, kbRepo.CreateSource(ctx, website))

	// Inserted with positions out of row order; reads must come back sorted
	// by position.
	urls := []domain.KnowledgeBaseURL{
		{ID: uuid.NewString(), URL: "https://example.com/b", Status: domain.CrawlStatusPending, Position: 1, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), URL: "https://example.com/a", Status: domain.CrawlStatusPending, Position: 0, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, kbRepo.InsertURLs(ctx, website.ID, urls))

	faqSource := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Support FAQ",
		Type:      domain.SourceTypeFAQ,
		Status:    domain.SourceStatusActive,
		CreatedAt: now.Add(time.Millisecond),
		UpdatedAt: now.Add(time.Millisecond),
	}
	require.NoError(t, kbRepo.CreateSource(ctx, faqSource))

	faqs := []domain.KnowledgeBaseFAQ{
		{ID: uuid.NewString(), Question: "How do I reset my password?", Answer: "Use the reset link.", Position: 0, CreatedAt: now},
		{ID: uuid.NewString(), Question: "Do you ship abroad?", Answer: "Yes, worldwide.", Position: 1, CreatedAt: now},
	}
	require.NoError(t, kbRepo.InsertFAQs(ctx, faqSource.ID, faqs))

	sources, err := kbRepo.ListByChatbot(ctx, bot.ID)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	gotWebsite, gotFAQ := sources[0], sources[1]
	require.Len(t, gotWebsite.URLs, 2)
	assert.Equal(t, "https://example.com/a", gotWebsite.URLs[0].URL)
	assert.Equal(t, "https://example.com/b", gotWebsite.URLs[1].URL)
	assert.Equal(t, website.ID, gotWebsite.URLs[0].KnowledgeBaseID)
	assert.Empty(t, gotWebsite.FAQs)

	require.Len(t, gotFAQ.FAQs, 2)
	assert.Equal(t, "How do I reset my password?", gotFAQ.FAQs[0].Question)
	assert.Equal(t, "Do you ship abroad?", gotFAQ.FAQs[1].Question)
	assert.Empty(t, gotFAQ.URLs)
}

func TestKnowledgeBaseRepository_ListByChatbot_CreationOrder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	names := []string{"first", "second", "third"}
	for i, name := range names {
		src := newTextSource(bot.ID, name, base.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, kbRepo.CreateSource(ctx, src))
	}

	sources, err := kbRepo.ListByChatbot(ctx, bot.ID)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	for i, name := range names {
		assert.Equal(t, name, sources[i].Name)
	}

	other, err := kbRepo.ListByChatbot(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestKnowledgeBaseRepository_ListByChatbotWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		src := newTextSource(bot.ID, "source", base.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, kbRepo.CreateSource(ctx, src))
	}

	seen := make(map[string]bool)
	var cursor *pagination.Cursor
	var pages []*service.SourcePageResult
	for {
		page, err := kbRepo.ListByChatbotWithCursor(ctx, bot.ID, cursor, 2)
		require.NoError(t, err)
		pages = append(pages, page)
		for _, s := range page.Items {
			assert.False(t, seen[s.ID], "source %s returned twice", s.ID)
			seen[s.ID] = true
		}
		if !page.HasMore {
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor, err = pagination.DecodeCursor(page.NextCursor)
		require.NoError(t, err)
	}

	require.Len(t, pages, 3)
	assert.Len(t, pages[0].Items, 2)
	assert.Len(t, pages[1].Items, 2)
	assert.Len(t, pages[2].Items, 1)
	assert.False(t, pages[2].HasMore)
	assert.Empty(t, pages[2].NextCursor)
	assert.Len(t, seen, 5)
}

func TestKnowledgeBaseRepository_UpdateSource(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	src := newTextSource(bot.ID, "Before", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, kbRepo.CreateSource(ctx, src))

	src.Name = "After"
	src.Status = domain.SourceStatusInactive
	src.Content = "Updated text."
	require.NoError(t, kbRepo.UpdateSource(ctx, src))
	assert.True(t, src.UpdatedAt.After(src.CreatedAt))

	got, err := kbRepo.GetSourceByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, domain.SourceStatusInactive, got.Status)
	assert.Equal(t, "Updated text.", got.Content)
}

func TestKnowledgeBaseRepository_UpdateSource_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	kbRepo := NewKnowledgeBaseRepository(pool)

	ghost := newTextSource(uuid.NewString(), "Ghost", time.Now().UTC())
	err := kbRepo.UpdateSource(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrKnowledgeSourceNotFound)
}

func TestKnowledgeBaseRepository_DeleteSource(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	src := newTextSource(bot.ID, "Doomed", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, kbRepo.CreateSource(ctx, src))

	require.NoError(t, kbRepo.DeleteSource(ctx, src.ID))

	_, err := kbRepo.GetSourceByID(ctx, src.ID)
	assert.ErrorIs(t, err, domain.ErrKnowledgeSourceNotFound)

	err = kbRepo.DeleteSource(ctx, src.ID)
	assert.ErrorIs(t, err, domain.ErrKnowledgeSourceNotFound)
}

func TestKnowledgeBaseRepository_ReplaceChildren(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	website := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Docs site",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, kbRepo.CreateSource(ctx, website))

	old := []domain.KnowledgeBaseURL{
		{ID: uuid.NewString(), URL: "https://example.com/old", Status: domain.CrawlStatusCrawled, Position: 0, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, kbRepo.InsertURLs(ctx, website.ID, old))

	require.NoError(t, kbRepo.DeleteURLsBySource(ctx, website.ID))
	fresh := []domain.KnowledgeBaseURL{
		{ID: uuid.NewString(), URL: "https://example.com/new", Status: domain.CrawlStatusPending, Position: 0, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), URL: "https://example.com/new2", Status: domain.CrawlStatusPending, Position: 1, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, kbRepo.InsertURLs(ctx, website.ID, fresh))

	urls, err := kbRepo.ListURLsBySource(ctx, website.ID)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://example.com/new", urls[0].URL)
	assert.Equal(t, "https://example.com/new2", urls[1].URL)

	_, err = kbRepo.GetURLByID(ctx, old[0].ID)
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
}

func TestKnowledgeBaseRepository_UpdateURLStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	website := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Docs site",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, kbRepo.CreateSource(ctx, website))

	urls := []domain.KnowledgeBaseURL{
		{ID: uuid.NewString(), URL: "https://example.com/page", Status: domain.CrawlStatusPending, Position: 0, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, kbRepo.InsertURLs(ctx, website.ID, urls))

	u, err := kbRepo.GetURLByID(ctx, urls[0].ID)
	require.NoError(t, err)

	crawledAt := time.Now().UTC().Truncate(time.Microsecond)
	u.Status = domain.CrawlStatusCrawled
	u.LastCrawled = &crawledAt
	require.NoError(t, kbRepo.UpdateURLStatus(ctx, u))
	assert.False(t, u.UpdatedAt.Before(now))

	got, err := kbRepo.GetURLByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CrawlStatusCrawled, got.Status)
	require.NotNil(t, got.LastCrawled)
	assert.Equal(t, crawledAt, got.LastCrawled.UTC())
	assert.Nil(t, got.ErrorMessage)

	errMsg := "connection refused"
	got.Status = domain.CrawlStatusError
	got.ErrorMessage = &errMsg
	require.NoError(t, kbRepo.UpdateURLStatus(ctx, got))

	got, err = kbRepo.GetURLByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CrawlStatusError, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "connection refused", *got.ErrorMessage)
	// A failed re-crawl keeps the previous success timestamp.
	require.NotNil(t, got.LastCrawled)
}

func TestKnowledgeBaseRepository_UpdateURLStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	kbRepo := NewKnowledgeBaseRepository(pool)

	u := &domain.KnowledgeBaseURL{ID: uuid.NewString(), Status: domain.CrawlStatusCrawled}
	err := kbRepo.UpdateURLStatus(ctx, u)
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
}

func TestKnowledgeBaseRepository_ListPendingURLs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	website := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Docs site",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, kbRepo.CreateSource(ctx, website))

	urls := []domain.KnowledgeBaseURL{
		{ID: uuid.NewString(), URL: "https://example.com/newest", Status: domain.CrawlStatusPending, Position: 0, CreatedAt: now, UpdatedAt: now.Add(2 * time.Millisecond)},
		{ID: uuid.NewString(), URL: "https://example.com/oldest", Status: domain.CrawlStatusPending, Position: 1, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), URL: "https://example.com/done", Status: domain.CrawlStatusCrawled, Position: 2, CreatedAt: now, UpdatedAt: now.Add(time.Millisecond)},
	}
	require.NoError(t, kbRepo.InsertURLs(ctx, website.ID, urls))

	pending, err := kbRepo.ListPendingURLs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "https://example.com/oldest", pending[0].URL)
	assert.Equal(t, "https://example.com/newest", pending[1].URL)

	one, err := kbRepo.ListPendingURLs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "https://example.com/oldest", one[0].URL)
}

func TestTxRunner_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)
	txRunner := NewTxRunner(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	src := newTextSource(bot.ID, "Half written", time.Now().UTC().Truncate(time.Microsecond))
	boom := errors.New("boom")
	err := txRunner.WithTx(ctx, func(repos service.TxRepositories) error {
		if err := repos.KnowledgeBases().CreateSource(ctx, src); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = kbRepo.GetSourceByID(ctx, src.ID)
	assert.ErrorIs(t, err, domain.ErrKnowledgeSourceNotFound)
}

func TestTxRunner_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	tenantRepo := NewTenantRepository(pool)
	chatbotRepo := NewChatbotRepository(pool)
	kbRepo := NewKnowledgeBaseRepository(pool)
	txRunner := NewTxRunner(pool)

	_, bot := setupTenantChatbot(ctx, t, tenantRepo, chatbotRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	src := &domain.KnowledgeSource{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Name:      "Docs site",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	urls := []domain.KnowledgeBaseURL{
		{ID: uuid.NewString(), URL: "https://example.com/a", Status: domain.CrawlStatusPending, Position: 0, CreatedAt: now, UpdatedAt: now},
	}

	err := txRunner.WithTx(ctx, func(repos service.TxRepositories) error {
		kb := repos.KnowledgeBases()
		if err := kb.CreateSource(ctx, src); err != nil {
			return err
		}
		return kb.InsertURLs(ctx, src.ID, urls)
	})
	require.NoError(t, err)

	got, err := kbRepo.GetSourceByID(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, got.URLs, 1)
	assert.Equal(t, "https://example.com/a", got.URLs[0].URL)
}
