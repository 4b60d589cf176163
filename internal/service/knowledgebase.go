package service

import (
	"context"
	"time"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/pagination"
	"github.com/botforge-ai/botforge/internal/telemetry"
	"github.com/google/uuid"
)

// KnowledgeBaseRepositoryInterface defines the repository interface for
// knowledge source persistence
type KnowledgeBaseRepositoryInterface interface {
	CreateSource(ctx context.Context, s *domain.KnowledgeSource) error
	GetSourceByID(ctx context.Context, id string) (*domain.KnowledgeSource, error)
	ListByChatbot(ctx context.Context, chatbotID string) ([]*domain.KnowledgeSource, error)
	ListByChatbotWithCursor(ctx context.Context, chatbotID string, cursor *pagination.Cursor, limit int) (*SourcePageResult, error)
	UpdateSource(ctx context.Context, s *domain.KnowledgeSource) error
	DeleteSource(ctx context.Context, id string) error
	InsertURLs(ctx context.Context, sourceID string, urls []domain.KnowledgeBaseURL) error
	InsertFAQs(ctx context.Context, sourceID string, faqs []domain.KnowledgeBaseFAQ) error
	DeleteURLsBySource(ctx context.Context, sourceID string) error
	DeleteFAQsBySource(ctx context.Context, sourceID string) error
	ListURLsBySource(ctx context.Context, sourceID string) ([]domain.KnowledgeBaseURL, error)
	ListFAQsBySource(ctx context.Context, sourceID string) ([]domain.KnowledgeBaseFAQ, error)
	GetURLByID(ctx context.Context, id string) (*domain.KnowledgeBaseURL, error)
	UpdateURLStatus(ctx context.Context, u *domain.KnowledgeBaseURL) error
	ListPendingURLs(ctx context.Context, limit int) ([]domain.KnowledgeBaseURL, error)
}

// ChatbotRepositoryInterface is the chatbot ownership collaborator: it
// resolves a chatbot and its owning tenant before any knowledge write.
type ChatbotRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Chatbot) error
	GetByID(ctx context.Context, id string) (*domain.Chatbot, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Chatbot, error)
	Update(ctx context.Context, c *domain.Chatbot) error
}

type SourcePageResult struct {
	Items      []*domain.KnowledgeSource
	NextCursor string
	HasMore    bool
}

// ObjectRemover deletes uploaded objects left behind by file sources
type ObjectRemover interface {
	DeleteObject(ctx context.Context, key string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeBaseService handles business logic for knowledge sources. Every
// write that touches child rows runs inside a single transaction.
type KnowledgeBaseService struct {
	kbRepo      KnowledgeBaseRepositoryInterface
	chatbotRepo ChatbotRepositoryInterface
	txRunner    TxRunner
	uuidGen     UUIDGenerator
	objectStore ObjectRemover
}

// WithObjectStore enables stored-object cleanup when file sources are deleted
func (s *KnowledgeBaseService) WithObjectStore(store ObjectRemover) *KnowledgeBaseService {
	s.objectStore = store
	return s
}

// NewKnowledgeBaseService creates a new KnowledgeBaseService instance
func NewKnowledgeBaseService(
	kbRepo KnowledgeBaseRepositoryInterface,
	chatbotRepo ChatbotRepositoryInterface,
	txRunner TxRunner,
) *KnowledgeBaseService {
	return &KnowledgeBaseService{
		kbRepo:      kbRepo,
		chatbotRepo: chatbotRepo,
		txRunner:    txRunner,
		uuidGen:     &DefaultUUIDGenerator{},
	}
}

// NewKnowledgeBaseServiceWithUUIDGen creates a KnowledgeBaseService with a
// custom UUID generator (for testing)
func NewKnowledgeBaseServiceWithUUIDGen(
	kbRepo KnowledgeBaseRepositoryInterface,
	chatbotRepo ChatbotRepositoryInterface,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
) *KnowledgeBaseService {
	return &KnowledgeBaseService{
		kbRepo:      kbRepo,
		chatbotRepo: chatbotRepo,
		txRunner:    txRunner,
		uuidGen:     uuidGen,
	}
}

// URLInput is a caller-supplied URL child
type URLInput struct {
	URL string
}

// FAQInput is a caller-supplied question/answer pair
type FAQInput struct {
	Question string
	Answer   string
}

// CreateSourceInput represents the input for creating a knowledge source
type CreateSourceInput struct {
	TenantID  string
	ChatbotID string
	Name      string
	Type      domain.SourceType
	Status    domain.SourceStatus // defaults to active when empty
	Content   string
	FilePath  string
	URLs      []URLInput
	FAQs      []FAQInput
}

// UpdateSourceInput represents a partial update; nil fields are untouched.
// A non-nil URLs or FAQs slice (including an empty one) fully replaces the
// existing children of that kind.
type UpdateSourceInput struct {
	TenantID string
	SourceID string
	Name     *string
	Status   *domain.SourceStatus
	Content  *string
	FilePath *string
	URLs     *[]URLInput
	FAQs     *[]FAQInput
}

type ListSourcesInput struct {
	TenantID  string
	ChatbotID string
	Cursor    string
	Limit     int
}

type ListSourcesOutput struct {
	Items   []*domain.KnowledgeSource
	Cursor  string
	HasMore bool
}

// Create creates a knowledge source with its children in one transaction.
// Caller-supplied children that do not match the declared type are dropped
// before the transaction opens.
func (s *KnowledgeBaseService) Create(ctx context.Context, input CreateSourceInput) (*domain.KnowledgeSource, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeBaseService.Create", telemetry.SpanAttributes{
		TenantID:  input.TenantID,
		ChatbotID: input.ChatbotID,
		Operation: "create",
	})
	defer span.End()

	if _, err := s.ownedChatbot(ctx, input.TenantID, input.ChatbotID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.SourceStatusActive
	}

	now := time.Now().UTC()
	source := &domain.KnowledgeSource{
		ID:        s.uuidGen.NewString(),
		ChatbotID: input.ChatbotID,
		Name:      input.Name,
		Type:      input.Type,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Type isolation: only the fields belonging to the declared type survive.
	switch input.Type {
	case domain.SourceTypeText:
		source.Content = input.Content
	case domain.SourceTypeFile:
		source.FilePath = input.FilePath
	case domain.SourceTypeWebsite:
		source.URLs = s.buildURLs(source.ID, input.URLs, now)
	case domain.SourceTypeFAQ:
		source.FAQs = s.buildFAQs(source.ID, input.FAQs, now)
	}

	if err := domain.ValidateKnowledgeSource(source); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge source", err)
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		kb := repos.KnowledgeBases()
		if err := kb.CreateSource(ctx, source); err != nil {
			return err
		}
		if len(source.URLs) > 0 {
			if err := kb.InsertURLs(ctx, source.ID, source.URLs); err != nil {
				return err
			}
		}
		if len(source.FAQs) > 0 {
			if err := kb.InsertFAQs(ctx, source.ID, source.FAQs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return source, nil
}

// GetByID retrieves a hydrated knowledge source
func (s *KnowledgeBaseService) GetByID(ctx context.Context, tenantID, id string) (*domain.KnowledgeSource, error) {
	source, err := s.kbRepo.GetSourceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChatbot(ctx, tenantID, source.ChatbotID); err != nil {
		return nil, err
	}
	return source, nil
}

// ListByChatbot returns all sources for a chatbot in creation order
func (s *KnowledgeBaseService) ListByChatbot(ctx context.Context, tenantID, chatbotID string) ([]*domain.KnowledgeSource, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeBaseService.ListByChatbot", telemetry.SpanAttributes{
		TenantID:  tenantID,
		ChatbotID: chatbotID,
		Operation: "list",
	})
	defer span.End()

	if _, err := s.ownedChatbot(ctx, tenantID, chatbotID); err != nil {
		return nil, err
	}
	return s.kbRepo.ListByChatbot(ctx, chatbotID)
}

// ListSources pages sources for the dashboard
func (s *KnowledgeBaseService) ListSources(ctx context.Context, input ListSourcesInput) (*ListSourcesOutput, error) {
	if _, err := s.ownedChatbot(ctx, input.TenantID, input.ChatbotID); err != nil {
		return nil, err
	}

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.kbRepo.ListByChatbotWithCursor(ctx, input.ChatbotID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListSourcesOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Update applies a partial update. When URLs or FAQs are present the existing
// children of that kind are deleted and the provided list inserted fresh,
// inside the same transaction as the parent update.
func (s *KnowledgeBaseService) Update(ctx context.Context, input UpdateSourceInput) (*domain.KnowledgeSource, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeBaseService.Update", telemetry.SpanAttributes{
		TenantID:  input.TenantID,
		SourceID:  input.SourceID,
		Operation: "update",
	})
	defer span.End()

	source, err := s.kbRepo.GetSourceByID(ctx, input.SourceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChatbot(ctx, input.TenantID, source.ChatbotID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		source.Name = *input.Name
	}
	if input.Status != nil {
		if !domain.IsValidSourceStatus(*input.Status) {
			return nil, domain.ErrInvalidSourceStatus
		}
		source.Status = *input.Status
	}
	if input.Content != nil && source.Type == domain.SourceTypeText {
		source.Content = *input.Content
	}
	if input.FilePath != nil && source.Type == domain.SourceTypeFile {
		source.FilePath = *input.FilePath
	}

	now := time.Now().UTC()

	// Type isolation holds on update too: child lists for the wrong type are
	// dropped without touching stored rows.
	replaceURLs := input.URLs != nil && source.Type == domain.SourceTypeWebsite
	replaceFAQs := input.FAQs != nil && source.Type == domain.SourceTypeFAQ

	// Replacement children go onto the source before validation so a bad
	// list is rejected before the transaction opens, same as on create.
	var newURLs []domain.KnowledgeBaseURL
	if replaceURLs {
		newURLs = s.buildURLs(source.ID, *input.URLs, now)
		source.URLs = newURLs
	}
	var newFAQs []domain.KnowledgeBaseFAQ
	if replaceFAQs {
		newFAQs = s.buildFAQs(source.ID, *input.FAQs, now)
		source.FAQs = newFAQs
	}

	if err := domain.ValidateKnowledgeSource(source); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge source", err)
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		kb := repos.KnowledgeBases()
		if err := kb.UpdateSource(ctx, source); err != nil {
			return err
		}
		if replaceURLs {
			if err := kb.DeleteURLsBySource(ctx, source.ID); err != nil {
				return err
			}
			if err := kb.InsertURLs(ctx, source.ID, newURLs); err != nil {
				return err
			}
		}
		if replaceFAQs {
			if err := kb.DeleteFAQsBySource(ctx, source.ID); err != nil {
				return err
			}
			if err := kb.InsertFAQs(ctx, source.ID, newFAQs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return source, nil
}

// Delete removes a source and all of its children in one transaction
func (s *KnowledgeBaseService) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeBaseService.Delete", telemetry.SpanAttributes{
		TenantID:  tenantID,
		SourceID:  id,
		Operation: "delete",
	})
	defer span.End()

	source, err := s.kbRepo.GetSourceByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedChatbot(ctx, tenantID, source.ChatbotID); err != nil {
		return err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		kb := repos.KnowledgeBases()
		if err := kb.DeleteURLsBySource(ctx, id); err != nil {
			return err
		}
		if err := kb.DeleteFAQsBySource(ctx, id); err != nil {
			return err
		}
		return kb.DeleteSource(ctx, id)
	})
	if err != nil {
		return err
	}

	// Best effort: an orphaned object must not resurrect the source row.
	if s.objectStore != nil && source.Type == domain.SourceTypeFile && source.FilePath != "" {
		_ = s.objectStore.DeleteObject(ctx, source.FilePath)
	}
	return nil
}

func (s *KnowledgeBaseService) ownedChatbot(ctx context.Context, tenantID, chatbotID string) (*domain.Chatbot, error) {
	chatbot, err := s.chatbotRepo.GetByID(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	if tenantID != "" && chatbot.TenantID != tenantID {
		return nil, domain.ErrChatbotNotOwned
	}
	return chatbot, nil
}

func (s *KnowledgeBaseService) buildURLs(sourceID string, inputs []URLInput, now time.Time) []domain.KnowledgeBaseURL {
	urls := make([]domain.KnowledgeBaseURL, 0, len(inputs))
	for i, in := range inputs {
		urls = append(urls, domain.KnowledgeBaseURL{
			ID:              s.uuidGen.NewString(),
			KnowledgeBaseID: sourceID,
			URL:             in.URL,
			Status:          domain.CrawlStatusPending,
			Position:        i,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return urls
}

func (s *KnowledgeBaseService) buildFAQs(sourceID string, inputs []FAQInput, now time.Time) []domain.KnowledgeBaseFAQ {
	faqs := make([]domain.KnowledgeBaseFAQ, 0, len(inputs))
	for i, in := range inputs {
		faqs = append(faqs, domain.KnowledgeBaseFAQ{
			ID:              s.uuidGen.NewString(),
			KnowledgeBaseID: sourceID,
			Question:        in.Question,
			Answer:          in.Answer,
			Position:        i,
			CreatedAt:       now,
		})
	}
	return faqs
}
