package service

import (
	"context"
	"fmt"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockKnowledgeBaseRepo is a mock implementation of KnowledgeBaseRepositoryInterface
type MockKnowledgeBaseRepo struct {
	mock.Mock
}

func (m *MockKnowledgeBaseRepo) CreateSource(ctx context.Context, s *domain.KnowledgeSource) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) GetSourceByID(ctx context.Context, id string) (*domain.KnowledgeSource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeSource), args.Error(1)
}

func (m *MockKnowledgeBaseRepo) ListByChatbot(ctx context.Context, chatbotID string) ([]*domain.KnowledgeSource, error) {
	args := m.Called(ctx, chatbotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeSource), args.Error(1)
}

func (m *MockKnowledgeBaseRepo) ListByChatbotWithCursor(ctx context.Context, chatbotID string, cursor *pagination.Cursor, limit int) (*SourcePageResult, error) {
	args := m.Called(ctx, chatbotID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SourcePageResult), args.Error(1)
}

func (m *MockKnowledgeBaseRepo) UpdateSource(ctx context.Context, s *domain.KnowledgeSource) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) DeleteSource(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) InsertURLs(ctx context.Context, sourceID string, urls []domain.KnowledgeBaseURL) error {
	args := m.Called(ctx, sourceID, urls)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) InsertFAQs(ctx context.Context, sourceID string, faqs []domain.KnowledgeBaseFAQ) error {
	args := m.Called(ctx, sourceID, faqs)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) DeleteURLsBySource(ctx context.Context, sourceID string) error {
	args := m.Called(ctx, sourceID)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) DeleteFAQsBySource(ctx context.Context, sourceID string) error {
	args := m.Called(ctx, sourceID)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) ListURLsBySource(ctx context.Context, sourceID string) ([]domain.KnowledgeBaseURL, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KnowledgeBaseURL), args.Error(1)
}

func (m *MockKnowledgeBaseRepo) ListFAQsBySource(ctx context.Context, sourceID string) ([]domain.KnowledgeBaseFAQ, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KnowledgeBaseFAQ), args.Error(1)
}

func (m *MockKnowledgeBaseRepo) GetURLByID(ctx context.Context, id string) (*domain.KnowledgeBaseURL, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeBaseURL), args.Error(1)
}

func (m *MockKnowledgeBaseRepo) UpdateURLStatus(ctx context.Context, u *domain.KnowledgeBaseURL) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepo) ListPendingURLs(ctx context.Context, limit int) ([]domain.KnowledgeBaseURL, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KnowledgeBaseURL), args.Error(1)
}

// MockChatbotRepo is a mock implementation of ChatbotRepositoryInterface
type MockChatbotRepo struct {
	mock.Mock
}

func (m *MockChatbotRepo) Create(ctx context.Context, c *domain.Chatbot) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockChatbotRepo) GetByID(ctx context.Context, id string) (*domain.Chatbot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chatbot), args.Error(1)
}

func (m *MockChatbotRepo) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Chatbot, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chatbot), args.Error(1)
}

func (m *MockChatbotRepo) Update(ctx context.Context, c *domain.Chatbot) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockTenantRepo is a mock implementation of TenantRepository
type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetByName(ctx context.Context, name string) (*domain.Tenant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tenant), args.Error(1)
}

// MockAPIKeyRepo is a mock implementation of APIKeyRepository
type MockAPIKeyRepo struct {
	mock.Mock
}

func (m *MockAPIKeyRepo) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepo) GetByID(ctx context.Context, id string) (*domain.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepo) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepo) GetByTenantID(ctx context.Context, tenantID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepo) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeTxRunner executes the callback against a fixed repository without a
// real transaction, matching how the in-memory mocks are shared.
type fakeTxRunner struct {
	kb KnowledgeBaseRepositoryInterface
}

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return fn(fakeTxRepositories{kb: r.kb})
}

type fakeTxRepositories struct {
	kb KnowledgeBaseRepositoryInterface
}

func (f fakeTxRepositories) KnowledgeBases() KnowledgeBaseRepositoryInterface {
	return f.kb
}

// seqUUIDGenerator returns id-1, id-2, ... so child rows are predictable
type seqUUIDGenerator struct {
	n int
}

func (g *seqUUIDGenerator) NewString() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}
