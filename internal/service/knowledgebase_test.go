package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ownedChatbotFixture() *domain.Chatbot {
	now := time.Now().UTC()
	return &domain.Chatbot{
		ID:        "bot-1",
		TenantID:  "tenant-1",
		Name:      "Support Bot",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newKBServiceForTest(kbRepo *MockKnowledgeBaseRepo, chatbotRepo *MockChatbotRepo) *KnowledgeBaseService {
	return NewKnowledgeBaseServiceWithUUIDGen(kbRepo, chatbotRepo, &fakeTxRunner{kb: kbRepo}, &seqUUIDGenerator{})
}

func TestKnowledgeBaseService_Create_TextSource(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("CreateSource", mock.Anything, mock.Anything).Return(nil)

	source, err := svc.Create(context.Background(), CreateSourceInput{
		TenantID:  "tenant-1",
		ChatbotID: "bot-1",
		Name:      "Shipping",
		Type:      domain.SourceTypeText,
		Content:   "We ship worldwide.",
	})

	require.NoError(t, err)
	assert.Equal(t, "id-1", source.ID)
	assert.Equal(t, domain.SourceStatusActive, source.Status, "status defaults to active")
	assert.Equal(t, "We ship worldwide.", source.Content)
	assert.Equal(t, source.CreatedAt, source.UpdatedAt)

	kbRepo.AssertExpectations(t)
	kbRepo.AssertNotCalled(t, "InsertURLs", mock.Anything, mock.Anything, mock.Anything)
	kbRepo.AssertNotCalled(t, "InsertFAQs", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Create_TypeIsolation(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("CreateSource", mock.Anything, mock.Anything).Return(nil)

	// A text source with stray URL and FAQ children keeps only its content.
	source, err := svc.Create(context.Background(), CreateSourceInput{
		TenantID:  "tenant-1",
		ChatbotID: "bot-1",
		Name:      "Policies",
		Type:      domain.SourceTypeText,
		Content:   "Policy text.",
		FilePath:  "should/be/dropped",
		URLs:      []URLInput{{URL: "https://example.com"}},
		FAQs:      []FAQInput{{Question: "Q", Answer: "A"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Policy text.", source.Content)
	assert.Empty(t, source.FilePath)
	assert.Empty(t, source.URLs)
	assert.Empty(t, source.FAQs)

	kbRepo.AssertNotCalled(t, "InsertURLs", mock.Anything, mock.Anything, mock.Anything)
	kbRepo.AssertNotCalled(t, "InsertFAQs", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Create_WebsiteSource(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("CreateSource", mock.Anything, mock.Anything).Return(nil)
	kbRepo.On("InsertURLs", mock.Anything, "id-1", mock.MatchedBy(func(urls []domain.KnowledgeBaseURL) bool {
		return len(urls) == 2 &&
			urls[0].URL == "https://example.com/a" && urls[0].Status == domain.CrawlStatusPending && urls[0].Position == 0 &&
			urls[1].URL == "https://example.com/b" && urls[1].Status == domain.CrawlStatusPending && urls[1].Position == 1
	})).Return(nil)

	source, err := svc.Create(context.Background(), CreateSourceInput{
		TenantID:  "tenant-1",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeWebsite,
		URLs: []URLInput{
			{URL: "https://example.com/a"},
			{URL: "https://example.com/b"},
		},
	})

	require.NoError(t, err)
	require.Len(t, source.URLs, 2)
	assert.Equal(t, source.ID, source.URLs[0].KnowledgeBaseID)
	kbRepo.AssertExpectations(t)
}

func TestKnowledgeBaseService_Create_EmptyURLRejected(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)

	_, err := svc.Create(context.Background(), CreateSourceInput{
		TenantID:  "tenant-1",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeWebsite,
		URLs:      []URLInput{{URL: ""}},
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	kbRepo.AssertNotCalled(t, "CreateSource", mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Create_ChatbotNotOwned(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)

	_, err := svc.Create(context.Background(), CreateSourceInput{
		TenantID:  "other-tenant",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeText,
	})

	assert.ErrorIs(t, err, domain.ErrChatbotNotOwned)
	kbRepo.AssertNotCalled(t, "CreateSource", mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Create_InsertFailureAborts(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("CreateSource", mock.Anything, mock.Anything).Return(nil)
	kbRepo.On("InsertURLs", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := svc.Create(context.Background(), CreateSourceInput{
		TenantID:  "tenant-1",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeWebsite,
		URLs:      []URLInput{{URL: "https://example.com"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestKnowledgeBaseService_Update_ReplaceFAQs(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "FAQ",
		Type:      domain.SourceTypeFAQ,
		Status:    domain.SourceStatusActive,
		FAQs: []domain.KnowledgeBaseFAQ{
			{ID: "old-faq", KnowledgeBaseID: "src-1", Question: "Old?", Answer: "Old."},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("UpdateSource", mock.Anything, mock.Anything).Return(nil)
	kbRepo.On("DeleteFAQsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("InsertFAQs", mock.Anything, "src-1", mock.MatchedBy(func(faqs []domain.KnowledgeBaseFAQ) bool {
		return len(faqs) == 1 && faqs[0].Question == "New?" && faqs[0].Answer == "New."
	})).Return(nil)

	faqs := []FAQInput{{Question: "New?", Answer: "New."}}
	source, err := svc.Update(context.Background(), UpdateSourceInput{
		TenantID: "tenant-1",
		SourceID: "src-1",
		FAQs:     &faqs,
	})

	require.NoError(t, err)
	require.Len(t, source.FAQs, 1)
	assert.Equal(t, "New?", source.FAQs[0].Question)
	kbRepo.AssertExpectations(t)
}

func TestKnowledgeBaseService_Update_EmptyListClearsChildren(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		URLs: []domain.KnowledgeBaseURL{
			{ID: "old-url", KnowledgeBaseID: "src-1", URL: "https://example.com"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("UpdateSource", mock.Anything, mock.Anything).Return(nil)
	kbRepo.On("DeleteURLsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("InsertURLs", mock.Anything, "src-1", mock.MatchedBy(func(urls []domain.KnowledgeBaseURL) bool {
		return len(urls) == 0
	})).Return(nil)

	urls := []URLInput{}
	source, err := svc.Update(context.Background(), UpdateSourceInput{
		TenantID: "tenant-1",
		SourceID: "src-1",
		URLs:     &urls,
	})

	require.NoError(t, err)
	assert.Empty(t, source.URLs, "present-but-empty list clears all children")
	kbRepo.AssertExpectations(t)
}

func TestKnowledgeBaseService_Update_TypeIsolation(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Note",
		Type:      domain.SourceTypeText,
		Status:    domain.SourceStatusActive,
		Content:   "Original.",
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("UpdateSource", mock.Anything, mock.Anything).Return(nil)

	// URL children supplied for a text source must not touch stored rows.
	urls := []URLInput{{URL: "https://example.com"}}
	_, err := svc.Update(context.Background(), UpdateSourceInput{
		TenantID: "tenant-1",
		SourceID: "src-1",
		URLs:     &urls,
	})

	require.NoError(t, err)
	kbRepo.AssertNotCalled(t, "DeleteURLsBySource", mock.Anything, mock.Anything)
	kbRepo.AssertNotCalled(t, "InsertURLs", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Update_InvalidStatus(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Note",
		Type:      domain.SourceTypeText,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)

	bad := domain.SourceStatus("bogus")
	_, err := svc.Update(context.Background(), UpdateSourceInput{
		TenantID: "tenant-1",
		SourceID: "src-1",
		Status:   &bad,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidSourceStatus)
	kbRepo.AssertNotCalled(t, "UpdateSource", mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Update_EmptyURLRejected(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)

	// Replacement children face the same validation as on create.
	urls := []URLInput{{URL: "https://example.com/a"}, {URL: ""}}
	_, err := svc.Update(context.Background(), UpdateSourceInput{
		TenantID: "tenant-1",
		SourceID: "src-1",
		URLs:     &urls,
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	kbRepo.AssertNotCalled(t, "UpdateSource", mock.Anything, mock.Anything)
	kbRepo.AssertNotCalled(t, "InsertURLs", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Update_EmptyFAQAnswerRejected(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "FAQ",
		Type:      domain.SourceTypeFAQ,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)

	faqs := []FAQInput{{Question: "Do you ship?", Answer: ""}}
	_, err := svc.Update(context.Background(), UpdateSourceInput{
		TenantID: "tenant-1",
		SourceID: "src-1",
		FAQs:     &faqs,
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	kbRepo.AssertNotCalled(t, "UpdateSource", mock.Anything, mock.Anything)
	kbRepo.AssertNotCalled(t, "InsertFAQs", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Delete_RemovesChildrenFirst(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Docs",
		Type:      domain.SourceTypeWebsite,
		Status:    domain.SourceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("DeleteURLsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteFAQsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteSource", mock.Anything, "src-1").Return(nil)

	err := svc.Delete(context.Background(), "tenant-1", "src-1")

	require.NoError(t, err)
	kbRepo.AssertExpectations(t)
}

type MockObjectRemover struct {
	mock.Mock
}

func (m *MockObjectRemover) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestKnowledgeBaseService_Delete_CleansUpStoredFile(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	store := new(MockObjectRemover)
	svc := newKBServiceForTest(kbRepo, chatbotRepo).WithObjectStore(store)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Manual",
		Type:      domain.SourceTypeFile,
		Status:    domain.SourceStatusActive,
		FilePath:  "kb/bot-1/src-1/manual.pdf",
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("DeleteURLsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteFAQsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteSource", mock.Anything, "src-1").Return(nil)
	store.On("DeleteObject", mock.Anything, "kb/bot-1/src-1/manual.pdf").Return(nil)

	err := svc.Delete(context.Background(), "tenant-1", "src-1")

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestKnowledgeBaseService_Delete_ObjectStoreFailureIsNotFatal(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	store := new(MockObjectRemover)
	svc := newKBServiceForTest(kbRepo, chatbotRepo).WithObjectStore(store)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Manual",
		Type:      domain.SourceTypeFile,
		Status:    domain.SourceStatusActive,
		FilePath:  "kb/bot-1/src-1/manual.pdf",
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("DeleteURLsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteFAQsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteSource", mock.Anything, "src-1").Return(nil)
	store.On("DeleteObject", mock.Anything, "kb/bot-1/src-1/manual.pdf").Return(assert.AnError)

	err := svc.Delete(context.Background(), "tenant-1", "src-1")

	require.NoError(t, err)
}

func TestKnowledgeBaseService_Delete_NoObjectCleanupForTextSource(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	store := new(MockObjectRemover)
	svc := newKBServiceForTest(kbRepo, chatbotRepo).WithObjectStore(store)

	now := time.Now().UTC()
	existing := &domain.KnowledgeSource{
		ID:        "src-1",
		ChatbotID: "bot-1",
		Name:      "Note",
		Type:      domain.SourceTypeText,
		Status:    domain.SourceStatusActive,
		Content:   "hello",
		CreatedAt: now,
		UpdatedAt: now,
	}

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("GetSourceByID", mock.Anything, "src-1").Return(existing, nil)
	kbRepo.On("DeleteURLsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteFAQsBySource", mock.Anything, "src-1").Return(nil)
	kbRepo.On("DeleteSource", mock.Anything, "src-1").Return(nil)

	err := svc.Delete(context.Background(), "tenant-1", "src-1")

	require.NoError(t, err)
	store.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_Delete_NotFound(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	kbRepo.On("GetSourceByID", mock.Anything, "missing").Return(nil, domain.ErrKnowledgeSourceNotFound)

	err := svc.Delete(context.Background(), "tenant-1", "missing")

	assert.ErrorIs(t, err, domain.ErrKnowledgeSourceNotFound)
	kbRepo.AssertNotCalled(t, "DeleteSource", mock.Anything, mock.Anything)
}

func TestKnowledgeBaseService_ListSources_DefaultsLimit(t *testing.T) {
	kbRepo := new(MockKnowledgeBaseRepo)
	chatbotRepo := new(MockChatbotRepo)
	svc := newKBServiceForTest(kbRepo, chatbotRepo)

	chatbotRepo.On("GetByID", mock.Anything, "bot-1").Return(ownedChatbotFixture(), nil)
	kbRepo.On("ListByChatbotWithCursor", mock.Anything, "bot-1", (*pagination.Cursor)(nil), 20).
		Return(&SourcePageResult{Items: []*domain.KnowledgeSource{}, HasMore: false}, nil)

	out, err := svc.ListSources(context.Background(), ListSourcesInput{
		TenantID:  "tenant-1",
		ChatbotID: "bot-1",
	})

	require.NoError(t, err)
	assert.False(t, out.HasMore)
	kbRepo.AssertExpectations(t)
}
