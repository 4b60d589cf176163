package service

import (
	"context"
	"time"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/telemetry"
)

// CrawlService is the state machine for a URL's ingestion status. It is
// invoked by the crawler collaborator after a fetch attempt, and by the API
// when the dashboard requeues a URL.
type CrawlService struct {
	kbRepo      KnowledgeBaseRepositoryInterface
	chatbotRepo ChatbotRepositoryInterface
}

func NewCrawlService(kbRepo KnowledgeBaseRepositoryInterface, chatbotRepo ChatbotRepositoryInterface) *CrawlService {
	return &CrawlService{kbRepo: kbRepo, chatbotRepo: chatbotRepo}
}

// SetStatusInput describes a crawl transition. An empty TenantID means the
// caller is a trusted in-process collaborator and ownership is not rechecked.
type SetStatusInput struct {
	TenantID     string
	URLID        string
	Status       domain.CrawlStatus
	ErrorMessage *string
}

// SetStatus applies a crawl transition:
//   - crawled stamps LastCrawled and leaves ErrorMessage untouched
//   - error stores ErrorMessage and leaves LastCrawled untouched
//   - pending requeues the URL, keeping both as history
//
// Invalid statuses are rejected before any read or write. A race on the same
// URL resolves as last-write-wins at the storage layer.
func (s *CrawlService) SetStatus(ctx context.Context, input SetStatusInput) (*domain.KnowledgeBaseURL, error) {
	ctx, span := telemetry.StartSpan(ctx, "CrawlService.SetStatus", telemetry.SpanAttributes{
		TenantID:  input.TenantID,
		Operation: "set_status",
	})
	defer span.End()

	if !domain.IsValidCrawlStatus(input.Status) {
		return nil, domain.ErrInvalidCrawlStatus
	}

	u, err := s.kbRepo.GetURLByID(ctx, input.URLID)
	if err != nil {
		return nil, err
	}

	if input.TenantID != "" {
		source, err := s.kbRepo.GetSourceByID(ctx, u.KnowledgeBaseID)
		if err != nil {
			return nil, err
		}
		chatbot, err := s.chatbotRepo.GetByID(ctx, source.ChatbotID)
		if err != nil {
			return nil, err
		}
		if chatbot.TenantID != input.TenantID {
			return nil, domain.ErrChatbotNotOwned
		}
	}

	switch input.Status {
	case domain.CrawlStatusCrawled:
		now := time.Now().UTC()
		u.LastCrawled = &now
	case domain.CrawlStatusError:
		u.ErrorMessage = input.ErrorMessage
	}
	u.Status = input.Status

	if err := s.kbRepo.UpdateURLStatus(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListPending returns URLs awaiting a crawl attempt
func (s *CrawlService) ListPending(ctx context.Context, limit int) ([]domain.KnowledgeBaseURL, error) {
	return s.kbRepo.ListPendingURLs(ctx, limit)
}
