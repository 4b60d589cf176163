package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/service"
)

const (
	// BatchSize is the maximum number of URLs claimed per poll
	BatchSize = 20
)

// Crawler defines the interface for fetching a URL's content
type Crawler interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CrawlStatusRecorder records crawl outcomes
type CrawlStatusRecorder interface {
	SetStatus(ctx context.Context, input service.SetStatusInput) (*domain.KnowledgeBaseURL, error)
	ListPending(ctx context.Context, limit int) ([]domain.KnowledgeBaseURL, error)
}

// CrawlWorker processes pending knowledge base URLs
type CrawlWorker struct {
	crawler  Crawler
	recorder CrawlStatusRecorder
}

// NewCrawlWorker creates a new CrawlWorker instance
func NewCrawlWorker(crawler Crawler, recorder CrawlStatusRecorder) *CrawlWorker {
	return &CrawlWorker{
		crawler:  crawler,
		recorder: recorder,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *CrawlWorker) ProcessJobs(ctx context.Context) error {
	urls, err := w.recorder.ListPending(ctx, BatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending urls: %w", err)
	}

	if len(urls) == 0 {
		return nil
	}

	log.Printf("Processing %d pending crawl urls", len(urls))

	for i := range urls {
		if err := w.processURL(ctx, &urls[i]); err != nil {
			log.Printf("Error processing url %s: %v", urls[i].ID, err)
		}
	}

	return nil
}

func (w *CrawlWorker) processURL(ctx context.Context, u *domain.KnowledgeBaseURL) error {
	log.Printf("Crawling url %s (%s)", u.ID, u.URL)

	if _, err := w.crawler.Fetch(ctx, u.URL); err != nil {
		return w.recordFailure(ctx, u, err)
	}

	if _, err := w.recorder.SetStatus(ctx, service.SetStatusInput{
		URLID:  u.ID,
		Status: domain.CrawlStatusCrawled,
	}); err != nil {
		return fmt.Errorf("failed to mark url as crawled: %w", err)
	}

	log.Printf("Url %s crawled successfully", u.ID)
	return nil
}

func (w *CrawlWorker) recordFailure(ctx context.Context, u *domain.KnowledgeBaseURL, fetchErr error) error {
	log.Printf("Url %s crawl failed: %v", u.ID, fetchErr)

	errMsg := fetchErr.Error()
	if _, err := w.recorder.SetStatus(ctx, service.SetStatusInput{
		URLID:        u.ID,
		Status:       domain.CrawlStatusError,
		ErrorMessage: &errMsg,
	}); err != nil {
		return fmt.Errorf("failed to mark url as errored: %w", err)
	}

	return nil
}
