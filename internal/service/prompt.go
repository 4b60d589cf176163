package service

import (
	"context"
	"strings"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/telemetry"
)

// SourceLister is the read path PromptService consumes. It must return
// hydrated sources in creation order.
type SourceLister interface {
	ListByChatbot(ctx context.Context, chatbotID string) ([]*domain.KnowledgeSource, error)
}

// PromptService assembles a chatbot's active knowledge into one text block
// for system-prompt injection. It is read-only and deterministic: the same
// stored rows always produce byte-identical output.
type PromptService struct {
	sources SourceLister
}

func NewPromptService(sources SourceLister) *PromptService {
	return &PromptService{sources: sources}
}

// BuildKnowledgeBlock formats all active sources for a chatbot. Listing
// failures propagate; the chatbot must not answer as if it had no knowledge
// configured when the store is unavailable.
func (s *PromptService) BuildKnowledgeBlock(ctx context.Context, chatbotID string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.BuildKnowledgeBlock", telemetry.SpanAttributes{
		ChatbotID: chatbotID,
		Operation: "aggregate",
	})
	defer span.End()

	sources, err := s.sources.ListByChatbot(ctx, chatbotID)
	if err != nil {
		return "", err
	}

	var blocks []string
	for _, source := range sources {
		if source.Status != domain.SourceStatusActive {
			continue
		}
		block, ok := formatSource(source)
		if ok {
			blocks = append(blocks, block)
		}
	}

	return strings.Join(blocks, "\n\n"), nil
}

// formatSource renders one source by type. File sources are tracked but never
// contribute to the prompt: no extraction step exists for them.
func formatSource(s *domain.KnowledgeSource) (string, bool) {
	switch s.Type {
	case domain.SourceTypeText:
		return "--- " + s.Name + " ---\n" + s.Content, true
	case domain.SourceTypeFAQ:
		lines := make([]string, 0, 1+2*len(s.FAQs))
		lines = append(lines, "--- "+s.Name+" (FAQ) ---")
		for _, faq := range s.FAQs {
			lines = append(lines, "Q: "+faq.Question, "A: "+faq.Answer)
		}
		return strings.Join(lines, "\n"), true
	case domain.SourceTypeWebsite:
		lines := make([]string, 0, 1+len(s.URLs))
		lines = append(lines, "--- "+s.Name+" (Website URLs) ---")
		for _, u := range s.URLs {
			lines = append(lines, "URL: "+u.URL)
		}
		return strings.Join(lines, "\n"), true
	default:
		return "", false
	}
}
