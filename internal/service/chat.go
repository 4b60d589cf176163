package service

import (
	"context"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/telemetry"
)

// ChatMessage is one turn of a conversation handed to the model
type ChatMessage struct {
	Role    string
	Content string
}

// ChatCompleter is the LLM-invocation collaborator. The knowledge core only
// produces prompt text; model access and credentials live behind this
// interface.
type ChatCompleter interface {
	Complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage) (string, error)
}

// KnowledgeBlockBuilder produces the aggregated knowledge text for a chatbot
type KnowledgeBlockBuilder interface {
	BuildKnowledgeBlock(ctx context.Context, chatbotID string) (string, error)
}

// ChatService splices a chatbot's knowledge block into its system prompt and
// invokes the model.
type ChatService struct {
	chatbotRepo  ChatbotRepositoryInterface
	prompts      KnowledgeBlockBuilder
	llm          ChatCompleter
	defaultModel string
}

func NewChatService(chatbotRepo ChatbotRepositoryInterface, prompts KnowledgeBlockBuilder, llm ChatCompleter, defaultModel string) *ChatService {
	return &ChatService{
		chatbotRepo:  chatbotRepo,
		prompts:      prompts,
		llm:          llm,
		defaultModel: defaultModel,
	}
}

type ChatInput struct {
	TenantID  string
	ChatbotID string
	Messages  []ChatMessage
}

type ChatOutput struct {
	Reply string
}

func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Chat", telemetry.SpanAttributes{
		TenantID:  input.TenantID,
		ChatbotID: input.ChatbotID,
		Operation: "chat",
	})
	defer span.End()

	if len(input.Messages) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "at least one message is required")
	}

	chatbot, err := s.chatbotRepo.GetByID(ctx, input.ChatbotID)
	if err != nil {
		return nil, err
	}
	if input.TenantID != "" && chatbot.TenantID != input.TenantID {
		return nil, domain.ErrChatbotNotOwned
	}

	// An aggregation failure aborts the chat; answering without configured
	// knowledge would be worse than not answering.
	knowledge, err := s.prompts.BuildKnowledgeBlock(ctx, input.ChatbotID)
	if err != nil {
		return nil, err
	}

	systemPrompt := chatbot.Instructions
	if knowledge != "" {
		if systemPrompt != "" {
			systemPrompt += "\n\n"
		}
		systemPrompt += "Use the following knowledge base when answering:\n\n" + knowledge
	}

	model := chatbot.Model
	if model == "" {
		model = s.defaultModel
	}

	reply, err := s.llm.Complete(ctx, model, systemPrompt, input.Messages)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "chat completion failed", err)
	}

	return &ChatOutput{Reply: reply}, nil
}
