package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/botforge-ai/botforge/internal/api"
	"github.com/botforge-ai/botforge/internal/api/middleware"
	"github.com/botforge-ai/botforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type ChatExecutor interface {
	Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error)
}

type PromptBuilder interface {
	BuildKnowledgeBlock(ctx context.Context, chatbotID string) (string, error)
}

type ChatHandler struct {
	chat        ChatExecutor
	prompts     PromptBuilder
	chatbotRepo ChatbotRepository
}

func NewChatHandler(chat ChatExecutor, prompts PromptBuilder, chatbotRepo ChatbotRepository) *ChatHandler {
	return &ChatHandler{chat: chat, prompts: prompts, chatbotRepo: chatbotRepo}
}

type ChatMessageItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessageItem `json:"messages"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type PromptResponse struct {
	Knowledge string `json:"knowledge"`
}

// Chat completes a conversation against the chatbot's knowledge base.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chatbotID := chi.URLParam(r, "id")
	if chatbotID == "" {
		api.Error(w, http.StatusBadRequest, "chatbot id is required")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		api.Error(w, http.StatusBadRequest, "messages are required")
		return
	}

	messages := make([]service.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = service.ChatMessage{Role: m.Role, Content: m.Content}
	}

	output, err := h.chat.Chat(r.Context(), service.ChatInput{
		TenantID:  tenantID,
		ChatbotID: chatbotID,
		Messages:  messages,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{Reply: output.Reply})
}

// ShowPrompt previews the aggregated knowledge block for a chatbot.
func (h *ChatHandler) ShowPrompt(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chatbotID := chi.URLParam(r, "id")
	if chatbotID == "" {
		api.Error(w, http.StatusBadRequest, "chatbot id is required")
		return
	}

	chatbot, err := h.chatbotRepo.GetByID(r.Context(), chatbotID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if chatbot.TenantID != tenantID {
		api.Error(w, http.StatusNotFound, "chatbot not found")
		return
	}

	knowledge, err := h.prompts.BuildKnowledgeBlock(r.Context(), chatbotID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, PromptResponse{Knowledge: knowledge})
}
