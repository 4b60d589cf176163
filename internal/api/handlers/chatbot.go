package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/botforge-ai/botforge/internal/api"
	"github.com/botforge-ai/botforge/internal/api/middleware"
	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ChatbotRepository interface {
	Create(ctx context.Context, c *domain.Chatbot) error
	GetByID(ctx context.Context, id string) (*domain.Chatbot, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Chatbot, error)
}

type ChatbotHandler struct {
	repo ChatbotRepository
}

func NewChatbotHandler(repo ChatbotRepository) *ChatbotHandler {
	return &ChatbotHandler{repo: repo}
}

type CreateChatbotRequest struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Model        string `json:"model,omitempty"`
}

type ChatbotResponse struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Model        string `json:"model,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func chatbotToResponse(c *domain.Chatbot) *ChatbotResponse {
	return &ChatbotResponse{
		ID:           c.ID,
		TenantID:     c.TenantID,
		Name:         c.Name,
		Instructions: c.Instructions,
		Model:        c.Model,
		CreatedAt:    formatTime(c.CreatedAt),
		UpdatedAt:    formatTime(c.UpdatedAt),
	}
}

func (h *ChatbotHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateChatbotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	chatbot := &domain.Chatbot{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Name:         req.Name,
		Instructions: req.Instructions,
		Model:        req.Model,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := domain.ValidateChatbot(chatbot); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), chatbot); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, chatbotToResponse(chatbot))
}

func (h *ChatbotHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	chatbot, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	// Cross-tenant reads look like missing rows, not forbidden ones
	if chatbot.TenantID != tenantID {
		api.Error(w, http.StatusNotFound, "chatbot not found")
		return
	}

	api.Success(w, http.StatusOK, chatbotToResponse(chatbot))
}

func (h *ChatbotHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chatbots, err := h.repo.ListByTenant(r.Context(), tenantID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ChatbotResponse, len(chatbots))
	for i, c := range chatbots {
		items[i] = chatbotToResponse(c)
	}

	api.Success(w, http.StatusOK, items)
}
