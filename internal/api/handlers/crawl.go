package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/botforge-ai/botforge/internal/api"
	"github.com/botforge-ai/botforge/internal/api/middleware"
	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type CrawlStatusService interface {
	SetStatus(ctx context.Context, input service.SetStatusInput) (*domain.KnowledgeBaseURL, error)
}

type CrawlHandler struct {
	svc CrawlStatusService
}

func NewCrawlHandler(svc CrawlStatusService) *CrawlHandler {
	return &CrawlHandler{svc: svc}
}

type UpdateURLStatusRequest struct {
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// UpdateStatus applies a crawl transition to a single URL.
func (h *CrawlHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateURLStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.SetStatus(r.Context(), service.SetStatusInput{
		TenantID:     tenantID,
		URLID:        id,
		Status:       domain.CrawlStatus(req.Status),
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := URLResponse{
		ID:           u.ID,
		URL:          u.URL,
		Status:       string(u.Status),
		ErrorMessage: u.ErrorMessage,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
	if u.LastCrawled != nil {
		formatted := formatTime(*u.LastCrawled)
		resp.LastCrawled = &formatted
	}

	api.Success(w, http.StatusOK, resp)
}
