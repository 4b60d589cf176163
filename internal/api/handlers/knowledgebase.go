package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/botforge-ai/botforge/internal/api"
	"github.com/botforge-ai/botforge/internal/api/middleware"
	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type KnowledgeBaseService interface {
	Create(ctx context.Context, input service.CreateSourceInput) (*domain.KnowledgeSource, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.KnowledgeSource, error)
	ListByChatbot(ctx context.Context, tenantID, chatbotID string) ([]*domain.KnowledgeSource, error)
	ListSources(ctx context.Context, input service.ListSourcesInput) (*service.ListSourcesOutput, error)
	Update(ctx context.Context, input service.UpdateSourceInput) (*domain.KnowledgeSource, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type KnowledgeBaseHandler struct {
	svc KnowledgeBaseService
}

func NewKnowledgeBaseHandler(svc KnowledgeBaseService) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{svc: svc}
}

type URLItem struct {
	URL string `json:"url"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type CreateSourceRequest struct {
	ChatbotID string    `json:"chatbot_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status,omitempty"`
	Content   string    `json:"content,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	URLs      []URLItem `json:"urls,omitempty"`
	FAQs      []FAQItem `json:"faqs,omitempty"`
}

// UpdateSourceRequest carries a partial update; absent fields leave the
// stored value untouched, a present urls/faqs array (even empty) replaces
// the children of that kind.
type UpdateSourceRequest struct {
	Name     *string    `json:"name,omitempty"`
	Status   *string    `json:"status,omitempty"`
	Content  *string    `json:"content,omitempty"`
	FilePath *string    `json:"file_path,omitempty"`
	URLs     *[]URLItem `json:"urls,omitempty"`
	FAQs     *[]FAQItem `json:"faqs,omitempty"`
}

type URLResponse struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Status       string  `json:"status"`
	LastCrawled  *string `json:"last_crawled,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type FAQResponse struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

type SourceResponse struct {
	ID        string        `json:"id"`
	ChatbotID string        `json:"chatbot_id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Status    string        `json:"status"`
	Content   string        `json:"content,omitempty"`
	FilePath  string        `json:"file_path,omitempty"`
	URLs      []URLResponse `json:"urls,omitempty"`
	FAQs      []FAQResponse `json:"faqs,omitempty"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

// formatTime renders API timestamps in UTC regardless of the location the
// driver returned for a timestamptz.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func sourceToResponse(s *domain.KnowledgeSource) *SourceResponse {
	resp := &SourceResponse{
		ID:        s.ID,
		ChatbotID: s.ChatbotID,
		Name:      s.Name,
		Type:      string(s.Type),
		Status:    string(s.Status),
		Content:   s.Content,
		FilePath:  s.FilePath,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}

	for _, u := range s.URLs {
		item := URLResponse{
			ID:           u.ID,
			URL:          u.URL,
			Status:       string(u.Status),
			ErrorMessage: u.ErrorMessage,
			CreatedAt:    formatTime(u.CreatedAt),
			UpdatedAt:    formatTime(u.UpdatedAt),
		}
		if u.LastCrawled != nil {
			formatted := formatTime(*u.LastCrawled)
			item.LastCrawled = &formatted
		}
		resp.URLs = append(resp.URLs, item)
	}

	for _, f := range s.FAQs {
		resp.FAQs = append(resp.FAQs, FAQResponse{
			ID:        f.ID,
			Question:  f.Question,
			Answer:    f.Answer,
			CreatedAt: formatTime(f.CreatedAt),
		})
	}

	return resp
}

func (h *KnowledgeBaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ChatbotID == "" {
		api.Error(w, http.StatusBadRequest, "chatbot_id is required")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	sourceType := domain.SourceType(req.Type)
	if !domain.IsValidSourceType(sourceType) {
		api.Error(w, http.StatusBadRequest, "invalid source type")
		return
	}

	input := service.CreateSourceInput{
		TenantID:  tenantID,
		ChatbotID: req.ChatbotID,
		Name:      req.Name,
		Type:      sourceType,
		Status:    domain.SourceStatus(req.Status),
		Content:   req.Content,
		FilePath:  req.FilePath,
		URLs:      toURLInputs(req.URLs),
		FAQs:      toFAQInputs(req.FAQs),
	}

	source, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sourceToResponse(source))
}

func (h *KnowledgeBaseHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	source, err := h.svc.GetByID(r.Context(), tenantID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sourceToResponse(source))
}

type SourceListResponse struct {
	Items   []*SourceResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

// ListByChatbot returns a chatbot's sources in creation order. Without
// cursor/limit query params the full list is returned in one page.
func (h *KnowledgeBaseHandler) ListByChatbot(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chatbotID := chi.URLParam(r, "chatbotId")
	if chatbotID == "" {
		api.Error(w, http.StatusBadRequest, "chatbot id is required")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")

	if cursor == "" && limitStr == "" {
		sources, err := h.svc.ListByChatbot(r.Context(), tenantID, chatbotID)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		items := make([]*SourceResponse, len(sources))
		for i, s := range sources {
			items[i] = sourceToResponse(s)
		}
		api.Success(w, http.StatusOK, SourceListResponse{Items: items})
		return
	}

	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.ListSources(r.Context(), service.ListSourcesInput{
		TenantID:  tenantID,
		ChatbotID: chatbotID,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*SourceResponse, len(output.Items))
	for i, s := range output.Items {
		items[i] = sourceToResponse(s)
	}

	api.Success(w, http.StatusOK, SourceListResponse{
		Items:   items,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *KnowledgeBaseHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateSourceInput{
		TenantID: tenantID,
		SourceID: id,
		Name:     req.Name,
		Content:  req.Content,
		FilePath: req.FilePath,
	}
	if req.Status != nil {
		status := domain.SourceStatus(*req.Status)
		input.Status = &status
	}
	if req.URLs != nil {
		urls := toURLInputs(*req.URLs)
		input.URLs = &urls
	}
	if req.FAQs != nil {
		faqs := toFAQInputs(*req.FAQs)
		input.FAQs = &faqs
	}

	source, err := h.svc.Update(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sourceToResponse(source))
}

func (h *KnowledgeBaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.Delete(r.Context(), tenantID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id})
}

func toURLInputs(items []URLItem) []service.URLInput {
	if items == nil {
		return nil
	}
	urls := make([]service.URLInput, len(items))
	for i, item := range items {
		urls[i] = service.URLInput{URL: item.URL}
	}
	return urls
}

func toFAQInputs(items []FAQItem) []service.FAQInput {
	if items == nil {
		return nil
	}
	faqs := make([]service.FAQInput, len(items))
	for i, item := range items {
		faqs[i] = service.FAQInput{Question: item.Question, Answer: item.Answer}
	}
	return faqs
}
