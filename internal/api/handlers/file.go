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

type FileUploadService interface {
	InitUpload(ctx context.Context, input service.InitFileUploadInput) (*service.InitFileUploadResult, error)
	CompleteUpload(ctx context.Context, tenantID, sourceID string) (*domain.KnowledgeSource, error)
	GetDownloadURL(ctx context.Context, tenantID, sourceID string) (string, error)
}

type FileHandler struct {
	svc FileUploadService
}

func NewFileHandler(svc FileUploadService) *FileHandler {
	return &FileHandler{svc: svc}
}

type InitUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type InitUploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// InitUpload issues a presigned PUT URL for a file source.
func (h *FileHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
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

	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FileName == "" {
		api.Error(w, http.StatusBadRequest, "file_name is required")
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	result, err := h.svc.InitUpload(r.Context(), service.InitFileUploadInput{
		TenantID:    tenantID,
		SourceID:    id,
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InitUploadResponse{
		UploadURL: result.UploadURL,
		Key:       result.Key,
	})
}

// CompleteUpload verifies the object landed and activates the source.
func (h *FileHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
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

	source, err := h.svc.CompleteUpload(r.Context(), tenantID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sourceToResponse(source))
}

// DownloadURL issues a presigned GET URL for a file source's object.
func (h *FileHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
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

	url, err := h.svc.GetDownloadURL(r.Context(), tenantID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{DownloadURL: url})
}
