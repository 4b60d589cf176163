package server

import (
	"net/http"

	"github.com/botforge-ai/botforge/internal/api"
	"github.com/botforge-ai/botforge/internal/api/handlers"
	"github.com/botforge-ai/botforge/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator        middleware.AuthValidator
	KnowledgeBaseHandler *handlers.KnowledgeBaseHandler
	CrawlHandler         *handlers.CrawlHandler
	FileHandler          *handlers.FileHandler
	ChatbotHandler       *handlers.ChatbotHandler
	ChatHandler          *handlers.ChatHandler
	AuthHandler          *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/knowledge-bases", func(r chi.Router) {
			r.Post("/", cfg.KnowledgeBaseHandler.Create)
			r.Get("/chatbot/{chatbotId}", cfg.KnowledgeBaseHandler.ListByChatbot)
			r.Get("/{id}", cfg.KnowledgeBaseHandler.Get)
			r.Put("/{id}", cfg.KnowledgeBaseHandler.Update)
			r.Delete("/{id}", cfg.KnowledgeBaseHandler.Delete)

			r.Post("/{id}/file/upload-url", cfg.FileHandler.InitUpload)
			r.Post("/{id}/file/complete", cfg.FileHandler.CompleteUpload)
			r.Get("/{id}/file/download-url", cfg.FileHandler.DownloadURL)
		})

		r.Put("/knowledge-base-urls/{id}/status", cfg.CrawlHandler.UpdateStatus)

		r.Route("/chatbots", func(r chi.Router) {
			r.Post("/", cfg.ChatbotHandler.Create)
			r.Get("/", cfg.ChatbotHandler.List)
			r.Get("/{id}", cfg.ChatbotHandler.Get)
			r.Get("/{id}/prompt", cfg.ChatHandler.ShowPrompt)
			r.Post("/{id}/chat", cfg.ChatHandler.Chat)
		})
	})

	r.Post("/tenants", cfg.AuthHandler.CreateTenant)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
