package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/forgeworks/agentdispatch/internal/middleware"
)

// MountRoutes attaches all routes to the router. The webhook route is
// HMAC-guarded; the inspection API is read-only.
func MountRoutes(r chi.Router, h *Handlers, webhookSecret string) {
	r.Get("/health", h.HandleHealth)

	r.With(middleware.WebhookHMAC(webhookSecret, middleware.GitHubSignatureHeader)).
		Post("/webhooks/github", h.HandleGitHubWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/agents", h.HandleListAgents)
		r.Get("/dispatches", h.HandleListDispatches)
	})
}
