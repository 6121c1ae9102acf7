// Package http provides the HTTP handlers for webhook ingestion and the
// read-only inspection API.
package http

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
	"github.com/forgeworks/agentdispatch/internal/port/dispatchstore"
	"github.com/forgeworks/agentdispatch/internal/service"
)

const maxWebhookBody = 1 << 20 // 1 MB

// Pipeline is the dispatch pipeline consumed by the webhook handler.
type Pipeline interface {
	Process(ctx context.Context, ev *issue.Event) *dispatch.Result
}

// Handlers bundles the HTTP handler dependencies.
type Handlers struct {
	Dispatch Pipeline
	Agents   *assignment.Table
	Store    dispatchstore.Store
}

// HandleGitHubWebhook ingests a GitHub webhook delivery. Only "issues"
// events enter the pipeline; everything else is acknowledged as ignored.
// Dispatch failure is reported in the body, not the HTTP status.
func (h *Handlers) HandleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	if event := r.Header.Get("X-GitHub-Event"); event != "issues" {
		writeJSON(w, http.StatusOK, dispatch.Result{
			Status: dispatch.StatusIgnored,
			Reason: "unsupported event type " + strconv.Quote(event),
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	ev, err := service.ParseGitHubIssueEvent(body, r.Header.Get("X-GitHub-Delivery"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.Result{
			Status: dispatch.StatusError,
			Error:  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, h.Dispatch.Process(r.Context(), ev))
}

// HandleListAgents returns the assignment table.
func (h *Handlers) HandleListAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": h.Agents.Rows()})
}

// HandleListDispatches returns a page of the dispatch audit log.
func (h *Handlers) HandleListDispatches(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 200")
			return
		}
		limit = n
	}

	page, err := h.Store.ListRecent(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleHealth reports service liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
