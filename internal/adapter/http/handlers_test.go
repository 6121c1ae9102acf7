package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
	"github.com/forgeworks/agentdispatch/internal/port/dispatchstore"
)

type fakePipeline struct {
	events []*issue.Event
	result *dispatch.Result
}

func (f *fakePipeline) Process(_ context.Context, ev *issue.Event) *dispatch.Result {
	f.events = append(f.events, ev)
	if f.result != nil {
		return f.result
	}
	return &dispatch.Result{
		Status:      dispatch.StatusSuccess,
		IssueNumber: ev.Number,
		Repository:  ev.Repository,
	}
}

type fakeStore struct {
	page *dispatchstore.Page
	err  error

	gotCursor string
	gotLimit  int
}

func (f *fakeStore) Append(context.Context, *dispatchstore.Record) error { return nil }

func (f *fakeStore) ListRecent(_ context.Context, cursor string, limit int) (*dispatchstore.Page, error) {
	f.gotCursor = cursor
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &dispatchstore.Page{}, nil
}

const issuePayload = `{
	"action": "opened",
	"issue": {"number": 7, "title": "Crash on startup", "labels": [{"name": "bug"}]},
	"repository": {"full_name": "octo/widgets"},
	"sender": {"login": "alice"}
}`

func webhookRequest(body, eventType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(body))
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) dispatch.Result {
	t.Helper()
	var res dispatch.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res
}

func TestHandleGitHubWebhook(t *testing.T) {
	pipe := &fakePipeline{}
	h := &Handlers{Dispatch: pipe}

	rec := httptest.NewRecorder()
	h.HandleGitHubWebhook(rec, webhookRequest(issuePayload, "issues"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeResult(t, rec)
	if res.Status != dispatch.StatusSuccess || res.IssueNumber != 7 {
		t.Fatalf("result = %+v", res)
	}
	if len(pipe.events) != 1 {
		t.Fatalf("pipeline received %d events", len(pipe.events))
	}
	ev := pipe.events[0]
	if ev.Repository != "octo/widgets" || ev.DeliveryID != "delivery-1" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestHandleGitHubWebhook_NonIssuesEvent(t *testing.T) {
	pipe := &fakePipeline{}
	h := &Handlers{Dispatch: pipe}

	rec := httptest.NewRecorder()
	h.HandleGitHubWebhook(rec, webhookRequest(`{"zen":"keep it simple"}`, "ping"))

	// Acknowledged, never processed.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if res := decodeResult(t, rec); res.Status != dispatch.StatusIgnored {
		t.Fatalf("status = %q, want ignored", res.Status)
	}
	if len(pipe.events) != 0 {
		t.Fatal("non-issues event reached the pipeline")
	}
}

func TestHandleGitHubWebhook_MalformedPayload(t *testing.T) {
	pipe := &fakePipeline{}
	h := &Handlers{Dispatch: pipe}

	for _, body := range []string{"{not json", `{"action":"opened"}`} {
		rec := httptest.NewRecorder()
		h.HandleGitHubWebhook(rec, webhookRequest(body, "issues"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
		if res := decodeResult(t, rec); res.Status != dispatch.StatusError {
			t.Fatalf("body %q: status = %q, want error", body, res.Status)
		}
	}
	if len(pipe.events) != 0 {
		t.Fatal("malformed payload reached the pipeline")
	}
}

func TestHandleGitHubWebhook_DispatchFailureStaysHTTP200(t *testing.T) {
	pipe := &fakePipeline{result: &dispatch.Result{
		Status: dispatch.StatusFailed,
		Error:  "lambda invoke agent-runner: throttled",
	}}
	h := &Handlers{Dispatch: pipe}

	rec := httptest.NewRecorder()
	h.HandleGitHubWebhook(rec, webhookRequest(issuePayload, "issues"))

	// The delivery was understood; the failure lives in the body.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeResult(t, rec)
	if res.Status != dispatch.StatusFailed || res.Error == "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestHandleListAgents(t *testing.T) {
	h := &Handlers{Agents: assignment.Defaults()}

	rec := httptest.NewRecorder()
	h.HandleListAgents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Agents []assignment.Row `json:"agents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Agents) != len(assignment.Defaults().Roles()) {
		t.Fatalf("got %d agents", len(body.Agents))
	}
}

func TestHandleListDispatches(t *testing.T) {
	store := &fakeStore{page: &dispatchstore.Page{
		Records: []dispatchstore.Record{{ID: "r1", Status: "success"}},
		HasMore: true,
		Cursor:  "next",
	}}
	h := &Handlers{Store: store}

	rec := httptest.NewRecorder()
	h.HandleListDispatches(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dispatches?limit=10&cursor=abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.gotLimit != 10 || store.gotCursor != "abc" {
		t.Fatalf("limit=%d cursor=%q", store.gotLimit, store.gotCursor)
	}
	var page dispatchstore.Page
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if len(page.Records) != 1 || !page.HasMore {
		t.Fatalf("page = %+v", page)
	}
}

func TestHandleListDispatches_LimitValidation(t *testing.T) {
	h := &Handlers{Store: &fakeStore{}}

	for _, limit := range []string{"0", "201", "-5", "abc"} {
		rec := httptest.NewRecorder()
		h.HandleListDispatches(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dispatches?limit="+limit, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestHandleListDispatches_NoStore(t *testing.T) {
	h := &Handlers{}

	rec := httptest.NewRecorder()
	h.HandleListDispatches(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dispatches", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := &Handlers{}

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
