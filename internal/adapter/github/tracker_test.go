package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T, handler http.Handler) *Tracker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	// go-github requires the trailing slash on BaseURL.
	trk, err := NewTrackerWithHTTPClient(srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	return trk
}

func TestAddComment(t *testing.T) {
	var gotPath, gotBody string
	trk := newTestTracker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path

		var payload struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode comment body: %v", err)
		}
		gotBody = payload.Body

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))

	err := trk.AddComment(context.Background(), "octo/widgets", 42, "assigned to developer")
	require.NoError(t, err)
	assert.Equal(t, "POST /repos/octo/widgets/issues/42/comments", gotPath)
	assert.Equal(t, "assigned to developer", gotBody)
}

func TestAddLabels(t *testing.T) {
	var gotPath string
	var gotLabels []string
	trk := newTestTracker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotLabels); err != nil {
			t.Errorf("decode labels: %v", err)
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	err := trk.AddLabels(context.Background(), "octo/widgets", 42, []string{"agent-assigned", "agent:developer"})
	require.NoError(t, err)
	assert.Equal(t, "POST /repos/octo/widgets/issues/42/labels", gotPath)
	assert.Equal(t, []string{"agent-assigned", "agent:developer"}, gotLabels)
}

func TestAddComment_APIError(t *testing.T) {
	trk := newTestTracker(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))

	err := trk.AddComment(context.Background(), "octo/widgets", 42, "hi")
	assert.Error(t, err)
}

func TestInvalidRepoRef(t *testing.T) {
	trk := newTestTracker(t, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))

	assert.Error(t, trk.AddComment(context.Background(), "noslash", 1, "hi"))
	assert.Error(t, trk.AddLabels(context.Background(), "a/b/c", 1, []string{"x"}))
}
