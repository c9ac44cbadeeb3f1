package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/job-tracker-web/internal/models"
	"github.com/justsurfingit/job-tracker-web/internal/session"
)

var alice = session.Session{IDToken: "tok-alice", Username: "alice@x.com"}

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeAPI struct {
	mu   sync.Mutex
	reqs []recorded
}

func (f *fakeAPI) requests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.reqs...)
}

// newFakeAPI starts a tracker API double that records requests and answers with respond.
func newFakeAPI(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *fakeAPI) {
	t.Helper()
	f := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.EscapedPath(), Auth: r.Header.Get("Authorization")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			assert.NoError(t, json.Unmarshal(b, &rec.Body))
		}
		f.mu.Lock()
		f.reqs = append(f.reqs, rec)
		f.mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, f
}

func TestTrackerClient_List(t *testing.T) {
	srv, reqs := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"application_id":"1","companyName":"Acme","position":"Engineer","status":"Applied","appliedDate":"2024-01-15","resumeFileUrl":"https://x/y.pdf","username":"alice@x.com"}]`))
	})
	c := NewTrackerClient(srv.URL+"/", srv.Client())

	apps, err := c.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Acme", apps[0].CompanyName)
	assert.Equal(t, models.StatusApplied, apps[0].Status)

	require.Len(t, reqs.requests(), 1)
	got := reqs.requests()[0]
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/fetchApplications/alice@x.com", got.Path)
	assert.Equal(t, "Bearer tok-alice", got.Auth)
}

func TestTrackerClient_ListEmpty(t *testing.T) {
	for _, body := range []string{"", "null", "[]"} {
		srv, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		c := NewTrackerClient(srv.URL, srv.Client())

		apps, err := c.List(context.Background(), alice)
		require.NoError(t, err, "body %q", body)
		assert.NotNil(t, apps)
		assert.Empty(t, apps)
	}
}

func TestTrackerClient_NoSessionMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()
	c := NewTrackerClient(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := c.List(ctx, session.Session{})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, c.Create(ctx, session.Session{Username: "alice@x.com"}, models.Application{}), ErrNoSession)
	assert.ErrorIs(t, c.Delete(ctx, session.Session{IDToken: "tok"}, "7"), ErrNoSession)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestTrackerClient_Create(t *testing.T) {
	srv, reqs := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Job application details saved successfully"}`))
	})
	c := NewTrackerClient(srv.URL, srv.Client())

	err := c.Create(context.Background(), alice, models.Application{
		ApplicationID:  "should-not-be-sent",
		Username:       "alice@x.com",
		CompanyName:    "Acme",
		Position:       "Engineer",
		JobDescription: "Build things",
		AppliedDate:    "2024-01-15",
		Status:         models.StatusApplied,
	})
	require.NoError(t, err)

	got := reqs.requests()[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/createApplication", got.Path)
	assert.Equal(t, "Acme", got.Body["companyName"])
	assert.NotContains(t, got.Body, "application_id")
	assert.NotContains(t, got.Body, "resumeFileUrl")
	assert.NotContains(t, got.Body, "pdfFile")
}

func TestTrackerClient_Update(t *testing.T) {
	srv, reqs := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	c := NewTrackerClient(srv.URL, srv.Client())

	assert.ErrorIs(t, c.Update(context.Background(), alice, models.Application{}), ErrMissingApplicationID)
	assert.Empty(t, reqs.requests())

	require.NoError(t, c.Update(context.Background(), alice, models.Application{
		ApplicationID: "42",
		ResumeFileURL: "https://x/y.pdf",
	}))
	got := reqs.requests()[0]
	assert.Equal(t, "/editApplication", got.Path)
	assert.Equal(t, "42", got.Body["application_id"])
	assert.Equal(t, "https://x/y.pdf", got.Body["resumeFileUrl"])
}

func TestTrackerClient_Delete(t *testing.T) {
	srv, reqs := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	c := NewTrackerClient(srv.URL, srv.Client())

	require.NoError(t, c.Delete(context.Background(), alice, "7"))
	got := reqs.requests()[0]
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/deleteApplication/7", got.Path)
	assert.Equal(t, "Bearer tok-alice", got.Auth)
}

func TestTrackerClient_CheckSimilarity(t *testing.T) {
	srv, reqs := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"similarity_score":0.4213,"resume_phrases":["go","aws"],"job_description_phrases":["go","kubernetes"]}`))
	})
	c := NewTrackerClient(srv.URL, srv.Client())

	res, err := c.CheckSimilarity(context.Background(), alice, "https://x/y.pdf", "42")
	require.NoError(t, err)
	assert.InDelta(t, 0.4213, res.SimilarityScore, 1e-9)
	assert.Equal(t, []string{"go", "aws"}, res.ResumePhrases)
	assert.Equal(t, []string{"go", "kubernetes"}, res.JobDescriptionPhrases)

	got := reqs.requests()[0]
	assert.Equal(t, "/findSimilarity", got.Path)
	assert.Equal(t, map[string]any{"resumeFileUrl": "https://x/y.pdf", "application_id": "42"}, got.Body)
}

func TestTrackerClient_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusNotFound, `{"message":"Application not found"}`, "Application not found"},
		{"error field", http.StatusInternalServerError, `{"error":"boom"}`, "boom"},
		{"both fields", http.StatusInternalServerError, `{"message":"Failed to fetch applications","error":"scan"}`, "Failed to fetch applications: scan"},
		{"plain text", http.StatusUnauthorized, `Unauthorized`, "Unauthorized"},
		{"empty", http.StatusForbidden, ``, "403 Forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			c := NewTrackerClient(srv.URL, srv.Client())

			err := c.Delete(context.Background(), alice, "7")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}
