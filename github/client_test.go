package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/issues"
	"github.com/lanceccraig/Tooling.DevOps/release"
	"github.com/lanceccraig/Tooling.DevOps/repo"
)

type staticToken struct {
	token string
	err   error
	calls atomic.Int32
}

func (s *staticToken) Token() (string, error) {
	s.calls.Add(1)
	return s.token, s.err
}

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *staticToken) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	tokens := &staticToken{token: "secret"}
	c := NewClient(repo.Info{Owner: "octo", Name: "hello"}, tokens,
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	return c, tokens
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestMilestonesPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/milestones", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultProductName, r.Header.Get("User-Agent"))
		assert.Equal(t, "all", r.URL.Query().Get("state"))

		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, []map[string]any{{"number": 7, "title": "1.0.0"}})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/octo/hello/milestones?page=2>; rel="next"`, r.Host))
		writeJSON(t, w, []map[string]any{{"number": 1, "title": "0.9.0"}})
	})
	c, tokens := newTestClient(t, mux)

	got, err := c.Milestones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []release.Milestone{{Number: 1, Title: "0.9.0"}, {Number: 7, Title: "1.0.0"}}, got)

	_, err = c.Milestones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokens.calls.Load())
}

func TestMilestonesRepositoryNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/milestones", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, map[string]any{"message": "Not Found"})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Milestones(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestMissingToken(t *testing.T) {
	c := NewClient(repo.Info{Owner: "octo", Name: "hello"}, &staticToken{err: errs.NotFound("no token")})

	_, err := c.Milestones(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("milestone"))
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		writeJSON(t, w, []map[string]any{
			{"number": 1, "title": "Foo", "labels": []map[string]any{{"name": "res: Completed"}, {"name": "type: Bug"}}},
			{"number": 2, "title": "Bump deps", "pull_request": map[string]any{"url": "https://example.com/pr/2"}},
			{"number": 3, "title": "Bare"},
		})
	})
	c, _ := newTestClient(t, mux)

	got, err := c.Issues(context.Background(), release.Milestone{Number: 7, Title: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, []issues.RawIssue{
		{Number: 1, Title: "Foo", Labels: []string{"res: Completed", "type: Bug"}},
		{Number: 3, Title: "Bare", Labels: []string{}},
	}, got)
}

func TestIssuesPaginates(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "7", r.URL.Query().Get("milestone"))

		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, []map[string]any{{"number": 9, "title": "Baz", "labels": []map[string]any{{"name": "type: Feature"}}}})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/octo/hello/issues?milestone=7&page=2>; rel="next"`, r.Host))
		writeJSON(t, w, []map[string]any{{"number": 4, "title": "Foo", "labels": []map[string]any{{"name": "type: Bug"}}}})
	})
	c, _ := newTestClient(t, mux)

	got, err := c.Issues(context.Background(), release.Milestone{Number: 7, Title: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, []issues.RawIssue{
		{Number: 4, Title: "Foo", Labels: []string{"type: Bug"}},
		{Number: 9, Title: "Baz", Labels: []string{"type: Feature"}},
	}, got)
	assert.Equal(t, int32(2), requests.Load())
}

func TestCreateRelease(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/octo/hello/releases", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1.0.0-preview.1", body["tag_name"])
		assert.Equal(t, "1.0.0-preview.1", body["name"])
		assert.Equal(t, "### Bugs\n- Foo (#1)\n", body["body"])
		assert.Equal(t, true, body["draft"])
		assert.Equal(t, true, body["prerelease"])

		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"id": 42, "name": "1.0.0-preview.1", "html_url": "https://github.com/octo/hello/releases/42"})
	})
	c, _ := newTestClient(t, mux)

	got, err := c.CreateRelease(context.Background(), release.NewRelease{
		Name:       "1.0.0-preview.1",
		Body:       "### Bugs\n- Foo (#1)\n",
		Draft:      true,
		Prerelease: true,
	})
	require.NoError(t, err)
	assert.Equal(t, release.Release{ID: 42, Name: "1.0.0-preview.1", URL: "https://github.com/octo/hello/releases/42"}, got)
}

func TestCreateReleaseValidation(t *testing.T) {
	c := NewClient(repo.Info{Owner: "octo", Name: "hello"}, &staticToken{token: "secret"})

	tests := []struct {
		name string
		rel  release.NewRelease
	}{
		{name: "empty name", rel: release.NewRelease{Body: "x"}},
		{name: "empty body", rel: release.NewRelease{Name: "1.0.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateRelease(context.Background(), tt.rel)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestUploadAsset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/octo/hello/releases/42/assets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bar 1.0.0.nupkg", r.URL.Query().Get("name"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		assert.Equal(t, int64(7), r.ContentLength)
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"id": 1, "name": "Bar 1.0.0.nupkg"})
	})
	c, _ := newTestClient(t, mux)

	err := c.UploadAsset(context.Background(), release.Release{ID: 42}, "Bar 1.0.0.nupkg", strings.NewReader("payload"), 7)
	require.NoError(t, err)
}

func TestUploadAssetSeparateEndpoint(t *testing.T) {
	var uploaded atomic.Bool
	uploads := http.NewServeMux()
	uploads.HandleFunc("POST /api/uploads/repos/octo/hello/releases/42/assets", func(w http.ResponseWriter, r *http.Request) {
		uploaded.Store(true)
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"id": 1, "name": "a.zip"})
	})
	uploadServer := httptest.NewServer(uploads)
	t.Cleanup(uploadServer.Close)

	apiServer := httptest.NewServer(http.NewServeMux())
	t.Cleanup(apiServer.Close)

	c := NewClient(repo.Info{Owner: "octo", Name: "hello"}, &staticToken{token: "secret"},
		WithBaseURL(apiServer.URL),
		WithUploadURL(uploadServer.URL+"/api/uploads"),
		WithHTTPClient(uploadServer.Client()))

	err := c.UploadAsset(context.Background(), release.Release{ID: 42}, "a.zip", strings.NewReader("a"), 1)
	require.NoError(t, err)
	assert.True(t, uploaded.Load())
}

func TestUploadAssetServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/octo/hello/releases/42/assets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(t, w, map[string]any{"message": "already_exists"})
	})
	c, _ := newTestClient(t, mux)

	err := c.UploadAsset(context.Background(), release.Release{ID: 42}, "a.zip", strings.NewReader("a"), 1)
	require.Error(t, err)
	assert.True(t, isStatus(err, http.StatusUnprocessableEntity))
}

func TestCloseMilestone(t *testing.T) {
	var state string
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /repos/octo/hello/milestones/7", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		state, _ = body["state"].(string)
		writeJSON(t, w, map[string]any{"number": 7, "state": "closed"})
	})
	c, _ := newTestClient(t, mux)

	require.NoError(t, c.CloseMilestone(context.Background(), release.Milestone{Number: 7}))
	assert.Equal(t, "closed", state)
}

func TestIsStatus(t *testing.T) {
	assert.False(t, isStatus(errors.New("boom"), http.StatusNotFound))
}
