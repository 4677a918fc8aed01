package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/grup/internal/config"
	"git.home.luguber.info/inful/grup/internal/document"
	gruperrors "git.home.luguber.info/inful/grup/internal/errors"
	"git.home.luguber.info/inful/grup/internal/metrics"
	"git.home.luguber.info/inful/grup/internal/render"
)

func newTestServer(t *testing.T) (*Server, *document.State) {
	t.Helper()
	cfg := config.DefaultConfig()
	state := document.NewState("doc.md", render.New("doc.md"))
	return New(cfg, state, metrics.NoopRecorder{}, nil), state
}

func TestRootServesCurrentSnapshot(t *testing.T) {
	srv, state := newTestServer(t)
	_, err := state.Commit([]byte("# Hi"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "1", rec.Header().Get(VersionHeader))
	assert.Contains(t, rec.Body.String(), "Hi")
	assert.Contains(t, rec.Body.String(), `data-version="1"`)
}

func TestRootRejectsOtherPathsAndMethods(t *testing.T) {
	srv, state := newTestServer(t)
	_, err := state.Commit([]byte("# Hi"))
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/docs/readme"},
		{http.MethodPost, "/"},
		{http.MethodPut, "/updates"},
		{http.MethodPost, "/style.css"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestUpdatesPolling(t *testing.T) {
	srv, state := newTestServer(t)
	const commits = 3
	for i := 0; i < commits; i++ {
		_, err := state.Commit([]byte(fmt.Sprintf("# Edit %d", i)))
		require.NoError(t, err)
	}

	for since := 0; since <= commits+1; since++ {
		rec := httptest.NewRecorder()
		target := fmt.Sprintf("/updates?since=%d", since)
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if since < commits {
			require.Equal(t, http.StatusOK, rec.Code, "since=%d", since)
			var resp updatesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, uint64(commits), resp.Version)
		} else {
			assert.Equal(t, http.StatusNotFound, rec.Code, "since=%d", since)
		}
	}
}

func TestUpdatesMalformedSinceTreatedAsZero(t *testing.T) {
	srv, state := newTestServer(t)
	_, err := state.Commit([]byte("# Hi"))
	require.NoError(t, err)

	for _, target := range []string{"/updates", "/updates?since=", "/updates?since=banana", "/updates?since=-1"} {
		t.Run(target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestUpdatesBeforeFirstCommit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/updates?since=0", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStylesheet(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".markdown-body")
}

func TestHealthz(t *testing.T) {
	srv, state := newTestServer(t)
	_, err := state.Commit([]byte("# Hi"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(1), resp.Version)

	state.CommitError(fmt.Errorf("open doc.md: no such file"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.NotEmpty(t, resp.LastError)
}

func TestStartAndStop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0 // ephemeral
	state := document.NewState("doc.md", render.New("doc.md"))
	_, err := state.Commit([]byte("# Hi"))
	require.NoError(t, err)
	srv := New(cfg, state, metrics.NoopRecorder{}, nil)

	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	defer func() { _ = srv.Stop(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Hi")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Stop(shutdownCtx))
}

func TestStartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	cfg := config.DefaultConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port
	state := document.NewState("doc.md", render.New("doc.md"))
	srv := New(cfg, state, metrics.NoopRecorder{}, nil)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.True(t, gruperrors.IsCategory(err, gruperrors.CategoryBind))
}
