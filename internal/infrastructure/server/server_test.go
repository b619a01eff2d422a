package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yasakei/xos/internal/infrastructure/config"
	"github.com/yasakei/xos/internal/infrastructure/logging"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/paths"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.VFS.Root = t.TempDir()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.ShutdownTimeout = config.Duration(2 * time.Second)
	cfg.Logging.Development = true

	srv, err := NewServer(cfg, &logging.Logger{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestNewServerBootstrapsLayout(t *testing.T) {
	srv := newTestServer(t)

	for _, dir := range paths.StandardDirectories() {
		info, err := os.Stat(filepath.Join(srv.Root(), dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = "not-a-port"
	_, err := NewServer(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"session", http.MethodGet, "/api/users/session", http.StatusOK},
		{"users", http.MethodGet, "/api/users", http.StatusOK},
		{"tree without session", http.MethodGet, "/api/vfs/tree", http.StatusNotFound},
		{"events without session", http.MethodGet, EventsPath, http.StatusNotFound},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"unknown", http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMetricsExposeRequests(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `xos_http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}

func TestCompression(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCloseWithOpenChangeFeed(t *testing.T) {
	var recovered bytes.Buffer
	prev := gin.DefaultErrorWriter
	gin.DefaultErrorWriter = &recovered
	t.Cleanup(func() { gin.DefaultErrorWriter = prev })

	srv := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	post := func(path, body string) int {
		resp, err := http.Post(base+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusCreated, post("/api/users", `{"userData":{"username":"alice","password":"hunter22"}}`))
	require.Equal(t, http.StatusOK, post("/api/users/login", `{"username":"alice","password":"hunter22"}`))

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+EventsPath, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.NoError(t, srv.Close())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	srv.tracer.Submit(&tracing.Span{Name: "late"})
	assert.NotContains(t, recovered.String(), "panic")
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker(nil))

	check := originChecker([]string{"https://desk.example.com/"})
	req := httptest.NewRequest(http.MethodGet, EventsPath, nil)
	assert.True(t, check(req), "same-origin requests carry no Origin header")

	req.Header.Set("Origin", "https://desk.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://"+strings.Repeat("x", 3)+".example.com")
	assert.False(t, check(req))
}
