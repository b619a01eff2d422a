package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/domain/vfs"
	"github.com/yasakei/xos/internal/shared/errs"
)

type testServer struct {
	t      *testing.T
	root   string
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	logger := zaptest.NewLogger(t)
	store := identity.NewStore(root, logger)
	builder := tree.NewBuilder(root, tree.Options{}, logger)
	files := vfs.NewService(root, store, builder, logger)

	h := NewHandlers(store, files, logger)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	router := gin.New()
	h.Register(router.Group("/api"))
	return &testServer{t: t, root: root, router: router}
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(username, password string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/users", gin.H{"userData": gin.H{"username": username, "password": password}})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/users/login", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "2024-05-01T12:00:00.000Z", body["timestamp"])
}

func TestStatusForKinds(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want int
	}{
		{errs.InvalidPath, http.StatusBadRequest},
		{errs.Unauthorized, http.StatusUnauthorized},
		{errs.AccessDenied, http.StatusForbidden},
		{errs.NotFound, http.StatusNotFound},
		{errs.Conflict, http.StatusConflict},
		{errs.DecryptionFailed, http.StatusUnprocessableEntity},
		{errs.IOError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/users", gin.H{"userData": gin.H{"username": "alice", "password": "secret123"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "User created successfully.", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "salt")
	assert.Nil(t, user["lastLogin"])

	w = s.do(http.MethodPost, "/api/users", gin.H{"userData": gin.H{"username": "alice", "password": "other"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode(t, w)["kind"])

	w = s.do(http.MethodGet, "/api/users/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])

	w = s.do(http.MethodPost, "/api/users/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/users/login", gin.H{"username": "bob", "password": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/users/login", gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotNil(t, body["user"].(map[string]any)["lastLogin"])

	w = s.do(http.MethodGet, "/api/users/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])

	w = s.do(http.MethodGet, "/api/user-profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "passwordHash")

	w = s.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0]["username"])

	w = s.do(http.MethodPost, "/api/users/logout", nil)
	assert.Equal(t, "Logged out successfully", decode(t, w)["message"])
	w = s.do(http.MethodPost, "/api/users/logout", nil)
	assert.Equal(t, "Already logged out", decode(t, w)["message"])

	w = s.do(http.MethodGet, "/api/users/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwitchUser(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")
	w := s.do(http.MethodPost, "/api/users", gin.H{"userData": gin.H{"username": "bob", "password": "hunter2"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/users/switch", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/users/switch", gin.H{"username": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Switched user successfully", decode(t, w)["message"])

	w = s.do(http.MethodGet, "/api/users/session", nil)
	assert.Equal(t, "bob", decode(t, w)["user"].(map[string]any)["username"])
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")

	tests := []struct {
		name   string
		method string
		target string
		body   any
	}{
		{"read without path", http.MethodGet, "/api/vfs/read", nil},
		{"read undefined", http.MethodGet, "/api/vfs/read?path=undefined", nil},
		{"write without content", http.MethodPost, "/api/vfs/write", gin.H{"filePath": "/a.txt"}},
		{"write without path", http.MethodPost, "/api/vfs/write", gin.H{"content": "x"}},
		{"upload without data", http.MethodPost, "/api/vfs/upload", gin.H{"filePath": "/a.png"}},
		{"create without type", http.MethodPost, "/api/vfs/create", gin.H{"path": "/a"}},
		{"create bad type", http.MethodPost, "/api/vfs/create", gin.H{"path": "/a", "type": "link"}},
		{"delete without path", http.MethodPost, "/api/vfs/delete", gin.H{}},
		{"rename without target", http.MethodPost, "/api/vfs/rename", gin.H{"oldPath": "/a"}},
		{"search without pattern", http.MethodGet, "/api/vfs/search", nil},
		{"create user without data", http.MethodPost, "/api/users", gin.H{}},
		{"login without password", http.MethodPost, "/api/users/login", gin.H{"username": "alice"}},
		{"update without updates", http.MethodPost, "/api/system/profile/update", gin.H{}},
		{"verify without password", http.MethodPost, "/api/system/verify-password", gin.H{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")

	w := s.do(http.MethodPost, "/api/vfs/write", gin.H{"filePath": "/notes.txt", "content": "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "File saved successfully.", decode(t, w)["message"])

	raw, err := os.ReadFile(filepath.Join(s.root, "home", "alice", "notes.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hello", "content is encrypted at rest")

	w = s.do(http.MethodGet, "/api/vfs/read?path=/notes.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", decode(t, w)["content"])

	w = s.do(http.MethodPost, "/api/vfs/write", gin.H{"filePath": "/empty.txt", "content": ""})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUploadReturnsRawBytes(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")

	w := s.do(http.MethodPost, "/api/vfs/upload", gin.H{"filePath": "/img.png", "base64Data": "data:image/png;base64,AAAA"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "File uploaded successfully.", body["message"])
	assert.Equal(t, "img.png", body["path"])

	w = s.do(http.MethodGet, "/api/vfs/read?path=/img.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0, 0, 0}, w.Body.Bytes())
}

func TestTreeAndMutations(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/vfs/create", gin.H{"path": "/Projects", "type": "directory"}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/vfs/create", gin.H{"path": "/Projects/plan.md", "type": "file"}).Code)

	w := s.do(http.MethodPost, "/api/vfs/rename", gin.H{"oldPath": "/Projects/plan.md", "newPath": "/Projects/roadmap.md"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rename successful", decode(t, w)["message"])

	w = s.do(http.MethodGet, "/api/vfs/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var root struct {
		Name     string      `json:"name"`
		Kind     string      `json:"kind"`
		Children []tree.Node `json:"children"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))
	assert.Equal(t, "Home", root.Name)
	assert.Equal(t, "directory", root.Kind)

	names := map[string]tree.Node{}
	for _, n := range root.Children {
		names[n.Name] = n
	}
	require.Contains(t, names, "Projects")
	require.Len(t, names["Projects"].Children, 1)
	assert.Equal(t, "roadmap.md", names["Projects"].Children[0].Name)
	assert.NotContains(t, names, ".wallpapers")

	w = s.do(http.MethodGet, "/api/vfs/stat?path=/Projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "directory", decode(t, w)["kind"])

	w = s.do(http.MethodGet, "/api/vfs/search?pattern=*.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"/Projects/roadmap.md"}, body["matches"])

	w = s.do(http.MethodGet, "/api/vfs/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["files"])

	w = s.do(http.MethodPost, "/api/vfs/delete", gin.H{"path": "/Projects"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Operation successful", decode(t, w)["message"])

	w = s.do(http.MethodGet, "/api/vfs/stat?path=/Projects", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContainmentOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")

	w := s.do(http.MethodGet, "/api/vfs/read?path=../../etc/passwd", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "access_denied", body["kind"])
	assert.NotContains(t, body["error"], s.root, "responses never carry disk paths")

	w = s.do(http.MethodPost, "/api/vfs/delete", gin.H{"path": "/"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVFSWithoutSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/vfs/tree", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["kind"])
}

func TestProfileUpdateAndVerify(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", "secret123")

	w := s.do(http.MethodPost, "/api/system/profile/update", gin.H{"updates": gin.H{"wallpaper": "/wallpapers/forest.jpg"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "User profile updated.", body["message"])
	assert.Equal(t, "/wallpapers/forest.jpg", body["userData"].(map[string]any)["wallpaper"])
	assert.NotContains(t, body["userData"], "passwordHash")

	w = s.do(http.MethodPost, "/api/system/verify-password", gin.H{"password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = s.do(http.MethodPost, "/api/system/verify-password", gin.H{"password": "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Incorrect password.", body["error"])
}

func TestStaticETag(t *testing.T) {
	s := newTestServer(t)
	png, err := base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "wallpapers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "wallpapers", "default.png"), png, 0o644))

	w := s.do(http.MethodGet, "/api/vfs/static/wallpapers/missing.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/vfs/static/wallpapers/default.png", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = s.do(http.MethodGet, "/api/vfs/static/system/users/alice.json", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
