package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"

	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/domain/vfs"
)

// Health is the liveness answer
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Message string                  `json:"message"`
	User    *identity.PublicProfile `json:"user"`
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/health", result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every account
func (c *Client) ListUsers(ctx context.Context) ([]identity.UserSummary, error) {
	var out []identity.UserSummary
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/users", result: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser registers an account
func (c *Client) CreateUser(ctx context.Context, username, password string) (*identity.PublicProfile, error) {
	var out userResponse
	body := map[string]any{"userData": identity.NewUser{Username: username, Password: password}}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/users", body: body, result: &out}); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login starts a session
func (c *Client) Login(ctx context.Context, username, password string) (*identity.PublicProfile, error) {
	var out userResponse
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/users/login", body: body, result: &out}); err != nil {
		return nil, err
	}
	return out.User, nil
}

// SwitchUser activates another account without a password
func (c *Client) SwitchUser(ctx context.Context, username string) (*identity.PublicProfile, error) {
	var out userResponse
	body := map[string]string{"username": username}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/users/switch", body: body, result: &out}); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout ends the session and returns the server message
func (c *Client) Logout(ctx context.Context) (string, error) {
	var out messageResponse
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/users/logout", result: &out}); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Session returns the active user, or nil when nobody is logged in
func (c *Client) Session(ctx context.Context) (*identity.PublicProfile, error) {
	var out userResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/users/session", result: &out}); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Tree returns the home directory tree
func (c *Client) Tree(ctx context.Context) (*tree.Node, error) {
	var out tree.Node
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/vfs/tree", result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Read fetches a file. Text comes back in Content; uploaded files come back
// as Data with their MIME type.
func (c *Client) Read(ctx context.Context, path string) (*vfs.ReadResult, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/api/vfs/read", query: map[string]string{"path": path}})
	if err != nil {
		return nil, err
	}

	ct := resp.Header().Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var text struct {
			Content *string `json:"content"`
		}
		if err := sonic.Unmarshal(resp.Body(), &text); err == nil && text.Content != nil {
			return &vfs.ReadResult{Content: *text.Content}, nil
		}
	}
	return &vfs.ReadResult{Data: resp.Body(), MimeType: ct}, nil
}

// Write stores text content
func (c *Client) Write(ctx context.Context, path, content string) error {
	body := map[string]string{"filePath": path, "content": content}
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/vfs/write", body: body})
	return err
}

// Upload stores data as a base64 data URI and returns the stored path
func (c *Client) Upload(ctx context.Context, path string, data []byte) (string, error) {
	var out struct {
		Path string `json:"path"`
	}
	body := map[string]string{"filePath": path, "base64Data": DataURI(data)}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/vfs/upload", body: body, result: &out}); err != nil {
		return "", err
	}
	return out.Path, nil
}

// DataURI encodes data with its sniffed MIME type
func DataURI(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return vfs.FormatDataURI(mime, data)
}

// Create makes an empty file or a directory
func (c *Client) Create(ctx context.Context, path string, kind tree.Kind) error {
	body := map[string]string{"path": path, "type": string(kind)}
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/vfs/create", body: body})
	return err
}

// Delete removes a file or directory tree
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/vfs/delete", body: map[string]string{"path": path}})
	return err
}

// Rename moves an entry
func (c *Client) Rename(ctx context.Context, oldPath, newPath string) error {
	body := map[string]string{"oldPath": oldPath, "newPath": newPath}
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/vfs/rename", body: body})
	return err
}

// Stat describes a single entry
func (c *Client) Stat(ctx context.Context, path string) (*vfs.Stat, error) {
	var out vfs.Stat
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/vfs/stat", query: map[string]string{"path": path}, result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search matches a glob against the home directory
func (c *Client) Search(ctx context.Context, pattern string) ([]string, error) {
	var out struct {
		Matches []string `json:"matches"`
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/vfs/search", query: map[string]string{"pattern": pattern}, result: &out}); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// Usage reports home directory usage
func (c *Client) Usage(ctx context.Context) (*vfs.Usage, error) {
	var out vfs.Usage
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/vfs/usage", result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
