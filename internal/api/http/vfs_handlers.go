package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/shared/utils"
)

// homeName labels the root of the tree response
const homeName = "Home"

// queryPath reads a required path query parameter. Clients that serialize
// a missing value send the literal "undefined".
func queryPath(c *gin.Context, key string) (string, bool) {
	p := c.Query(key)
	if p == "" || p == "undefined" {
		badRequest(c, "File path is required.")
		return "", false
	}
	return p, true
}

// Tree returns the active user's home directory tree
func (h *Handlers) Tree(c *gin.Context) {
	children, err := h.files.ListTree(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree.Node{Name: homeName, Kind: tree.Directory, Children: children})
}

// ReadFile returns decrypted text as JSON, or raw bytes for files stored as
// a data URI
func (h *Handlers) ReadFile(c *gin.Context) {
	p, ok := queryPath(c, "path")
	if !ok {
		return
	}

	res, err := h.files.Read(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if res.Binary() {
		c.Data(http.StatusOK, res.MimeType, res.Data)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": res.Content})
}

// WriteFile encrypts and stores text content
func (h *Handlers) WriteFile(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FilePath == "" || req.Content == nil {
		badRequest(c, "Invalid request")
		return
	}

	if err := h.files.Write(c.Request.Context(), req.FilePath, *req.Content); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File saved successfully."})
}

// UploadFile stores a base64 data URI
func (h *Handlers) UploadFile(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FilePath == "" || req.Base64Data == "" {
		badRequest(c, "filePath and base64Data are required.")
		return
	}

	stored, err := h.files.Upload(c.Request.Context(), req.FilePath, req.Base64Data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully.",
		"path":    strings.TrimPrefix(stored, "/"),
	})
}

// CreateItem creates an empty file or a directory
func (h *Handlers) CreateItem(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" || req.Type == "" {
		badRequest(c, "Path and type are required")
		return
	}

	if err := h.files.Create(c.Request.Context(), req.Path, tree.Kind(req.Type)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Operation successful"})
}

// DeleteItem removes a file or directory tree
func (h *Handlers) DeleteItem(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		badRequest(c, "Path is required")
		return
	}

	if err := h.files.Delete(c.Request.Context(), req.Path); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Operation successful"})
}

// RenameItem moves an entry within the home directory
func (h *Handlers) RenameItem(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OldPath == "" || req.NewPath == "" {
		badRequest(c, "oldPath and newPath are required")
		return
	}

	if err := h.files.Rename(c.Request.Context(), req.OldPath, req.NewPath); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rename successful"})
}

// StatItem describes a single entry
func (h *Handlers) StatItem(c *gin.Context) {
	p, ok := queryPath(c, "path")
	if !ok {
		return
	}

	st, err := h.files.Stat(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Search matches a glob against the home directory
func (h *Handlers) Search(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		badRequest(c, "Search pattern is required.")
		return
	}

	matches, err := h.files.Search(c.Request.Context(), pattern)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": pattern, "matches": matches})
}

// Usage reports file count and bytes used by the home directory
func (h *Handlers) Usage(c *gin.Context) {
	u, err := h.files.Usage(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Static serves shared wallpapers and icons with a content-derived ETag
func (h *Handlers) Static(c *gin.Context) {
	p := strings.TrimPrefix(c.Param("path"), "/")
	if p == "" {
		badRequest(c, "File path is required.")
		return
	}

	asset, err := h.files.Static(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	etag := utils.ETag(asset.Data)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age=3600")
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, asset.ContentType, asset.Data)
}
