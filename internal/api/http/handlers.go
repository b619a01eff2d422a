package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/domain/vfs"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	users  *identity.Store
	files  *vfs.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(users *identity.Store, files *vfs.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		users:  users,
		files:  files,
		logger: logger.Named("http"),
		now:    time.Now,
	}
}

// Register mounts every route on api, which is normally the /api group
func (h *Handlers) Register(api *gin.RouterGroup) {
	api.GET("/health", h.Health)

	fs := api.Group("/vfs")
	fs.GET("/tree", h.Tree)
	fs.GET("/read", h.ReadFile)
	fs.POST("/write", h.WriteFile)
	fs.POST("/upload", h.UploadFile)
	fs.POST("/create", h.CreateItem)
	fs.POST("/delete", h.DeleteItem)
	fs.POST("/rename", h.RenameItem)
	fs.GET("/stat", h.StatItem)
	fs.GET("/search", h.Search)
	fs.GET("/usage", h.Usage)
	fs.GET("/static/*path", h.Static)

	users := api.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.POST("/login", h.Login)
	users.POST("/switch", h.SwitchUser)
	users.POST("/logout", h.Logout)
	users.GET("/session", h.Session)
	users.GET("/current", h.CurrentUser)

	api.GET("/user-profile", h.CurrentUser)
	api.POST("/system/profile/update", h.UpdateProfile)
	api.POST("/system/verify-password", h.VerifyPassword)
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
