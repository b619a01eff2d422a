package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	apihttp "github.com/yasakei/xos/internal/api/http"
	"github.com/yasakei/xos/internal/api/middleware"
	"github.com/yasakei/xos/internal/api/ws"
	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/domain/vfs"
	"github.com/yasakei/xos/internal/infrastructure/config"
	"github.com/yasakei/xos/internal/infrastructure/logging"
	"github.com/yasakei/xos/internal/infrastructure/monitoring"
	"github.com/yasakei/xos/internal/infrastructure/storage"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/paths"
)

// EventsPath is the change feed route. It bypasses response compression.
const EventsPath = "/api/vfs/events"

// Server wraps the HTTP server and dependencies
type Server struct {
	config  *config.Config
	root    string
	logger  *logging.Logger
	router  *gin.Engine
	handler http.Handler
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	hub     *ws.Hub
	feed    *ws.Handler
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	root, err := paths.NewRoot(cfg.VFS.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid VFS root: %w", err)
	}

	logger.Info("Initializing XOS VFS server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("root", root),
	)
	bootstrap(root, logger.Logger)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("xos-vfs", logger.Logger)
	hub := ws.NewHub(logger.Logger, metrics)

	store := identity.NewStore(root, logger.Logger, identity.WithRecorder(metrics))
	builder := tree.NewBuilder(root, tree.Options{
		MaxEntries: cfg.VFS.MaxEntries,
		MaxDepth:   cfg.VFS.MaxDepth,
	}, logger.Logger)
	files := vfs.NewService(root, store, builder, logger.Logger,
		vfs.WithNotifier(hub),
		vfs.WithRecorder(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))

		if g := cfg.RateLimit.GlobalRPS; g > 0 {
			router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{RequestsPerSecond: g, Burst: 2 * g}))
		}
	}
	router.Use(middleware.BodyLimit(cfg.Server.BodyLimit()))

	apihttp.NewHandlers(store, files, logger.Logger).Register(router.Group("/api"))
	feed := ws.NewHandler(hub, store, originChecker(cfg.CORS.Origins), logger.Logger)
	router.GET(EventsPath, feed.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		config:  cfg,
		root:    root,
		logger:  logger,
		router:  router,
		handler: compress(router),
		metrics: metrics,
		tracer:  tracer,
		hub:     hub,
		feed:    feed,
	}, nil
}

// compress gzips responses for clients that accept it, except the change
// feed, which hijacks the connection.
func compress(router http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == EventsPath {
			router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// originChecker restricts change feed upgrades to the configured CORS
// origins. Nil accepts every origin.
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// bootstrap creates the standard directories. Failures are logged.
func bootstrap(root string, logger *zap.Logger) {
	for _, dir := range paths.StandardDirectories() {
		abs, err := paths.Resolve(root, dir)
		if err == nil {
			err = storage.EnsureDir(abs)
		}
		if err != nil {
			logger.Warn("Failed to create standard directory", zap.String("dir", dir), zap.Error(err))
		}
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Root returns the absolute VFS root
func (s *Server) Root() string {
	return s.root
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if max := s.config.Server.MaxConnections; max > 0 {
		ln = netutil.LimitListener(ln, max)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	<-errCh
	return nil
}

// Close releases background resources. Open change feeds are closed and
// released before the tracer stops.
func (s *Server) Close() error {
	s.hub.Close()
	s.feed.Wait()
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
