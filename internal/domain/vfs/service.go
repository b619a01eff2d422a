package vfs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/domain/credentials"
	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/errs"
	"github.com/yasakei/xos/internal/shared/paths"
	"github.com/yasakei/xos/internal/shared/utils"
)

// Sessions provides the active user
type Sessions interface {
	ActiveProfile(ctx context.Context) (*identity.Profile, error)
}

// Notifier receives an event after every successful mutation
type Notifier interface {
	Publish(Event)
}

// Recorder receives the outcome of every operation
type Recorder interface {
	RecordOperation(op, outcome string, duration time.Duration)
}

// Service executes VFS operations for the active user
type Service struct {
	root     string
	sessions Sessions
	tree     *tree.Builder
	logger   *zap.Logger
	notifier Notifier
	recorder Recorder
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithNotifier publishes mutation events to n
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder reports operation outcomes to r
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a service over the absolute, clean VFS root. A nil
// builder uses the default tree limits.
func NewService(root string, sessions Sessions, builder *tree.Builder, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = tree.NewBuilder(root, tree.Options{}, logger)
	}
	s := &Service{
		root:     root,
		sessions: sessions,
		tree:     builder,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// scope is the active user's view of the VFS
type scope struct {
	user string
	key  credentials.Key
	home string
}

// target is a resolved client path
type target struct {
	*scope
	abs string
}

// client returns the path of t as reported to clients
func (t *target) client() string {
	return clientPath(t.home, t.abs)
}

func (t *target) isHome() bool {
	return t.abs == t.home
}

func clientPath(home, abs string) string {
	rel := paths.Rel(home, abs)
	if rel == "." {
		return "/"
	}
	return "/" + rel
}

func (s *Service) activeScope(ctx context.Context) (*scope, error) {
	profile, err := s.sessions.ActiveProfile(ctx)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.Wrap(errs.NotFound, "vfs.session", "no current user found", err)
		}
		return nil, err
	}
	if err := utils.ValidateUsername(profile.Username); err != nil {
		return nil, errs.Wrap(errs.AccessDenied, "vfs.session", "invalid session", err)
	}

	home, err := paths.Resolve(s.root, paths.HomeDir(profile.Username))
	if err != nil {
		return nil, err
	}
	return &scope{
		user: profile.Username,
		key:  credentials.DeriveContentKey(profile),
		home: home,
	}, nil
}

func (s *Service) resolve(ctx context.Context, clientPath string) (*target, error) {
	if err := utils.ValidatePath(clientPath, "path"); err != nil {
		return nil, errs.Wrap(errs.InvalidPath, "vfs.resolve", "file path is required", err)
	}
	sc, err := s.activeScope(ctx)
	if err != nil {
		return nil, err
	}
	abs, err := paths.Resolve(sc.home, clientPath)
	if err != nil {
		return nil, err
	}
	return &target{scope: sc, abs: abs}, nil
}

// observe reports the outcome of an operation. Call it deferred with the
// named error result.
func (s *Service) observe(ctx context.Context, op string, start time.Time, errp *error) {
	outcome := "ok"
	if err := *errp; err != nil {
		kind := errs.KindOf(err)
		outcome = kind.String()

		level := zap.DebugLevel
		if kind == errs.IOError || kind == errs.AccessDenied || kind == errs.DecryptionFailed {
			level = zap.WarnLevel
		}
		if ce := s.logger.Check(level, "vfs operation failed"); ce != nil {
			ce.Write(tracing.Field(ctx), zap.String("op", op), zap.String("kind", outcome), zap.Error(err))
		}
	}

	if s.recorder != nil {
		s.recorder.RecordOperation(op, outcome, time.Since(start))
	}
}

func (s *Service) publish(ev Event) {
	if s.notifier == nil {
		return
	}
	ev.Timestamp = s.now().UTC()
	s.notifier.Publish(ev)
}
