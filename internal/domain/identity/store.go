package identity

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/domain/credentials"
	"github.com/yasakei/xos/internal/infrastructure/storage"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/errs"
	"github.com/yasakei/xos/internal/shared/paths"
	"github.com/yasakei/xos/internal/shared/utils"
)

// Login outcomes reported to the Recorder
const (
	LoginSuccess      = "success"
	LoginUnauthorized = "unauthorized"
	LoginNotFound     = "not_found"
)

// Recorder receives login outcomes
type Recorder interface {
	RecordLogin(outcome string)
}

// Store persists profiles and the active session pointer under a VFS root
type Store struct {
	root     string
	logger   *zap.Logger
	policy   *bluemonday.Policy
	recorder Recorder
	now      func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithRecorder reports login outcomes to r
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store for the absolute, clean VFS root
func NewStore(root string, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		root:   root,
		logger: logger,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers a new user and provisions their home directory
func (s *Store) CreateUser(ctx context.Context, nu NewUser) (*PublicProfile, error) {
	if err := utils.ValidateUsername(nu.Username); err != nil {
		return nil, errs.Wrap(errs.InvalidPath, "identity.create", err.Error(), err)
	}

	salt, hash := nu.Salt, nu.PasswordHash
	if nu.Password != "" {
		if err := utils.ValidatePassword(nu.Password); err != nil {
			return nil, errs.Wrap(errs.InvalidPath, "identity.create", err.Error(), err)
		}
		var err error
		salt, hash, err = credentials.HashPassword(nu.Password)
		if err != nil {
			return nil, errs.Wrap(errs.IOError, "identity.create", "failed to create user", err)
		}
	}
	if err := utils.ValidateHex(hash, "passwordHash"); err != nil {
		return nil, errs.Wrap(errs.InvalidPath, "identity.create", "invalid user data", err)
	}
	if err := utils.ValidateHex(salt, "salt"); err != nil {
		return nil, errs.Wrap(errs.InvalidPath, "identity.create", "invalid user data", err)
	}

	record, err := s.profilePath(nu.Username)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, nu.Username, record); err != nil {
		return nil, err
	}

	home, err := paths.Resolve(s.root, paths.HomeDir(nu.Username))
	if err != nil {
		return nil, err
	}
	for _, folder := range paths.HomeFolders {
		if err := storage.EnsureDir(filepath.Join(home, folder)); err != nil {
			return nil, err
		}
	}

	profile := &Profile{
		Username:     nu.Username,
		Salt:         salt,
		PasswordHash: strings.ToLower(hash),
		CreatedAt:    s.now().UTC(),
	}
	nu.ProfileFields.apply(profile, s.sanitize)

	if err := storage.CreateJSON(record, profile); err != nil {
		if errs.Is(err, errs.Conflict) {
			return nil, errs.Wrap(errs.Conflict, "identity.create", "user already exists", err)
		}
		return nil, err
	}

	s.copyWallpapers(ctx, filepath.Join(home, paths.PrivateWallpapers))

	s.logger.Info("user created", tracing.Field(ctx), zap.String("username", nu.Username))
	return profile.Public(), nil
}

// checkUnique fails with Conflict when record exists or another record
// claims username
func (s *Store) checkUnique(ctx context.Context, username, record string) error {
	exists, err := storage.Exists(record)
	if err != nil {
		return err
	}
	if exists {
		return errs.New(errs.Conflict, "identity.create", "user already exists")
	}

	for _, p := range s.readProfiles(ctx) {
		if p.Username == username {
			return errs.New(errs.Conflict, "identity.create", "user already exists")
		}
	}
	return nil
}

// copyWallpapers copies the shared wallpapers into a new home. Failures are
// logged only.
func (s *Store) copyWallpapers(ctx context.Context, dst string) {
	src, err := paths.Resolve(s.root, paths.Wallpapers)
	if err != nil {
		return
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to list shared wallpapers", tracing.Field(ctx), zap.Error(err))
		}
		return
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		if err := storage.CopyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			s.logger.Warn("failed to copy wallpaper",
				tracing.Field(ctx),
				zap.String("wallpaper", entry.Name()),
				zap.Error(err),
			)
		}
	}
}

// Login verifies password and makes username the active user
func (s *Store) Login(ctx context.Context, username, password string) (*PublicProfile, error) {
	profile, err := s.loadProfile(username)
	if err != nil {
		s.record(LoginNotFound)
		return nil, err
	}

	if !credentials.VerifyPassword(password, profile.Salt, profile.PasswordHash) {
		s.record(LoginUnauthorized)
		s.logger.Info("login rejected", tracing.Field(ctx), zap.String("username", username))
		return nil, errs.New(errs.Unauthorized, "identity.login", "incorrect password")
	}

	if err := s.activate(ctx, profile); err != nil {
		return nil, err
	}
	s.record(LoginSuccess)
	return profile.Public(), nil
}

// SwitchUser makes username the active user without a password
func (s *Store) SwitchUser(ctx context.Context, username string) (*PublicProfile, error) {
	profile, err := s.loadProfile(username)
	if err != nil {
		return nil, err
	}
	if err := s.activate(ctx, profile); err != nil {
		return nil, err
	}
	return profile.Public(), nil
}

func (s *Store) activate(ctx context.Context, profile *Profile) error {
	now := s.now().UTC()
	profile.LastLogin = &now

	record, err := s.profilePath(profile.Username)
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(record, profile); err != nil {
		return err
	}
	if err := s.writeSession(profile); err != nil {
		return err
	}

	s.logger.Info("session started", tracing.Field(ctx), zap.String("username", profile.Username))
	return nil
}

// CurrentSession returns the active user, if any. An unreadable session
// pointer is logged and reported as no session.
func (s *Store) CurrentSession(ctx context.Context) (*PublicProfile, bool) {
	profile, err := s.ActiveProfile(ctx)
	if err != nil {
		if !errs.Is(err, errs.NotFound) {
			s.logger.Warn("unreadable session pointer", tracing.Field(ctx), zap.Error(err))
		}
		return nil, false
	}
	return profile.Public(), true
}

// ActiveProfile returns the full record of the active user. It fails with
// NotFound when nobody is logged in.
func (s *Store) ActiveProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := storage.ReadJSON(s.sessionPath(), &profile); err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.Wrap(errs.NotFound, "identity.session", "no current user found", err)
		}
		return nil, err
	}
	if profile.Username == "" {
		return nil, errs.New(errs.IOError, "identity.session", "session record has no username")
	}
	return &profile, nil
}

// Logout ends the active session and reports whether one was active.
// Logging out twice is not an error.
func (s *Store) Logout(ctx context.Context) (bool, error) {
	err := os.Remove(s.sessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errs.FromOS("identity.logout", "failed to logout", err)
	}
	s.logger.Info("session ended", tracing.Field(ctx))
	return true, nil
}

// ListUsers returns a summary of every profile, sorted by username
func (s *Store) ListUsers(ctx context.Context) ([]UserSummary, error) {
	dir, err := paths.Resolve(s.root, paths.Users)
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureDir(dir); err != nil {
		return nil, err
	}

	profiles := s.readProfiles(ctx)
	users := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, p.Summary())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// VerifyActivePassword checks password against the active user
func (s *Store) VerifyActivePassword(ctx context.Context, password string) (bool, error) {
	profile, err := s.ActiveProfile(ctx)
	if err != nil {
		return false, err
	}
	if profile.Salt == "" || profile.PasswordHash == "" {
		return false, errs.New(errs.IOError, "identity.verify", "user profile is incomplete")
	}
	return credentials.VerifyPassword(password, profile.Salt, profile.PasswordHash), nil
}

// readProfiles reads every record under system/users, skipping unreadable
// ones
func (s *Store) readProfiles(ctx context.Context) []*Profile {
	dir, err := paths.Resolve(s.root, paths.Users)
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to list user records", tracing.Field(ctx), zap.Error(err))
		}
		return nil
	}

	profiles := make([]*Profile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var p Profile
		if err := storage.ReadJSON(filepath.Join(dir, entry.Name()), &p); err != nil {
			s.logger.Warn("skipping unreadable user record",
				tracing.Field(ctx),
				zap.String("record", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		profiles = append(profiles, &p)
	}
	return profiles
}

// loadProfile reads the record of username. Invalid usernames are NotFound.
func (s *Store) loadProfile(username string) (*Profile, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return nil, errs.Wrap(errs.NotFound, "identity.load", "user not found", err)
	}
	record, err := s.profilePath(username)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := storage.ReadJSON(record, &profile); err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.Wrap(errs.NotFound, "identity.load", "user not found", err)
		}
		return nil, err
	}
	if profile.Username == "" {
		profile.Username = username
	}
	return &profile, nil
}

func (s *Store) writeSession(profile *Profile) error {
	return storage.WriteJSON(s.sessionPath(), profile)
}

func (s *Store) profilePath(username string) (string, error) {
	return paths.Resolve(s.root, paths.ProfileFile(username))
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.root, paths.ActiveSession)
}

func (s *Store) sanitize(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(v))
}

func (s *Store) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(outcome)
	}
}
