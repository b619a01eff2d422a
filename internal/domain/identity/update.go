package identity

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/infrastructure/storage"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/errs"
	"github.com/yasakei/xos/internal/shared/paths"
	"github.com/yasakei/xos/internal/shared/utils"
)

// UpdateProfile merges patch into the active user's profile and writes the
// result to both the profile record and the session pointer.
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) (*PublicProfile, error) {
	active, err := s.ActiveProfile(ctx)
	if err != nil {
		return nil, err
	}

	// The per-user record is authoritative; the session copy only stands in
	// when the record is missing.
	profile, err := s.loadProfile(active.Username)
	if err != nil {
		if !errs.Is(err, errs.NotFound) {
			return nil, err
		}
		profile = active
	}

	if patch.WallpaperToRemove != "" {
		s.removeWallpaper(ctx, profile.Username, patch.WallpaperToRemove)
	}
	if patch.ThemeToRemove != "" {
		s.removeTheme(ctx, patch.ThemeToRemove)
	}

	patch.ProfileFields.apply(profile, s.sanitize)

	record, err := s.profilePath(profile.Username)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteJSON(record, profile); err != nil {
		return nil, err
	}
	if err := s.writeSession(profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", tracing.Field(ctx), zap.String("username", profile.Username))
	return profile.Public(), nil
}

// removeWallpaper deletes a home-relative wallpaper file. Failures are
// logged only.
func (s *Store) removeWallpaper(ctx context.Context, username, wallpaper string) {
	home, err := paths.Resolve(s.root, paths.HomeDir(username))
	if err != nil {
		return
	}
	target, err := paths.Resolve(home, wallpaper)
	if err != nil || target == home {
		s.logger.Warn("rejected wallpaper removal", tracing.Field(ctx), zap.Error(err))
		return
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove wallpaper", tracing.Field(ctx), zap.Error(err))
	}
}

// removeTheme deletes an installed theme file. Failures are logged only.
func (s *Store) removeTheme(ctx context.Context, id string) {
	if err := utils.ValidateID(id, "theme", true); err != nil {
		s.logger.Warn("ignoring invalid theme id", tracing.Field(ctx), zap.Error(err))
		return
	}
	target, err := paths.Resolve(s.root, paths.ThemeFile(id))
	if err != nil {
		return
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove theme", tracing.Field(ctx), zap.String("theme", id), zap.Error(err))
	}
}
