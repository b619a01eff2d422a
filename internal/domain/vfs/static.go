package vfs

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"

	"github.com/yasakei/xos/internal/infrastructure/storage"
	"github.com/yasakei/xos/internal/shared/errs"
	"github.com/yasakei/xos/internal/shared/paths"
)

// Asset is a shared static file
type Asset struct {
	Name        string
	ContentType string
	Data        []byte
}

// Static returns a shared asset under wallpapers/ or icons/. Missing
// wallpapers fall back to the default wallpaper.
func (s *Service) Static(ctx context.Context, assetPath string) (a *Asset, err error) {
	defer s.observe(ctx, "static", time.Now(), &err)

	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(assetPath), "/"))
	switch {
	case strings.HasPrefix(clean, paths.Wallpapers+"/"):
		return s.wallpaper(path.Base(clean))
	case strings.HasPrefix(clean, paths.Icons+"/"):
		abs, err := paths.Resolve(s.root, clean)
		if err != nil {
			return nil, err
		}
		return loadAsset(abs)
	default:
		return nil, errs.New(errs.AccessDenied, "vfs.static", "access denied to non-static files")
	}
}

func (s *Service) wallpaper(name string) (*Asset, error) {
	abs, err := paths.Resolve(s.root, path.Join(paths.Wallpapers, name))
	if err != nil {
		return nil, err
	}
	a, err := loadAsset(abs)
	if err == nil || !errs.Is(err, errs.NotFound) {
		return a, err
	}

	fallback, rerr := paths.Resolve(s.root, paths.DefaultWallpaper)
	if rerr != nil {
		return nil, rerr
	}
	return loadAsset(fallback)
}

func loadAsset(abs string) (*Asset, error) {
	data, err := storage.ReadFile(abs)
	if err != nil {
		if errs.Is(err, errs.InvalidPath) {
			return nil, errs.Wrap(errs.NotFound, "vfs.static", "file not found", err)
		}
		return nil, err
	}
	return &Asset{
		Name:        filepath.Base(abs),
		ContentType: contentType(data),
		Data:        data,
	}, nil
}

// contentType sniffs the MIME type of data. Text gets the detected charset.
func contentType(data []byte) string {
	detected := mimetype.Detect(data)
	base, _, _ := strings.Cut(detected.String(), ";")
	if !strings.HasPrefix(base, "text/") {
		return detected.String()
	}

	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res.Charset == "" {
		return detected.String()
	}
	return base + "; charset=" + strings.ToLower(res.Charset)
}
