package vfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/shared/errs"
	"github.com/yasakei/xos/internal/shared/paths"
)

// MaxSearchResults caps the matches returned by Search
const MaxSearchResults = 1000

// Stat describes a single entry
type Stat struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Kind     tree.Kind `json:"kind"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Usage summarizes the storage used by a home directory
type Usage struct {
	Files int64 `json:"files"`
	Bytes int64 `json:"bytes"`
}

// ListTree returns the snapshot of the active user's home directory
func (s *Service) ListTree(ctx context.Context) (nodes []tree.Node, err error) {
	defer s.observe(ctx, "tree", time.Now(), &err)

	sc, err := s.activeScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.tree.Build(ctx, paths.Rel(s.root, sc.home))
}

// Stat describes the entry at path. Size is the size on disk, which for
// files is the ciphertext size.
func (s *Service) Stat(ctx context.Context, path string) (st *Stat, err error) {
	defer s.observe(ctx, "stat", time.Now(), &err)

	t, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Lstat(t.abs)
	if err != nil {
		return nil, errs.FromOS("vfs.stat", "file not found", err)
	}

	st = &Stat{
		Name:     info.Name(),
		Path:     t.client(),
		Kind:     tree.File,
		Size:     info.Size(),
		Modified: info.ModTime().UTC(),
	}
	if info.IsDir() {
		st.Kind = tree.Directory
		st.Size = 0
	}
	if t.isHome() {
		st.Name = "Home"
	}
	return st, nil
}

var errSearchLimit = errors.New("search result limit reached")

// Search returns the client paths in the home directory matching a
// doublestar pattern. A pattern without a slash is matched against base
// names. Hidden entries are skipped.
func (s *Service) Search(ctx context.Context, pattern string) (matches []string, err error) {
	defer s.observe(ctx, "search", time.Now(), &err)

	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" || !doublestar.ValidatePattern(pattern) {
		return nil, errs.New(errs.InvalidPath, "vfs.search", "invalid search pattern")
	}
	byName := !strings.Contains(pattern, "/")

	sc, err := s.activeScope(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	matches = []string{}

	conf := fastwalk.Config{Follow: false}
	werr := fastwalk.Walk(&conf, sc.home, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p == sc.home {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		rel := paths.Rel(sc.home, p)
		subject := rel
		if byName {
			subject = d.Name()
		}
		if ok, _ := doublestar.Match(pattern, subject); !ok {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if len(matches) >= MaxSearchResults {
			return errSearchLimit
		}
		matches = append(matches, "/"+rel)
		return nil
	})
	if werr != nil && !errors.Is(werr, errSearchLimit) && !errors.Is(werr, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.IOError, "vfs.search", "search failed", werr)
	}

	sort.Strings(matches)
	return matches, nil
}

// Usage counts the visible regular files in the home directory and their
// ciphertext size on disk. Hidden entries are skipped as in Search.
func (s *Service) Usage(ctx context.Context) (u *Usage, err error) {
	defer s.observe(ctx, "usage", time.Now(), &err)

	sc, err := s.activeScope(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	u = &Usage{}

	conf := fastwalk.Config{Follow: false}
	werr := fastwalk.Walk(&conf, sc.home, func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == sc.home {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		mu.Lock()
		u.Files++
		u.Bytes += info.Size()
		mu.Unlock()
		return nil
	})
	if werr != nil {
		if errors.Is(werr, fs.ErrNotExist) {
			return u, nil
		}
		return nil, errs.Wrap(errs.IOError, "vfs.usage", "failed to compute usage", werr)
	}
	return u, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}

