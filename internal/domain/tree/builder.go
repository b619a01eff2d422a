// Package tree builds directory snapshots of the VFS.
package tree

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/paths"
)

// Defaults
const (
	DefaultMaxEntries = 1000
	DefaultMaxDepth   = 5
)

// Options configure a Builder
type Options struct {
	// MaxEntries caps the entries read from a single directory
	MaxEntries int
	// MaxDepth is the deepest directory, in segments from the VFS root, whose
	// children are listed
	MaxDepth int
}

// Builder materializes directory trees under a VFS root
type Builder struct {
	root   string
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a builder for root. Zero options take the defaults.
func NewBuilder(root string, opts Options, logger *zap.Logger) *Builder {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{root: root, opts: opts, logger: logger}
}

// Build returns the snapshot of relativeDir. Only a containment failure is
// returned as an error; unreadable directories are listed as empty.
func (b *Builder) Build(ctx context.Context, relativeDir string) ([]Node, error) {
	abs, err := paths.Resolve(b.root, relativeDir)
	if err != nil {
		return nil, err
	}

	w := &walker{
		Builder:  b,
		ctx:      ctx,
		collator: collate.New(language.English),
	}
	return w.list(abs), nil
}

// walker carries the per-build collator, which is not safe for concurrent use
type walker struct {
	*Builder
	ctx      context.Context
	collator *collate.Collator
}

func (w *walker) list(dir string) []Node {
	entries, err := w.readDir(dir)
	if err != nil {
		w.logger.Warn("failed to read directory",
			tracing.Field(w.ctx),
			zap.String("dir", paths.Rel(w.root, dir)),
			zap.Error(err),
		)
		return []Node{}
	}

	nodes := make([]Node, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if hidden(name) {
			continue
		}

		if !entry.IsDir() {
			nodes = append(nodes, Node{Name: name, Kind: File})
			continue
		}

		child := filepath.Join(dir, name)
		node := Node{Name: name, Kind: Directory, Children: []Node{}}
		if w.depth(child) <= w.opts.MaxDepth {
			node.Children = w.list(child)
		}
		nodes = append(nodes, node)
	}

	w.sort(nodes)
	return nodes
}

func (w *walker) readDir(dir string) ([]os.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(w.opts.MaxEntries)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if len(entries) == w.opts.MaxEntries {
		if more, _ := f.ReadDir(1); len(more) > 0 {
			w.logger.Warn("directory entry limit reached, listing truncated",
				tracing.Field(w.ctx),
				zap.String("dir", paths.Rel(w.root, dir)),
				zap.Int("limit", w.opts.MaxEntries),
			)
		}
	}
	return entries, nil
}

// depth counts the segments of abs relative to the VFS root
func (w *walker) depth(abs string) int {
	rel := paths.Rel(w.root, abs)
	if rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func (w *walker) sort(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return w.collator.CompareString(a.Name, b.Name) < 0
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
