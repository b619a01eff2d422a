// Package id generates the prefixed ULIDs used for traces, spans and change
// events.
//
// ULIDs sort by creation time, so ids in logs and in the change feed order
// the same way the operations happened. Ids minted by one generator within
// the same millisecond still increase.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes
const (
	TracePrefix = "trace"
	SpanPrefix  = "span"
	EventPrefix = "evt"
)

// EventID identifies a VFS change event
type EventID string

func (e EventID) String() string { return string(e) }

// Generator mints ULIDs from a monotonic entropy source
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator over r. Tests pass a fixed
// reader for reproducible ids.
func NewGeneratorWithEntropy(r io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(r, 0), now: time.Now}
}

// ULID returns the next ULID
func (g *Generator) ULID() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// WithPrefix returns prefix_ULID
func (g *Generator) WithPrefix(prefix string) string {
	return prefix + "_" + g.ULID().String()
}

var (
	defaultGen  *Generator
	defaultOnce sync.Once
)

func std() *Generator {
	defaultOnce.Do(func() { defaultGen = NewGenerator() })
	return defaultGen
}

// NewTraceID returns a fresh trace id
func NewTraceID() string { return std().WithPrefix(TracePrefix) }

// NewSpanID returns a fresh span id
func NewSpanID() string { return std().WithPrefix(SpanPrefix) }

// NewEventID returns a fresh change event id
func NewEventID() EventID { return EventID(std().WithPrefix(EventPrefix)) }

// Parse splits a prefixed id into its prefix and ULID
func Parse(s string) (string, ulid.ULID, error) {
	prefix, raw, ok := strings.Cut(s, "_")
	if !ok || prefix == "" {
		return "", ulid.ULID{}, fmt.Errorf("id %q has no prefix", s)
	}
	u, err := ulid.ParseStrict(raw)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("id %q: %w", s, err)
	}
	return prefix, u, nil
}

// Time returns the creation time encoded in a prefixed id
func Time(s string) (time.Time, error) {
	_, u, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
