package vfs

import (
	"time"

	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/shared/id"
)

// EventType names a mutation
type EventType string

const (
	EventWrite  EventType = "write"
	EventUpload EventType = "upload"
	EventCreate EventType = "create"
	EventDelete EventType = "delete"
	EventRename EventType = "rename"
)

// Event describes a successful mutation. Paths are client paths.
type Event struct {
	ID        id.EventID `json:"id"`
	Type      EventType  `json:"type"`
	Path      string     `json:"path"`
	OldPath   string     `json:"oldPath,omitempty"`
	Kind      tree.Kind  `json:"kind,omitempty"`
	User      string     `json:"user"`
	Timestamp time.Time  `json:"timestamp"`
}

func newEvent(typ EventType, t *target, kind tree.Kind) Event {
	return Event{
		ID:   id.NewEventID(),
		Type: typ,
		Path: t.client(),
		Kind: kind,
		User: t.user,
	}
}
