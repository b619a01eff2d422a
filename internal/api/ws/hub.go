package ws

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/domain/vfs"
)

// sendBuffer is the per-subscriber event backlog. A subscriber that falls
// further behind is dropped.
const sendBuffer = 64

// Observer receives change feed statistics
type Observer interface {
	IncWSConnections()
	DecWSConnections()
	RecordEvent(eventType string)
}

type subscriber struct {
	id   string
	user string
	send chan vfs.Event
}

// Hub fans VFS events out to subscribers of the same user. The subscriber
// set is owned by the run goroutine.
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan vfs.Event
	count      chan chan int
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once

	observer Observer
	logger   *zap.Logger
}

// NewHub starts a hub. Close stops it.
func NewHub(logger *zap.Logger, observer Observer) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan vfs.Event, sendBuffer),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		observer:   observer,
		logger:     logger.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	subs := make(map[string]*subscriber)

	drop := func(s *subscriber) {
		if _, ok := subs[s.id]; !ok {
			return
		}
		delete(subs, s.id)
		close(s.send)
		if h.observer != nil {
			h.observer.DecWSConnections()
		}
	}

	for {
		select {
		case s := <-h.register:
			subs[s.id] = s
			if h.observer != nil {
				h.observer.IncWSConnections()
			}
			h.logger.Debug("subscriber joined", zap.String("id", s.id), zap.String("user", s.user))

		case s := <-h.unregister:
			drop(s)

		case ev := <-h.broadcast:
			if h.observer != nil {
				h.observer.RecordEvent(string(ev.Type))
			}
			for _, s := range subs {
				if s.user != ev.User {
					continue
				}
				select {
				case s.send <- ev:
				default:
					h.logger.Warn("dropping slow subscriber", zap.String("id", s.id))
					drop(s)
				}
			}

		case reply := <-h.count:
			reply <- len(subs)

		case <-h.done:
			for _, s := range subs {
				drop(s)
			}
			return
		}
	}
}

// Publish queues ev for delivery. It never blocks the caller: when the
// queue is full the event is dropped.
func (h *Hub) Publish(ev vfs.Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
		h.logger.Warn("change feed queue full, dropping event", zap.String("type", string(ev.Type)))
	}
}

// subscribe registers a subscriber for user. The returned channel is closed
// when the subscriber is dropped or the hub stops.
func (h *Hub) subscribe(user string) (*subscriber, bool) {
	s := &subscriber{id: uuid.NewString(), user: user, send: make(chan vfs.Event, sendBuffer)}
	select {
	case h.register <- s:
		return s, true
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) unsubscribe(s *subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Subscribers returns the number of connected subscribers
func (h *Hub) Subscribers() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Close stops the hub and disconnects every subscriber
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}
