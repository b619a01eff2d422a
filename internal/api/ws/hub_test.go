package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/domain/vfs"
	"github.com/yasakei/xos/internal/shared/errs"
)

type countingObserver struct {
	mu     sync.Mutex
	conns  int
	events []string
}

func (o *countingObserver) IncWSConnections() { o.mu.Lock(); o.conns++; o.mu.Unlock() }
func (o *countingObserver) DecWSConnections() { o.mu.Lock(); o.conns--; o.mu.Unlock() }
func (o *countingObserver) RecordEvent(t string) {
	o.mu.Lock()
	o.events = append(o.events, t)
	o.mu.Unlock()
}

func (o *countingObserver) connections() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conns
}

func receive(t *testing.T, ch <-chan vfs.Event) (vfs.Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return vfs.Event{}, false
	}
}

func TestHubDeliversToMatchingUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	obs := &countingObserver{}
	hub := NewHub(zaptest.NewLogger(t), obs)
	defer hub.Close()

	alice, ok := hub.subscribe("alice")
	require.True(t, ok)
	bob, ok := hub.subscribe("bob")
	require.True(t, ok)
	assert.Equal(t, 2, hub.Subscribers())

	hub.Publish(vfs.Event{Type: vfs.EventWrite, Path: "/notes.txt", User: "alice"})

	ev, ok := receive(t, alice.send)
	require.True(t, ok)
	assert.Equal(t, "/notes.txt", ev.Path)

	assert.Equal(t, 2, hub.Subscribers())
	select {
	case ev := <-bob.send:
		t.Fatalf("bob received alice's event: %+v", ev)
	default:
	}

	hub.unsubscribe(bob)
	assert.Equal(t, 1, hub.Subscribers())
	assert.Equal(t, 1, obs.connections())
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(zaptest.NewLogger(t), nil)
	defer hub.Close()

	slow, ok := hub.subscribe("alice")
	require.True(t, ok)

	for i := 0; i < sendBuffer+1; i++ {
		hub.Publish(vfs.Event{Type: vfs.EventWrite, User: "alice"})
		// Let the hub drain its queue so events reach the subscriber buffer.
		require.Eventually(t, func() bool { return len(hub.broadcast) == 0 }, time.Second, time.Millisecond)
	}

	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	drained := 0
	for range slow.send {
		drained++
	}
	assert.Equal(t, sendBuffer, drained)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	obs := &countingObserver{}
	hub := NewHub(zaptest.NewLogger(t), obs)
	sub, ok := hub.subscribe("alice")
	require.True(t, ok)

	hub.Close()
	hub.Close()

	_, open := <-sub.send
	assert.False(t, open)
	assert.Equal(t, 0, obs.connections())

	_, ok = hub.subscribe("alice")
	assert.False(t, ok)
	hub.Publish(vfs.Event{User: "alice"})
	assert.Equal(t, 0, hub.Subscribers())
}

type fixedSessions struct {
	profile *identity.Profile
}

func (f fixedSessions) ActiveProfile(context.Context) (*identity.Profile, error) {
	if f.profile == nil {
		return nil, errs.New(errs.NotFound, "test", "no current user found")
	}
	return f.profile, nil
}

func newFeedServer(t *testing.T, sessions Sessions) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	hub := NewHub(logger, nil)
	router := gin.New()
	router.GET("/api/vfs/events", NewHandler(hub, sessions, nil, logger).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func TestHandlerStreamsEvents(t *testing.T) {
	hub, srv := newFeedServer(t, fixedSessions{profile: &identity.Profile{Username: "alice"}})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/vfs/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Publish(vfs.Event{Type: vfs.EventCreate, Path: "/Projects", User: "alice"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev vfs.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, vfs.EventCreate, ev.Type)
	assert.Equal(t, "/Projects", ev.Path)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHandlerRequiresSession(t *testing.T) {
	_, srv := newFeedServer(t, fixedSessions{})

	resp, err := http.Get(srv.URL + "/api/vfs/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerRefusesFeedsAfterWait(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	hub := NewHub(logger, nil)
	handler := NewHandler(hub, fixedSessions{profile: &identity.Profile{Username: "alice"}}, nil, logger)
	router := gin.New()
	router.GET("/api/vfs/events", handler.HandleConnection)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/vfs/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Close()
	done := make(chan struct{})
	go func() {
		handler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the hub closed")
	}

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
