// Package ws streams VFS change events over WebSocket.
//
// The Hub implements vfs.Notifier. Each connection subscribes for the user
// that was active when it connected and receives that user's events as JSON:
//
//	{"id":"evt_...","type":"write","path":"/notes.txt","kind":"file","user":"alice","timestamp":"..."}
//
// Client messages are ignored. Slow subscribers are disconnected rather than
// allowed to stall the feed.
//
// Example Usage:
//
//	hub := ws.NewHub(logger, metrics)
//	defer hub.Close()
//	files := vfs.NewService(root, store, builder, logger, vfs.WithNotifier(hub))
//	router.GET("/api/vfs/events", ws.NewHandler(hub, store, nil, logger).HandleConnection)
package ws
