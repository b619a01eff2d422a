// Package client is a typed HTTP client for the VFS server API.
//
// Requests go through resty on top of a retryablehttp transport. Reads are
// retried on transient failures; mutations are sent once. A circuit breaker
// stops hammering a server that keeps failing, and 4xx answers do not count
// against it.
//
// Example Usage:
//
//	c := client.New(client.DefaultConfig("http://localhost:3001"))
//	if _, err := c.Login(ctx, "alice", "secret"); err != nil {
//		return err
//	}
//	res, err := c.Read(ctx, "/Documents/notes.txt")
package client
