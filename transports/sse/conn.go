// Package sse adapts an HTTP response into a server-sent-events stream
// the broadcast hub can write to.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/thunderavi/scoreboard/api/feed"
)

// Conn is one open event-stream response. The owning handler must keep
// its goroutine alive until Done fires; closing happens through the
// hub, never by writing after Close.
type Conn struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher

	reqDone   <-chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn prepares the response for streaming and writes the SSE
// headers. The ResponseWriter must support flushing.
func NewConn(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Conn{
		w:       w,
		flusher: flusher,
		reqDone: r.Context().Done(),
		done:    make(chan struct{}),
	}, nil
}

// WriteFrame serializes the frame as one data event.
func (c *Conn) WriteFrame(frame feed.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed() {
		return fmt.Errorf("stream closed")
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	c.flusher.Flush()
	return nil
}

// WriteHeartbeat emits an SSE comment line as keep-alive.
func (c *Conn) WriteHeartbeat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed() {
		return fmt.Errorf("stream closed")
	}
	if _, err := fmt.Fprint(c.w, ": heartbeat\n\n"); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	c.flusher.Flush()
	return nil
}

// Closed reports whether the peer went away or Close was called.
func (c *Conn) Closed() bool {
	select {
	case <-c.reqDone:
		return true
	default:
	}
	select {
	case <-c.done:
		return true
	default:
	}
	return false
}

// Close releases the handler goroutine waiting on Done.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Done fires when the hub drops the connection.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
