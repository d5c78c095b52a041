package sse

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thunderavi/scoreboard/api/feed"
)

func newTestConn(t *testing.T) (*Conn, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/matches/match-1/stream", nil)
	conn, err := NewConn(rec, req)
	if err != nil {
		t.Fatalf("new conn: %v", err)
	}
	return conn, rec
}

func TestNewConnSetsStreamHeaders(t *testing.T) {
	t.Parallel()

	_, rec := newTestConn(t)
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("cache control %q", cc)
	}
}

func TestWriteFrameEmitsDataEvent(t *testing.T) {
	t.Parallel()

	conn, rec := newTestConn(t)
	frame := feed.Frame{Type: feed.FrameScoreUpdate, MatchID: "match-1"}
	if err := conn.WriteFrame(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("not a data event: %q", body)
	}

	var decoded feed.Frame
	payload := strings.TrimSuffix(strings.TrimPrefix(body, "data: "), "\n\n")
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.Type != feed.FrameScoreUpdate || decoded.MatchID != "match-1" {
		t.Fatalf("frame wrong: %+v", decoded)
	}
}

func TestWriteHeartbeatEmitsComment(t *testing.T) {
	t.Parallel()

	conn, rec := newTestConn(t)
	if err := conn.WriteHeartbeat(); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	if rec.Body.String() != ": heartbeat\n\n" {
		t.Fatalf("heartbeat %q", rec.Body.String())
	}
}

func TestCloseUnblocksAndRejectsWrites(t *testing.T) {
	t.Parallel()

	conn, _ := newTestConn(t)
	if conn.Closed() {
		t.Fatalf("fresh conn must be open")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !conn.Closed() {
		t.Fatalf("conn must report closed")
	}
	select {
	case <-conn.Done():
	default:
		t.Fatalf("done must fire after close")
	}
	if err := conn.WriteFrame(feed.Frame{Type: feed.FrameConnected}); err == nil {
		t.Fatalf("write after close must fail")
	}
	if err := conn.WriteHeartbeat(); err == nil {
		t.Fatalf("heartbeat after close must fail")
	}
	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type noFlushWriter struct{ http.ResponseWriter }

func TestNewConnRequiresFlusher(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	if _, err := NewConn(noFlushWriter{httptest.NewRecorder()}, req); err == nil {
		t.Fatalf("non-flushing writer must be rejected")
	}
}
