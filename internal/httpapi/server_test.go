package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thunderavi/scoreboard/api/feed"
	"github.com/thunderavi/scoreboard/internal/commentary"
	"github.com/thunderavi/scoreboard/internal/engine"
	"github.com/thunderavi/scoreboard/internal/hub"
	"github.com/thunderavi/scoreboard/internal/service"
	"github.com/thunderavi/scoreboard/internal/storage"
)

type testServer struct {
	srv *httptest.Server
	svc *service.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "scoreboard.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.DiscardHandler)
	h := hub.New(logger)
	gen := commentary.NewGenerator(nil, commentary.WithSelector(func(int) int { return 0 }))
	svc, err := service.New(store, h, gen, logger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	api, err := New(svc, h, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, svc: svc}
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, raw
}

func createMatchBody() map[string]any {
	return map[string]any{
		"team1Id": "team-a",
		"team2Id": "team-b",
		"toss": map[string]any{
			"winnerId": "team-a",
			"call":     "heads",
			"choice":   "batting",
		},
	}
}

func (ts *testServer) createMatch(t *testing.T) string {
	t.Helper()
	resp, raw := ts.do(t, http.MethodPost, "/api/matches", "user-1", createMatchBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create match status %d: %s", resp.StatusCode, raw)
	}
	var m engine.Match
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode match: %v", err)
	}
	return m.ID
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, raw := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "ok") {
		t.Fatalf("health %d: %s", resp.StatusCode, raw)
	}
}

func TestCreateMatchEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/matches", "", createMatchBody())
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous create status %d, want 401", resp.StatusCode)
	}

	resp, raw := ts.do(t, http.MethodPost, "/api/matches", "user-1", map[string]any{"team1Id": "team-a"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid body status %d: %s", resp.StatusCode, raw)
	}

	resp, raw = ts.do(t, http.MethodPost, "/api/matches", "user-1", createMatchBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", resp.StatusCode, raw)
	}
	var m engine.Match
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Status != engine.StatusSetup || m.TotalOvers != 20 || m.BattingFirstID != "team-a" {
		t.Fatalf("match wrong: %+v", m)
	}
}

func TestGetMatchIsPublic(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	id := ts.createMatch(t)

	// No identity header needed on the read path.
	resp, raw := ts.do(t, http.MethodGet, "/api/matches/"+id, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status %d: %s", resp.StatusCode, raw)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/matches/missing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing match status %d, want 404", resp.StatusCode)
	}
}

func TestScoringFlowEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	id := ts.createMatch(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/matches/"+id+"/batter", "user-1",
		map[string]any{"batterId": "bat-1", "name": "Kohli"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select batter status %d: %s", resp.StatusCode, raw)
	}

	resp, raw = ts.do(t, http.MethodPost, "/api/matches/"+id+"/runs", "user-1", map[string]any{"runs": 6})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("score runs status %d: %s", resp.StatusCode, raw)
	}
	var out scoreResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Match.Scores[0].Runs != 6 || out.Advice.EndInnings {
		t.Fatalf("score response wrong: %+v", out)
	}

	// Out-of-range runs die at the schema.
	resp, _ = ts.do(t, http.MethodPost, "/api/matches/"+id+"/runs", "user-1", map[string]any{"runs": 7})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("runs=7 status %d, want 400", resp.StatusCode)
	}

	// Foreign scorers read not-found.
	resp, _ = ts.do(t, http.MethodPost, "/api/matches/"+id+"/runs", "intruder", map[string]any{"runs": 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign scorer status %d, want 404", resp.StatusCode)
	}

	resp, raw = ts.do(t, http.MethodPost, "/api/matches/"+id+"/extras", "user-1",
		map[string]any{"extraType": "wide"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extra status %d: %s", resp.StatusCode, raw)
	}

	resp, raw = ts.do(t, http.MethodPost, "/api/matches/"+id+"/wicket", "user-1",
		map[string]any{"dismissalType": "bowled"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wicket status %d: %s", resp.StatusCode, raw)
	}

	// No batter at the crease now.
	resp, _ = ts.do(t, http.MethodPost, "/api/matches/"+id+"/runs", "user-1", map[string]any{"runs": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("no-batter status %d, want 400", resp.StatusCode)
	}
}

func TestEndInningsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	id := ts.createMatch(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/matches/"+id+"/end-innings", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end innings status %d: %s", resp.StatusCode, raw)
	}
	var out endInningsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Transition == nil || out.Transition.Target != 1 {
		t.Fatalf("transition wrong: %+v", out)
	}

	resp, raw = ts.do(t, http.MethodPost, "/api/matches/"+id+"/end-innings", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final end status %d: %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Result == nil || out.Result.Text != "Match Tied!" {
		t.Fatalf("result wrong: %+v", out)
	}

	// Completed matches conflict on further transitions.
	resp, _ = ts.do(t, http.MethodPost, "/api/matches/"+id+"/end-innings", "user-1", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("third end status %d, want 409", resp.StatusCode)
	}
}

func TestCommentaryEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	id := ts.createMatch(t)

	ts.do(t, http.MethodPost, "/api/matches/"+id+"/batter", "user-1",
		map[string]any{"batterId": "bat-1", "name": "Kohli"})
	ts.do(t, http.MethodPost, "/api/matches/"+id+"/runs", "user-1", map[string]any{"runs": 4})
	ts.svc.Wait()

	resp, raw := ts.do(t, http.MethodGet, "/api/matches/"+id+"/commentary", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commentary status %d: %s", resp.StatusCode, raw)
	}
	var body struct {
		Commentary []commentaryItem `json:"commentary"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Commentary) != 1 || body.Commentary[0].EventType != string(feed.EventFour) {
		t.Fatalf("commentary wrong: %+v", body.Commentary)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/matches/"+id+"/commentary?eventType=bogus", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad event filter status %d, want 400", resp.StatusCode)
	}
}

func TestStreamDeliversFrames(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	id := ts.createMatch(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/matches/"+id+"/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	frame := readFrame(t, reader)
	if frame.Type != feed.FrameConnected || frame.MatchID != id {
		t.Fatalf("first frame wrong: %+v", frame)
	}

	ts.do(t, http.MethodPost, "/api/matches/"+id+"/batter", "user-1",
		map[string]any{"batterId": "bat-1", "name": "Kohli"})
	ts.do(t, http.MethodPost, "/api/matches/"+id+"/runs", "user-1", map[string]any{"runs": 6})

	frame = readFrame(t, reader)
	if frame.Type != feed.FrameScoreUpdate || frame.EventType != feed.EventSix {
		t.Fatalf("update frame wrong: %+v", frame)
	}
	frame = readFrame(t, reader)
	if frame.Type != feed.FrameCommentary || frame.Commentary == nil {
		t.Fatalf("commentary frame wrong: %+v", frame)
	}
}

// readFrame pulls the next data event off an SSE stream.
func readFrame(t *testing.T, reader *bufio.Reader) feed.Frame {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame feed.Frame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return frame
	}
	t.Fatalf("no frame before deadline")
	return feed.Frame{}
}

func TestStreamUnknownMatch(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodGet, "/api/matches/missing/stream", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stream status %d, want 404", resp.StatusCode)
	}
}

func TestTeamEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/teams", "user-1", map[string]any{"name": "Alpha"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create team status %d: %s", resp.StatusCode, raw)
	}
	var team teamBody
	if err := json.Unmarshal(raw, &team); err != nil {
		t.Fatalf("decode team: %v", err)
	}

	resp, raw = ts.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%s/players", team.ID), "user-1",
		map[string]any{"name": "Kohli", "role": "batsman"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add player status %d: %s", resp.StatusCode, raw)
	}

	// A foreign user cannot grow someone else's roster.
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%s/players", team.ID), "intruder",
		map[string]any{"name": "Nope"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign add player status %d, want 404", resp.StatusCode)
	}

	resp, raw = ts.do(t, http.MethodGet, fmt.Sprintf("/api/teams/%s/players", team.ID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list players status %d: %s", resp.StatusCode, raw)
	}
	var players struct {
		Players []playerBody `json:"players"`
	}
	if err := json.Unmarshal(raw, &players); err != nil {
		t.Fatalf("decode players: %v", err)
	}
	if len(players.Players) != 1 || players.Players[0].Name != "Kohli" {
		t.Fatalf("players wrong: %+v", players.Players)
	}

	resp, raw = ts.do(t, http.MethodGet, "/api/teams", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list teams status %d: %s", resp.StatusCode, raw)
	}
	var teams struct {
		Teams []teamBody `json:"teams"`
	}
	if err := json.Unmarshal(raw, &teams); err != nil {
		t.Fatalf("decode teams: %v", err)
	}
	if len(teams.Teams) != 1 || teams.Teams[0].Name != "Alpha" {
		t.Fatalf("teams wrong: %+v", teams.Teams)
	}
}

func TestListMatchesEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.createMatch(t)
	ts.createMatch(t)

	resp, raw := ts.do(t, http.MethodGet, "/api/matches", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", resp.StatusCode, raw)
	}
	var body struct {
		Matches []engine.Match `json:"matches"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Matches) != 2 {
		t.Fatalf("matches %d, want 2", len(body.Matches))
	}

	// Someone else sees nothing.
	resp, raw = ts.do(t, http.MethodGet, "/api/matches", "user-2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("foreign list status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Matches) != 0 {
		t.Fatalf("foreign matches %d, want 0", len(body.Matches))
	}
}
