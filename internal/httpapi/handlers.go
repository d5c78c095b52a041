package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thunderavi/scoreboard/api/feed"
	"github.com/thunderavi/scoreboard/internal/engine"
	"github.com/thunderavi/scoreboard/internal/service"
	"github.com/thunderavi/scoreboard/internal/storage"
	"github.com/thunderavi/scoreboard/transports/sse"
	"github.com/thunderavi/scoreboard/transports/websocket"
)

type createMatchRequest struct {
	Team1ID    string `json:"team1Id"`
	Team2ID    string `json:"team2Id"`
	TotalOvers int    `json:"totalOvers"`
	Toss       struct {
		WinnerID string `json:"winnerId"`
		Call     string `json:"call"`
		Choice   string `json:"choice"`
	} `json:"toss"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req createMatchRequest
	if err := decodeValidated(r, s.schemas.createMatch, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	m, err := s.svc.CreateMatch(r.Context(), actorID, service.CreateMatchParams{
		Team1ID:    req.Team1ID,
		Team2ID:    req.Team2ID,
		TossWinner: req.Toss.WinnerID,
		TossCall:   req.Toss.Call,
		TossChoice: req.Toss.Choice,
		TotalOvers: req.TotalOvers,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := engine.Status(r.URL.Query().Get("status"))
	matches, err := s.svc.ListMatches(r.Context(), actorID, status, queryLimit(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if matches == nil {
		matches = []*engine.Match{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.GetMatchPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

type selectBatterRequest struct {
	BatterID string `json:"batterId"`
	Name     string `json:"name"`
}

func (s *Server) handleSelectBatter(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req selectBatterRequest
	if err := decodeValidated(r, s.schemas.selectBatter, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	m, err := s.svc.SelectBatter(r.Context(), actorID, r.PathValue("id"), req.BatterID, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

type adviceBody struct {
	EndInnings       bool   `json:"endInnings"`
	Reason           string `json:"reason,omitempty"`
	RemainingBatters int    `json:"remainingBatters"`
}

type scoreResponse struct {
	Match  *engine.Match `json:"match"`
	Advice adviceBody    `json:"advice"`
}

func scoreResponseOf(out *service.ScoreOutcome) scoreResponse {
	return scoreResponse{
		Match: out.Match,
		Advice: adviceBody{
			EndInnings:       out.Advice.EndInnings,
			Reason:           out.Advice.Reason,
			RemainingBatters: out.Advice.RemainingBatters,
		},
	}
}

type scoreRunsRequest struct {
	Runs int `json:"runs"`
}

func (s *Server) handleScoreRuns(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req scoreRunsRequest
	if err := decodeValidated(r, s.schemas.scoreRuns, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	out, err := s.svc.ScoreRuns(r.Context(), actorID, r.PathValue("id"), req.Runs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scoreResponseOf(out))
}

type scoreExtraRequest struct {
	ExtraType string `json:"extraType"`
	Runs      int    `json:"runs"`
}

func (s *Server) handleScoreExtra(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req scoreExtraRequest
	if err := decodeValidated(r, s.schemas.scoreExtra, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	out, err := s.svc.ScoreExtra(r.Context(), actorID, r.PathValue("id"), engine.ExtraKind(req.ExtraType), req.Runs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scoreResponseOf(out))
}

type wicketRequest struct {
	DismissalType string `json:"dismissalType"`
	FielderName   string `json:"fielderName"`
}

func (s *Server) handleWicket(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req wicketRequest
	if err := decodeValidated(r, s.schemas.wicket, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	out, err := s.svc.RecordWicket(r.Context(), actorID, r.PathValue("id"), req.DismissalType, req.FielderName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scoreResponseOf(out))
}

type endInningsResponse struct {
	Match      *engine.Match             `json:"match"`
	Transition *engine.InningsTransition `json:"transition,omitempty"`
	Result     *resultBody               `json:"result,omitempty"`
}

type resultBody struct {
	Text   string `json:"text"`
	Winner string `json:"winner,omitempty"`
}

func (s *Server) handleEndInnings(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.svc.EndInnings(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := endInningsResponse{Match: out.Match, Transition: out.Transition}
	if out.Result != nil {
		resp.Result = &resultBody{Text: out.Result.Text, Winner: out.Result.WinnerName}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type commentaryItem struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	EventType     string  `json:"eventType"`
	Priority      string  `json:"priority"`
	IsAIGenerated bool    `json:"isAIGenerated"`
	AudioURL      string  `json:"audioUrl,omitempty"`
	AudioDuration float64 `json:"audioDuration,omitempty"`
	Innings       int     `json:"innings,omitempty"`
	OverNumber    string  `json:"overNumber,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func (s *Server) handleCommentary(w http.ResponseWriter, r *http.Request) {
	eventType := feed.EventType(r.URL.Query().Get("eventType"))
	if eventType != "" {
		if err := eventType.Validate(); err != nil {
			s.writeBadRequest(w, err)
			return
		}
	}
	records, err := s.svc.Commentary(r.Context(), r.PathValue("id"), eventType, queryLimit(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]commentaryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, commentaryItem{
			ID:            rec.ID,
			Text:          rec.Text,
			EventType:     string(rec.EventType),
			Priority:      string(rec.Priority),
			IsAIGenerated: rec.AIGenerated,
			AudioURL:      rec.AudioURL,
			AudioDuration: rec.AudioDuration,
			Innings:       rec.Innings,
			OverNumber:    rec.OverNumber,
			CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"commentary": items})
}

// handleStream attaches an SSE subscriber and parks the handler until
// either side drops.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if _, err := s.svc.GetMatchPublic(r.Context(), matchID); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := sse.NewConn(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	clientID, err := s.hub.Subscribe(matchID, conn)
	if err != nil {
		s.logger.Warn("sse subscribe failed", "match_id", matchID, "error", err)
		return
	}

	select {
	case <-r.Context().Done():
		s.hub.Unsubscribe(matchID, clientID)
	case <-conn.Done():
	}
}

// handleWebSocket upgrades and attaches a websocket subscriber; the
// read loop holds the handler until disconnect.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if _, err := s.svc.GetMatchPublic(r.Context(), matchID); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := websocket.Upgrade(w, r)
	if err != nil {
		// Upgrade already wrote the failure response.
		s.logger.Warn("websocket upgrade failed", "match_id", matchID, "error", err)
		return
	}
	clientID, err := s.hub.Subscribe(matchID, conn)
	if err != nil {
		_ = conn.Close()
		return
	}

	conn.ReadLoop()
	s.hub.Unsubscribe(matchID, clientID)
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type teamBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req createTeamRequest
	if err := decodeValidated(r, s.schemas.createTeam, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	team := storage.Team{ID: uuid.NewString(), OwnerID: actorID, Name: req.Name}
	if err := s.svc.CreateTeam(r.Context(), team); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, teamBody{ID: team.ID, Name: team.Name})
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	teams, err := s.svc.ListTeams(r.Context(), actorID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items := make([]teamBody, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamBody{ID: t.ID, Name: t.Name})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"teams": items})
}

type addPlayerRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type playerBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.actor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req addPlayerRequest
	if err := decodeValidated(r, s.schemas.addPlayer, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	player := storage.Player{ID: uuid.NewString(), TeamID: r.PathValue("id"), Name: req.Name, Role: req.Role}
	if err := s.svc.AddPlayer(r.Context(), actorID, player); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, playerBody{ID: player.ID, Name: player.Name, Role: player.Role})
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.svc.ListPlayers(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	items := make([]playerBody, 0, len(players))
	for _, p := range players {
		items = append(items, playerBody{ID: p.ID, Name: p.Name, Role: p.Role})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"players": items})
}
