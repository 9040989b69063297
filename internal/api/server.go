// Package api exposes the game service over HTTP: a JSON lobby surface, an
// SSE stream of lobby changes, and a per-game websocket for play.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/talgya/hexdice/internal/session"
)

const maxSSEConns = 32

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from the game frontend; game
	// access is scoped by unguessable game and player IDs.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the lobby and game endpoints.
type Server struct {
	Coord  *session.Coordinator
	Addr   string
	DBPath string

	// CORSOrigins lists frontend origins allowed beyond the localhost dev
	// servers. Comes from configuration, not read from the environment here.
	CORSOrigins []string

	started time.Time
	creates *createLimiter

	// Active SSE connection count (atomic).
	sseConns int32
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	s.started = time.Now()
	s.creates = newCreateLimiter(30, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/games", s.handleGames)
	mux.HandleFunc("/api/v1/games/", s.handleGameRoutes)

	return s.corsMiddleware(mux)
}

// corsMiddleware adds CORS headers for allowed frontend origins. Localhost
// dev servers are always allowed.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range s.CORSOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Player-ID, X-Player-Name")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identity resolves the caller's player identity from headers, falling back
// to query parameters for websocket and EventSource clients that cannot set
// headers. A missing or malformed ID mints a fresh one.
func identity(r *http.Request) (uuid.UUID, string) {
	rawID := r.Header.Get("X-Player-ID")
	if rawID == "" {
		rawID = r.URL.Query().Get("player_id")
	}
	name := r.Header.Get("X-Player-Name")
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	if name == "" {
		name = "anonymous"
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		id = uuid.New()
	}
	return id, name
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	waiting, inProgress, finished, subscribers := s.Coord.Counts()

	status := map[string]any{
		"name":        "hexdice",
		"uptime":      humanize.Time(s.started),
		"waiting":     waiting,
		"in_progress": inProgress,
		"finished":    finished,
		"subscribers": subscribers,
		"persistence": s.DBPath != "",
		"db_path":     s.DBPath,
	}
	writeJSON(w, status)
}

// handleGames serves the collection endpoint: GET lists joinable games,
// POST creates one.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.Coord.Lobby())
	case http.MethodPost:
		s.handleCreateGame(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	creatorID, creatorName := identity(r)

	if ok, retry := s.creates.Allow(creatorID); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		http.Error(w, "too many games created", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Name != "" {
		creatorName = req.Name
	}

	room := s.Coord.Create(creatorID, creatorName)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{
		"id":        room.ID(),
		"player_id": creatorID,
	})
}

// handleGameRoutes dispatches /api/v1/games/stream, /api/v1/games/:id, and
// /api/v1/games/:id/ws.
func (s *Server) handleGameRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/games/")
	if rest == "stream" {
		s.handleStream(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	room, err := s.Coord.Get(id)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	if len(parts) >= 2 && parts[1] == "ws" {
		s.handleGameSocket(w, r, room)
		return
	}

	view, err := room.View()
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleGameSocket(w http.ResponseWriter, r *http.Request, room *session.Room) {
	playerID, name := identity(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	session.ServeClient(room, playerID, name, conn)
}

// handleStream provides an SSE endpoint carrying the lobby list, re-emitted
// on every change. Limits concurrent connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch := s.Coord.Subscribe()
	defer s.Coord.Unsubscribe(ch)

	writeSSELobby(w, s.Coord.Lobby())
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ch:
			writeSSELobby(w, s.Coord.Lobby())
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSELobby writes the lobby list as a single SSE event.
func writeSSELobby(w http.ResponseWriter, items []session.GameListItem) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: lobby\ndata: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
