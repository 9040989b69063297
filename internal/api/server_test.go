package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexdice/internal/entropy"
	"github.com/talgya/hexdice/internal/game"
	"github.com/talgya/hexdice/internal/session"
)

func testHandler(t *testing.T) (http.Handler, *session.Coordinator) {
	t.Helper()
	coord := session.NewCoordinator(nil, entropy.NewSeeder(1), game.Policy{}, 0)
	t.Cleanup(coord.Close)
	srv := &Server{Coord: coord, Addr: ":0"}
	return srv.Handler(), coord
}

func TestHealth(t *testing.T) {
	handler, _ := testHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestCreateAndListGames(t *testing.T) {
	handler, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", strings.NewReader(`{"name":"alice"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID       uuid.UUID `json:"id"`
		PlayerID uuid.UUID `json:"player_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)
	require.NotEqual(t, uuid.Nil, created.PlayerID)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []session.GameListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, created.ID, items[0].ID)
	require.Equal(t, "alice", items[0].Creator)
}

func TestCreateGameKeepsCallerIdentity(t *testing.T) {
	handler, _ := testHandler(t)

	playerID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", strings.NewReader(`{}`))
	req.Header.Set("X-Player-ID", playerID.String())
	req.Header.Set("X-Player-Name", "bob")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		PlayerID uuid.UUID `json:"player_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, playerID, created.PlayerID)
}

func TestGetGame(t *testing.T) {
	handler, coord := testHandler(t)
	room := coord.Create(uuid.New(), "alice")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games/"+room.ID().String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view session.GameView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, room.ID(), view.ID)
	require.Equal(t, "waiting_for_players", view.Status)
}

func TestGetGameErrors(t *testing.T) {
	handler, _ := testHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSConfiguredOrigin(t *testing.T) {
	coord := session.NewCoordinator(nil, entropy.NewSeeder(1), game.Policy{}, 0)
	t.Cleanup(coord.Close)
	srv := &Server{Coord: coord, Addr: ":0", CORSOrigins: []string{"https://play.example.com"}}
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://play.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "https://play.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	handler, coord := testHandler(t)
	coord.Create(uuid.New(), "alice")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Waiting int `json:"waiting"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, 1, status.Waiting)
}
