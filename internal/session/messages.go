// Package session coordinates concurrently connected clients against
// authoritative game instances. Each game is owned by a single room
// goroutine; all mutation flows through its inbox in FIFO order.
package session

import (
	"github.com/google/uuid"

	"github.com/talgya/hexdice/internal/game"
	"github.com/talgya/hexdice/internal/world"
)

// Inbound command types, matching the wire protocol's snake_case tags.
const (
	CmdStart   = "start"
	CmdAttack  = "attack"
	CmdEndTurn = "end_turn"
	CmdPing    = "ping"
)

// Command is a client-submitted intent. From/To are only set for attacks.
type Command struct {
	Type string    `json:"type"`
	From uuid.UUID `json:"from,omitempty"`
	To   uuid.UUID `json:"to,omitempty"`
}

// Outbound event types. Subscribers always receive a full snapshot first,
// then diffs after every successfully applied action.
const (
	EventSnapshot         = "snapshot"
	EventPlayerJoined     = "player_joined"
	EventGameStarted      = "game_started"
	EventAttackResolved   = "attack_resolved"
	EventPlayerEliminated = "player_eliminated"
	EventTurnEnded        = "turn_ended"
	EventGameFinished     = "game_finished"
	EventError            = "error"
)

type snapshotEvent struct {
	Type string   `json:"type"`
	Game GameView `json:"game"`
}

type playerJoinedEvent struct {
	Type   string      `json:"type"`
	Player game.Player `json:"player"`
}

type gameStartedEvent struct {
	Type string   `json:"type"`
	Game GameView `json:"game"`
}

type attackResolvedEvent struct {
	Type   string             `json:"type"`
	Result *game.AttackResult `json:"result"`
}

type turnEndedEvent struct {
	Type   string           `json:"type"`
	Result *game.TurnResult `json:"result"`
}

type playerEliminatedEvent struct {
	Type     string    `json:"type"`
	PlayerID uuid.UUID `json:"player_id"`
	By       uuid.UUID `json:"by"`
}

type gameFinishedEvent struct {
	Type   string    `json:"type"`
	Winner uuid.UUID `json:"winner"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AreaView is the wire form of one area.
type AreaView struct {
	ID        uuid.UUID    `json:"id"`
	Owner     uuid.UUID    `json:"owner"`
	Dice      int          `json:"dice"`
	Tiles     []world.Tile `json:"tiles"`
	Neighbors []uuid.UUID  `json:"neighbors"`
}

// GameView is the full snapshot of one game as sent to clients.
type GameView struct {
	ID      uuid.UUID     `json:"id"`
	Creator string        `json:"creator"`
	Players []game.Player `json:"players"`
	Areas   []AreaView    `json:"areas,omitempty"`
	Status  string        `json:"status"`
	Turn    int           `json:"turn"`
	Winner  uuid.UUID     `json:"winner"`
}

// NewGameView builds a snapshot view. Must only be called from the goroutine
// that owns the game.
func NewGameView(g *game.Game) GameView {
	view := GameView{
		ID:      g.ID,
		Creator: g.CreatorName,
		Status:  g.Status.String(),
		Turn:    g.Turn,
		Winner:  g.Winner,
	}
	for _, p := range g.Players {
		view.Players = append(view.Players, *p)
	}
	if g.Board != nil {
		for _, id := range g.Board.AreaIDs() {
			a, _ := g.Board.Area(id)
			view.Areas = append(view.Areas, AreaView{
				ID:        a.ID,
				Owner:     a.Owner,
				Dice:      a.Stack.Count(),
				Tiles:     a.Tiles,
				Neighbors: g.Board.Neighbors(id),
			})
		}
	}
	return view
}

// GameListItem is the lobby's summary of one game.
type GameListItem struct {
	ID          uuid.UUID `json:"id"`
	Creator     string    `json:"creator"`
	PlayerCount int       `json:"player_count"`
	Status      string    `json:"status"`
	AreaCount   int       `json:"area_count"`
	Subscribers int       `json:"subscribers"`
}
