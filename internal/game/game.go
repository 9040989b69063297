// Package game implements the turn and combat state machine for the dice
// game: seating, board setup, attack resolution, end-of-turn reinforcement,
// eliminations, and win detection. A Game is not safe for concurrent use;
// the session coordinator serializes all access.
package game

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hexdice/internal/dice"
	"github.com/talgya/hexdice/internal/entropy"
	"github.com/talgya/hexdice/internal/world"
)

// Status is the game lifecycle state. Transitions are one-directional:
// waiting -> in progress -> finished, and finished is terminal.
type Status uint8

const (
	StatusWaiting Status = iota
	StatusInProgress
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting_for_players"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Policy holds the configurable turn rules. The zero value means unlimited
// attacks per turn.
type Policy struct {
	MaxAttacksPerTurn int
}

// Game aggregates the board, the seated players, and the turn state. Every
// mutation flows through Join, Start, Attack, or EndTurn; each call is
// all-or-nothing with validation preceding any state change.
type Game struct {
	ID          uuid.UUID
	CreatorID   uuid.UUID
	CreatorName string
	Seed        int64
	Board       *world.Board
	Players     []*Player
	Status      Status
	Turn        int
	Winner      uuid.UUID
	LastActive  time.Time

	policy          Policy
	rng             *rand.Rand
	attacksThisTurn int
}

// New creates an empty game waiting for players. All randomness (board
// generation, dice, first turn) derives from the given seed.
func New(creatorID uuid.UUID, creatorName string, seed int64, policy Policy) *Game {
	return &Game{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		CreatorName: creatorName,
		Seed:        seed,
		Status:      StatusWaiting,
		LastActive:  time.Now(),
		policy:      policy,
		rng:         entropy.NewSource(seed),
	}
}

// Touch records activity without mutating game state.
func (g *Game) Touch() {
	g.LastActive = time.Now()
}

// Player returns the seated player with the given ID.
func (g *Game) Player(id uuid.UUID) (*Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CurrentPlayer returns the player whose turn it is, or nil outside of
// StatusInProgress.
func (g *Game) CurrentPlayer() *Player {
	if g.Status != StatusInProgress || g.Turn >= len(g.Players) {
		return nil
	}
	return g.Players[g.Turn]
}

// Full reports whether every seat is taken.
func (g *Game) Full() bool {
	return len(g.Players) >= MaxPlayers
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

// Join seats a player. Valid only while waiting for players; duplicate
// identities and joins beyond the seat limit are rejected.
func (g *Game) Join(id uuid.UUID, name string) (*Player, error) {
	if g.Status != StatusWaiting {
		return nil, ErrGameStarted
	}
	if _, ok := g.Player(id); ok {
		return nil, ErrPlayerInGame
	}
	if g.Full() {
		return nil, ErrGameFull
	}

	p := &Player{
		ID:    id,
		Name:  name,
		Color: Color(len(g.Players)),
	}
	g.Players = append(g.Players, p)
	g.Touch()
	return p, nil
}

// generateBoard is swapped in tests to exercise generation failure.
var generateBoard = world.Generate

// Start generates the board, deals areas and dice, and opens play with a
// uniformly random first turn. A generation failure leaves the game in
// StatusWaiting so creation can be retried with fresh parameters.
func (g *Game) Start() error {
	if g.Status != StatusWaiting {
		return ErrGameStarted
	}
	if len(g.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	board, err := generateBoard(len(g.Players), g.Seed)
	if err != nil {
		return fmt.Errorf("start game %s: %w", g.ID, err)
	}

	ids := make([]uuid.UUID, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	world.AssignOwnersAndDice(board, ids, g.rng)

	g.Board = board
	g.Status = StatusInProgress
	g.Turn = g.rng.Intn(len(g.Players))
	g.attacksThisTurn = 0
	g.Touch()
	return nil
}

// AttackResult describes one resolved attack: the rolls, the two affected
// areas, and any elimination or terminal winner it caused.
type AttackResult struct {
	PlayerID     uuid.UUID    `json:"player_id"`
	FromID       uuid.UUID    `json:"from"`
	ToID         uuid.UUID    `json:"to"`
	Outcome      dice.Outcome `json:"outcome"`
	FromDice     int          `json:"from_dice"`
	ToDice       int          `json:"to_dice"`
	ToOwner      uuid.UUID    `json:"to_owner"`
	EliminatedID uuid.UUID    `json:"eliminated,omitempty"`
	WinnerID     uuid.UUID    `json:"winner,omitempty"`
}

func (g *Game) checkInProgress() error {
	switch g.Status {
	case StatusFinished:
		return ErrGameFinished
	case StatusWaiting:
		return ErrGameNotStarted
	}
	return nil
}

func (g *Game) validateAttack(playerID, fromID, toID uuid.UUID) (from, to *world.Area, err error) {
	if err := g.checkInProgress(); err != nil {
		return nil, nil, err
	}
	if _, ok := g.Player(playerID); !ok {
		return nil, nil, ErrUnknownPlayer
	}
	if g.CurrentPlayer().ID != playerID {
		return nil, nil, ErrNotPlayersTurn
	}
	if g.policy.MaxAttacksPerTurn > 0 && g.attacksThisTurn >= g.policy.MaxAttacksPerTurn {
		return nil, nil, ErrAttackLimit
	}

	from, ok := g.Board.Area(fromID)
	if !ok {
		return nil, nil, ErrUnknownArea
	}
	to, ok = g.Board.Area(toID)
	if !ok {
		return nil, nil, ErrUnknownArea
	}
	if !g.Board.Adjacent(fromID, toID) {
		return nil, nil, ErrAreasNotAdjacent
	}
	if !from.OwnedBy(playerID) {
		return nil, nil, ErrAreaNotOwned
	}
	if to.OwnedBy(playerID) {
		return nil, nil, ErrSelfAttack
	}
	if !from.Stack.CanAttack() {
		return nil, nil, ErrNotEnoughDice
	}
	return from, to, nil
}

// Attack resolves one attack from the acting player. A capture transfers the
// defending area and moves the attacking stack minus one die; a repel resets
// the attacker to one die and leaves the defender untouched. A defender left
// with zero areas is eliminated immediately, and the game finishes the
// moment only one player remains. The turn does not advance.
func (g *Game) Attack(playerID, fromID, toID uuid.UUID) (*AttackResult, error) {
	from, to, err := g.validateAttack(playerID, fromID, toID)
	if err != nil {
		return nil, err
	}

	outcome := dice.ResolveAttack(g.rng, from.Stack.Count(), to.Stack.Count())
	result := &AttackResult{
		PlayerID: playerID,
		FromID:   fromID,
		ToID:     toID,
		Outcome:  outcome,
	}

	if outcome.Captured {
		defenderID := to.Owner
		moved, err := from.Stack.Split()
		if err != nil {
			// CanAttack already held, so Split cannot fail.
			return nil, err
		}
		to.Owner = playerID
		to.Stack = world.NewStack(moved)

		if defenderID != uuid.Nil && g.Board.OwnedCount(defenderID) == 0 {
			if defender, ok := g.Player(defenderID); ok {
				defender.Eliminated = true
				result.EliminatedID = defenderID
			}
			if g.aliveCount() == 1 {
				g.Status = StatusFinished
				g.Winner = playerID
				result.WinnerID = playerID
			}
		}
	} else {
		from.Stack.Defeat()
	}

	g.attacksThisTurn++
	g.Touch()

	result.FromDice = from.Stack.Count()
	result.ToDice = to.Stack.Count()
	result.ToOwner = to.Owner
	return result, nil
}

// TurnResult describes one ended turn: the connected-region bonus, the areas
// that received reinforcement dice, the banked reserve, and the next turn.
type TurnResult struct {
	PlayerID   uuid.UUID         `json:"player_id"`
	Bonus      int               `json:"bonus"`
	Reinforced map[uuid.UUID]int `json:"reinforced"`
	Reserve    int               `json:"reserve"`
	Discarded  int               `json:"discarded,omitempty"`
	NextTurn   int               `json:"next_turn"`
}

// EndTurn reinforces the acting player and advances the turn to the next
// non-eliminated player in rotation order. The reinforcement pool is the
// largest connected same-owner group plus the stored reserve; leftovers are
// banked again, clamped to MaxReserve with the overflow discarded and
// logged.
func (g *Game) EndTurn(playerID uuid.UUID) (*TurnResult, error) {
	if err := g.checkInProgress(); err != nil {
		return nil, err
	}
	p, ok := g.Player(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if g.CurrentPlayer().ID != playerID {
		return nil, ErrNotPlayersTurn
	}

	bonus := g.Board.LargestConnectedGroup(playerID)
	reinforced, leftover := g.distribute(p, bonus)
	discarded := p.StoreDice(leftover)
	if discarded > 0 {
		slog.Warn("reserve cap exceeded, dice discarded",
			"game_id", g.ID, "player_id", playerID, "discarded", discarded, "cap", MaxReserve)
	}

	g.attacksThisTurn = 0
	g.Turn = g.nextAliveTurn()
	g.Touch()

	return &TurnResult{
		PlayerID:   playerID,
		Bonus:      bonus,
		Reinforced: reinforced,
		Reserve:    p.Reserve,
		Discarded:  discarded,
		NextTurn:   g.Turn,
	}, nil
}

// nextAliveTurn finds the next non-eliminated player after the current one,
// wrapping. The current player is alive, so the scan terminates.
func (g *Game) nextAliveTurn() int {
	next := g.Turn
	for {
		next = (next + 1) % len(g.Players)
		if !g.Players[next].Eliminated {
			return next
		}
	}
}

// snapshot is the storage-agnostic serialized form of a game. The board's
// adjacency is derived from tiles on restore, and the rng is re-derived from
// the seed; everything else round-trips verbatim.
type snapshot struct {
	ID          uuid.UUID    `json:"id"`
	CreatorID   uuid.UUID    `json:"creator_id"`
	CreatorName string       `json:"creator_name"`
	Seed        int64        `json:"seed"`
	Players     []*Player    `json:"players"`
	Board       *world.Board `json:"board,omitempty"`
	Status      Status       `json:"status"`
	Turn        int          `json:"turn"`
	Winner      uuid.UUID    `json:"winner"`
}

// Snapshot serializes the full game state for persistence.
func (g *Game) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{
		ID:          g.ID,
		CreatorID:   g.CreatorID,
		CreatorName: g.CreatorName,
		Seed:        g.Seed,
		Players:     g.Players,
		Board:       g.Board,
		Status:      g.Status,
		Turn:        g.Turn,
		Winner:      g.Winner,
	})
}

// Restore rebuilds a game from a snapshot produced by Snapshot.
func Restore(data []byte, policy Policy) (*Game, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("restore game: %w", err)
	}

	return &Game{
		ID:          snap.ID,
		CreatorID:   snap.CreatorID,
		CreatorName: snap.CreatorName,
		Seed:        snap.Seed,
		Players:     snap.Players,
		Board:       snap.Board,
		Status:      snap.Status,
		Turn:        snap.Turn,
		Winner:      snap.Winner,
		LastActive:  time.Now(),
		policy:      policy,
		rng:         entropy.NewSource(snap.Seed ^ 0x5eedf00d),
	}, nil
}
