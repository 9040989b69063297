package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hexdice/internal/game"
)

// ErrRoomClosed is returned for submissions against a room whose goroutine
// has stopped.
var ErrRoomClosed = errors.New("game room is closed")

// GameStore is the persistence boundary: rooms save snapshots through it and
// the coordinator restores unfinished games at boot. A nil store disables
// persistence.
type GameStore interface {
	SaveGame(g *game.Game) error
	DeleteGame(id uuid.UUID) error
	LoadUnfinished() ([][]byte, error)
}

// Room owns exactly one authoritative game. A single goroutine consumes the
// inbox, so actions against one game are applied strictly one at a time in
// arrival order while separate games progress independently. Rejected
// actions reply to the submitter only and leave no trace.
type Room struct {
	inbox chan any
	quit  chan struct{}

	game        *game.Game
	subs        map[*subscriber]uuid.UUID
	byPlayer    map[uuid.UUID]*subscriber
	store       GameStore
	turnTimeout time.Duration
	turnTimer   *time.Timer

	onChange func() // lobby notification hook

	// onEmpty fires when the last subscriber leaves a settled game. It runs
	// on the room goroutine, so it must not call back into the room.
	onEmpty func(id uuid.UUID, status game.Status)
}

func newRoom(g *game.Game, store GameStore, turnTimeout time.Duration) *Room {
	return &Room{
		inbox:       make(chan any, 64),
		quit:        make(chan struct{}),
		game:        g,
		subs:        make(map[*subscriber]uuid.UUID),
		byPlayer:    make(map[uuid.UUID]*subscriber),
		store:       store,
		turnTimeout: turnTimeout,
	}
}

// ID returns the game's identifier. Immutable, safe from any goroutine.
func (r *Room) ID() uuid.UUID {
	return r.game.ID
}

// Stop terminates the room goroutine. Pending submissions fail with
// ErrRoomClosed.
func (r *Room) Stop() {
	select {
	case <-r.quit:
	default:
		close(r.quit)
	}
}

// Run consumes the inbox until stopped. Turn clock expiry is handled here
// too: it becomes an EndTurn for the current player through the same
// handler as client commands, never a second mutation path.
func (r *Room) Run() {
	for {
		var timerC <-chan time.Time
		if r.turnTimer != nil {
			timerC = r.turnTimer.C
		}
		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-timerC:
			r.turnTimer = nil
			if cur := r.game.CurrentPlayer(); cur != nil {
				r.handle(endTurnCmd{playerID: cur.ID, fromTimer: true})
			}
		}
	}
}

// Room commands. Every envelope carries the submitting player identity and,
// where the caller waits, a reply channel for the synchronous result.

type connectCmd struct {
	playerID uuid.UUID
	name     string
	sub      *subscriber
	reply    chan error
}

type disconnectCmd struct {
	sub *subscriber
}

type startCmd struct {
	playerID uuid.UUID
	reply    chan error
}

type attackCmd struct {
	playerID uuid.UUID
	from, to uuid.UUID
	reply    chan error
}

type endTurnCmd struct {
	playerID  uuid.UUID
	fromTimer bool
	reply     chan error
}

type pingCmd struct {
	playerID uuid.UUID
}

type viewCmd struct {
	reply chan GameView
}

type listCmd struct {
	reply chan GameListItem
}

func (r *Room) submit(cmd any) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.quit:
		return ErrRoomClosed
	}
}

func (r *Room) submitWait(cmd any, reply chan error) error {
	if err := r.submit(cmd); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.quit:
		return ErrRoomClosed
	}
}

// Connect seats the player if the game is still waiting (idempotent for an
// already-seated player), registers the subscriber, and sends it a full
// snapshot before any subsequent diffs.
func (r *Room) Connect(playerID uuid.UUID, name string, sub *subscriber) error {
	reply := make(chan error, 1)
	return r.submitWait(connectCmd{playerID: playerID, name: name, sub: sub, reply: reply}, reply)
}

// Disconnect removes the subscriber. The player stays in the game.
func (r *Room) Disconnect(sub *subscriber) {
	_ = r.submit(disconnectCmd{sub: sub})
}

// Submit applies one wire command for the given player.
func (r *Room) Submit(playerID uuid.UUID, cmd Command) error {
	reply := make(chan error, 1)
	switch cmd.Type {
	case CmdStart:
		return r.submitWait(startCmd{playerID: playerID, reply: reply}, reply)
	case CmdAttack:
		return r.submitWait(attackCmd{playerID: playerID, from: cmd.From, to: cmd.To, reply: reply}, reply)
	case CmdEndTurn:
		return r.submitWait(endTurnCmd{playerID: playerID, reply: reply}, reply)
	case CmdPing:
		return r.submit(pingCmd{playerID: playerID})
	default:
		return errors.New("unknown command type: " + cmd.Type)
	}
}

// View returns a full snapshot of the game.
func (r *Room) View() (GameView, error) {
	reply := make(chan GameView, 1)
	if err := r.submit(viewCmd{reply: reply}); err != nil {
		return GameView{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.quit:
		return GameView{}, ErrRoomClosed
	}
}

// ListItem returns the lobby summary of the game.
func (r *Room) ListItem() (GameListItem, error) {
	reply := make(chan GameListItem, 1)
	if err := r.submit(listCmd{reply: reply}); err != nil {
		return GameListItem{}, err
	}
	select {
	case item := <-reply:
		return item, nil
	case <-r.quit:
		return GameListItem{}, ErrRoomClosed
	}
}

func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case connectCmd:
		c.reply <- r.handleConnect(c)
	case disconnectCmd:
		r.handleDisconnect(c.sub)
	case startCmd:
		c.reply <- r.handleStart(c.playerID)
	case attackCmd:
		c.reply <- r.handleAttack(c)
	case endTurnCmd:
		err := r.handleEndTurn(c.playerID)
		if c.reply != nil {
			c.reply <- err
		} else if err != nil && c.fromTimer {
			slog.Debug("turn clock expiry not applied", "game_id", r.ID(), "error", err)
		}
	case pingCmd:
		r.game.Touch()
	case viewCmd:
		c.reply <- NewGameView(r.game)
	case listCmd:
		c.reply <- r.listItem()
	}
}

func (r *Room) handleConnect(c connectCmd) error {
	joined := false
	if _, seated := r.game.Player(c.playerID); !seated {
		if _, err := r.game.Join(c.playerID, c.name); err != nil {
			return err
		}
		joined = true
	}

	// One connection per player per game: a reconnect replaces the old one.
	if old, ok := r.byPlayer[c.playerID]; ok {
		delete(r.subs, old)
		old.close()
	}
	r.subs[c.sub] = c.playerID
	r.byPlayer[c.playerID] = c.sub

	r.sendTo(c.sub, snapshotEvent{Type: EventSnapshot, Game: NewGameView(r.game)})

	if joined {
		p, _ := r.game.Player(c.playerID)
		r.broadcast(playerJoinedEvent{Type: EventPlayerJoined, Player: *p})
		r.notifyChange()
		slog.Info("player joined", "game_id", r.ID(), "player_id", c.playerID, "players", len(r.game.Players))

		// A sixth seat fills the table; start without waiting for the
		// explicit command.
		if r.game.Full() {
			if err := r.start(); err != nil {
				slog.Error("auto-start failed", "game_id", r.ID(), "error", err)
			}
		}
	}
	return nil
}

func (r *Room) handleDisconnect(sub *subscriber) {
	playerID, ok := r.subs[sub]
	if !ok {
		return
	}
	delete(r.subs, sub)
	if r.byPlayer[playerID] == sub {
		delete(r.byPlayer, playerID)
	}
	sub.close()

	if len(r.subs) == 0 && r.game.Status != game.StatusInProgress && r.onEmpty != nil {
		r.onEmpty(r.ID(), r.game.Status)
	}
}

func (r *Room) handleStart(playerID uuid.UUID) error {
	if _, ok := r.game.Player(playerID); !ok {
		return game.ErrUnknownPlayer
	}
	return r.start()
}

func (r *Room) start() error {
	if err := r.game.Start(); err != nil {
		return err
	}
	slog.Info("game started",
		"game_id", r.ID(), "players", len(r.game.Players), "areas", r.game.Board.AreaCount())
	r.broadcast(gameStartedEvent{Type: EventGameStarted, Game: NewGameView(r.game)})
	r.armTurnTimer()
	r.save()
	r.notifyChange()
	return nil
}

func (r *Room) handleAttack(c attackCmd) error {
	result, err := r.game.Attack(c.playerID, c.from, c.to)
	if err != nil {
		return err
	}

	r.broadcast(attackResolvedEvent{Type: EventAttackResolved, Result: result})
	if result.EliminatedID != uuid.Nil {
		r.broadcast(playerEliminatedEvent{
			Type:     EventPlayerEliminated,
			PlayerID: result.EliminatedID,
			By:       result.PlayerID,
		})
	}
	if result.WinnerID != uuid.Nil {
		slog.Info("game finished", "game_id", r.ID(), "winner", result.WinnerID)
		r.broadcast(gameFinishedEvent{Type: EventGameFinished, Winner: result.WinnerID})
		r.disarmTurnTimer()
		r.notifyChange()
	}
	r.save()
	return nil
}

func (r *Room) handleEndTurn(playerID uuid.UUID) error {
	result, err := r.game.EndTurn(playerID)
	if err != nil {
		return err
	}

	r.broadcast(turnEndedEvent{Type: EventTurnEnded, Result: result})
	r.armTurnTimer()
	r.save()
	return nil
}

func (r *Room) armTurnTimer() {
	r.disarmTurnTimer()
	if r.turnTimeout > 0 && r.game.Status == game.StatusInProgress {
		r.turnTimer = time.NewTimer(r.turnTimeout)
	}
}

func (r *Room) disarmTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

func (r *Room) save() {
	if r.store == nil {
		return
	}
	if err := r.store.SaveGame(r.game); err != nil {
		slog.Error("game snapshot save failed", "game_id", r.ID(), "error", err)
	}
}

func (r *Room) notifyChange() {
	if r.onChange != nil {
		r.onChange()
	}
}

func (r *Room) listItem() GameListItem {
	item := GameListItem{
		ID:          r.game.ID,
		Creator:     r.game.CreatorName,
		PlayerCount: len(r.game.Players),
		Status:      r.game.Status.String(),
		Subscribers: len(r.subs),
	}
	if r.game.Board != nil {
		item.AreaCount = r.game.Board.AreaCount()
	}
	return item
}

// broadcast fans an event out to every subscriber. A subscriber whose send
// buffer is full is dropped rather than allowed to stall the game.
func (r *Room) broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("event marshal failed", "game_id", r.ID(), "error", err)
		return
	}

	var stale []*subscriber
	for sub := range r.subs {
		if !sub.trySend(data) {
			stale = append(stale, sub)
		}
	}
	for _, sub := range stale {
		slog.Warn("dropping slow subscriber", "game_id", r.ID(), "player_id", r.subs[sub])
		r.handleDisconnect(sub)
	}
}

func (r *Room) sendTo(sub *subscriber, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	sub.trySend(data)
}
