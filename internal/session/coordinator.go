package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hexdice/internal/entropy"
	"github.com/talgya/hexdice/internal/game"
)

// ErrGameNotFound is returned for lookups of unknown game IDs.
var ErrGameNotFound = errors.New("game not found")

// Coordinator is the registry of live rooms. It creates games, routes
// lookups, restores unfinished games from the store at boot, and fans lobby
// change notifications out to stream watchers. The registry lock guards only
// the maps; game state never leaves its room goroutine.
type Coordinator struct {
	store       GameStore
	seeder      *entropy.Seeder
	policy      game.Policy
	turnTimeout time.Duration

	mu       sync.Mutex
	rooms    map[uuid.UUID]*Room
	watchers map[chan struct{}]struct{}
}

// NewCoordinator builds an empty registry. store may be nil to run without
// persistence.
func NewCoordinator(store GameStore, seeder *entropy.Seeder, policy game.Policy, turnTimeout time.Duration) *Coordinator {
	return &Coordinator{
		store:       store,
		seeder:      seeder,
		policy:      policy,
		turnTimeout: turnTimeout,
		rooms:       make(map[uuid.UUID]*Room),
		watchers:    make(map[chan struct{}]struct{}),
	}
}

// Create opens a new game room owned by the given creator and starts its
// goroutine. The creator still connects separately to take a seat.
func (c *Coordinator) Create(creatorID uuid.UUID, creatorName string) *Room {
	g := game.New(creatorID, creatorName, c.seeder.GameSeed(), c.policy)
	room := c.adopt(g)
	slog.Info("game created", "game_id", g.ID, "creator", creatorName, "seed", g.Seed)
	c.notify()
	return room
}

// adopt registers a room for the given game and starts it.
func (c *Coordinator) adopt(g *game.Game) *Room {
	room := newRoom(g, c.store, c.turnTimeout)
	room.onChange = c.notify
	room.onEmpty = c.remove

	c.mu.Lock()
	c.rooms[g.ID] = room
	c.mu.Unlock()

	go room.Run()
	return room
}

// Get returns the room for the given game ID.
func (c *Coordinator) Get(id uuid.UUID) (*Room, error) {
	c.mu.Lock()
	room, ok := c.rooms[id]
	c.mu.Unlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	return room, nil
}

// Lobby returns summaries of every joinable or running game. Finished games
// are excluded; they linger only until their last subscriber leaves.
func (c *Coordinator) Lobby() []GameListItem {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	items := make([]GameListItem, 0, len(rooms))
	for _, room := range rooms {
		item, err := room.ListItem()
		if err != nil {
			continue
		}
		if item.Status == game.StatusFinished.String() {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Counts reports how many registered games are in each lifecycle state.
func (c *Coordinator) Counts() (waiting, inProgress, finished, subscribers int) {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	for _, room := range rooms {
		item, err := room.ListItem()
		if err != nil {
			continue
		}
		switch item.Status {
		case game.StatusWaiting.String():
			waiting++
		case game.StatusInProgress.String():
			inProgress++
		case game.StatusFinished.String():
			finished++
		}
		subscribers += item.Subscribers
	}
	return waiting, inProgress, finished, subscribers
}

// Subscribe registers a lobby watcher. The returned channel coalesces
// notifications: at most one pending signal regardless of how many changes
// occurred since the last read.
func (c *Coordinator) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes a lobby watcher.
func (c *Coordinator) Unsubscribe(ch chan struct{}) {
	c.mu.Lock()
	delete(c.watchers, ch)
	c.mu.Unlock()
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// remove drops an abandoned room from the registry. It runs on the room's
// own goroutine, so it must not round-trip through the room's inbox. Games
// that never started leave no snapshot behind; finished ones keep theirs for
// the record.
func (c *Coordinator) remove(id uuid.UUID, status game.Status) {
	c.mu.Lock()
	room, ok := c.rooms[id]
	if ok {
		delete(c.rooms, id)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if status == game.StatusWaiting && c.store != nil {
		if err := c.store.DeleteGame(id); err != nil {
			slog.Error("game delete failed", "game_id", id, "error", err)
		}
	}
	room.Stop()
	slog.Info("game removed", "game_id", id)
	c.notify()
}

// Restore loads every unfinished game snapshot from the store and opens a
// room for each, so in-flight games survive a restart.
func (c *Coordinator) Restore() error {
	if c.store == nil {
		return nil
	}

	snapshots, err := c.store.LoadUnfinished()
	if err != nil {
		return err
	}

	restored := 0
	for _, data := range snapshots {
		g, err := game.Restore(data, c.policy)
		if err != nil {
			slog.Error("game restore failed", "error", err)
			continue
		}
		c.adopt(g)
		restored++
	}
	if restored > 0 {
		slog.Info("games restored", "count", restored)
	}
	return nil
}

// Close stops every room. Snapshots are already durable; rooms save after
// each applied action.
func (c *Coordinator) Close() {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.rooms = make(map[uuid.UUID]*Room)
	c.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
	}
}
