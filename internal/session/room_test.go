package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexdice/internal/game"
)

func newTestSub() *subscriber {
	return &subscriber{send: make(chan []byte, sendBufferSize)}
}

func startRoom(t *testing.T, turnTimeout time.Duration) *Room {
	t.Helper()
	g := game.New(uuid.New(), "creator", 1, game.Policy{})
	r := newRoom(g, nil, turnTimeout)
	go r.Run()
	t.Cleanup(r.Stop)
	return r
}

// nextEvent reads the next queued event for the subscriber and returns its
// decoded type tag plus the raw payload.
func nextEvent(t *testing.T, sub *subscriber) (string, []byte) {
	t.Helper()
	select {
	case data := <-sub.send:
		var tagged struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &tagged))
		return tagged.Type, data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return "", nil
	}
}

func TestConnectSendsSnapshotFirst(t *testing.T) {
	r := startRoom(t, 0)
	sub := newTestSub()

	require.NoError(t, r.Connect(uuid.New(), "alice", sub))

	typ, raw := nextEvent(t, sub)
	require.Equal(t, EventSnapshot, typ)

	var ev struct {
		Game GameView `json:"game"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	require.Equal(t, "waiting_for_players", ev.Game.Status)
	require.Len(t, ev.Game.Players, 1)
}

func TestJoinBroadcast(t *testing.T) {
	r := startRoom(t, 0)
	first := newTestSub()
	second := newTestSub()

	require.NoError(t, r.Connect(uuid.New(), "alice", first))
	typ, _ := nextEvent(t, first)
	require.Equal(t, EventSnapshot, typ)

	require.NoError(t, r.Connect(uuid.New(), "bob", second))

	typ, _ = nextEvent(t, first)
	require.Equal(t, EventPlayerJoined, typ)

	typ, _ = nextEvent(t, second)
	require.Equal(t, EventSnapshot, typ)
	typ, _ = nextEvent(t, second)
	require.Equal(t, EventPlayerJoined, typ)
}

func TestReconnectIsIdempotent(t *testing.T) {
	r := startRoom(t, 0)
	playerID := uuid.New()

	first := newTestSub()
	require.NoError(t, r.Connect(playerID, "alice", first))

	second := newTestSub()
	require.NoError(t, r.Connect(playerID, "alice", second))

	view, err := r.View()
	require.NoError(t, err)
	require.Len(t, view.Players, 1, "a reconnect must not seat the player twice")
}

func TestStartCommand(t *testing.T) {
	r := startRoom(t, 0)
	alice := uuid.New()
	sub := newTestSub()
	require.NoError(t, r.Connect(alice, "alice", sub))

	t.Run("needs two players", func(t *testing.T) {
		err := r.Submit(alice, Command{Type: CmdStart})
		require.ErrorIs(t, err, game.ErrNotEnoughPlayers)
	})

	t.Run("broadcasts game started", func(t *testing.T) {
		bob := newTestSub()
		require.NoError(t, r.Connect(uuid.New(), "bob", bob))
		require.NoError(t, r.Submit(alice, Command{Type: CmdStart}))

		for {
			typ, raw := nextEvent(t, sub)
			if typ != EventGameStarted {
				continue
			}
			var ev struct {
				Game GameView `json:"game"`
			}
			require.NoError(t, json.Unmarshal(raw, &ev))
			require.Equal(t, "in_progress", ev.Game.Status)
			require.NotEmpty(t, ev.Game.Areas)
			return
		}
	})
}

func TestStartFromOutsiderRejected(t *testing.T) {
	r := startRoom(t, 0)
	sub := newTestSub()
	require.NoError(t, r.Connect(uuid.New(), "alice", sub))

	err := r.Submit(uuid.New(), Command{Type: CmdStart})
	require.ErrorIs(t, err, game.ErrUnknownPlayer)
}

func TestUnknownCommandRejected(t *testing.T) {
	r := startRoom(t, 0)
	alice := uuid.New()
	sub := newTestSub()
	require.NoError(t, r.Connect(alice, "alice", sub))

	require.Error(t, r.Submit(alice, Command{Type: "teleport"}))
}

func TestConcurrentEndTurn(t *testing.T) {
	r := startRoom(t, 0)
	alice, bob := uuid.New(), uuid.New()
	require.NoError(t, r.Connect(alice, "alice", newTestSub()))
	require.NoError(t, r.Connect(bob, "bob", newTestSub()))
	require.NoError(t, r.Submit(alice, Command{Type: CmdStart}))

	view, err := r.View()
	require.NoError(t, err)
	current := view.Players[view.Turn].ID

	// Two racing submissions for the same player: inbox ordering must let
	// exactly one through.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Submit(current, Command{Type: CmdEndTurn})
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			require.ErrorIs(t, err, game.ErrNotPlayersTurn)
		}
	}
	require.Equal(t, 1, okCount)
}

func TestAutoStartWhenFull(t *testing.T) {
	r := startRoom(t, 0)
	subs := make([]*subscriber, game.MaxPlayers)
	for i := range subs {
		subs[i] = newTestSub()
		require.NoError(t, r.Connect(uuid.New(), "p", subs[i]))
	}

	require.Eventually(t, func() bool {
		view, err := r.View()
		return err == nil && view.Status == "in_progress"
	}, 2*time.Second, 10*time.Millisecond, "a full table must start on its own")
}

func TestTurnClockForcesEndTurn(t *testing.T) {
	r := startRoom(t, 50*time.Millisecond)
	alice, bob := uuid.New(), uuid.New()
	require.NoError(t, r.Connect(alice, "alice", newTestSub()))
	require.NoError(t, r.Connect(bob, "bob", newTestSub()))
	require.NoError(t, r.Submit(alice, Command{Type: CmdStart}))

	view, err := r.View()
	require.NoError(t, err)
	startTurn := view.Turn

	require.Eventually(t, func() bool {
		v, err := r.View()
		return err == nil && v.Turn != startTurn
	}, 2*time.Second, 10*time.Millisecond, "expiry must advance the turn")
}

func TestClosedRoomRejectsSubmissions(t *testing.T) {
	r := startRoom(t, 0)
	r.Stop()

	err := r.Submit(uuid.New(), Command{Type: CmdEndTurn})
	require.ErrorIs(t, err, ErrRoomClosed)

	_, err = r.View()
	require.ErrorIs(t, err, ErrRoomClosed)
}
