package world

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func ownedArea(owner uuid.UUID, dice int, tiles ...Tile) *Area {
	a := NewArea(tiles)
	a.Owner = owner
	a.Stack = NewStack(dice)
	return a
}

func TestBoardAdjacency(t *testing.T) {
	a := NewArea([]Tile{{Q: 0, R: 0}})
	b := NewArea([]Tile{{Q: 1, R: 0}})
	c := NewArea([]Tile{{Q: 5, R: 5}})
	board := NewBoard([]*Area{a, b, c})

	require.True(t, board.Adjacent(a.ID, b.ID))
	require.True(t, board.Adjacent(b.ID, a.ID))
	require.False(t, board.Adjacent(a.ID, c.ID))

	require.Len(t, board.Neighbors(a.ID), 1)
	require.Empty(t, board.Neighbors(c.ID))
}

func TestBoardConnected(t *testing.T) {
	a := NewArea([]Tile{{Q: 0, R: 0}})
	b := NewArea([]Tile{{Q: 1, R: 0}})
	c := NewArea([]Tile{{Q: 2, R: 0}})
	require.True(t, NewBoard([]*Area{a, b, c}).Connected())

	isolated := NewArea([]Tile{{Q: 9, R: 9}})
	require.False(t, NewBoard([]*Area{a, b, isolated}).Connected())
}

func TestLargestConnectedGroup(t *testing.T) {
	p := uuid.New()
	q := uuid.New()

	// p holds a chain of three, then one area cut off by q's area.
	areas := []*Area{
		ownedArea(p, 2, Tile{Q: 0, R: 0}),
		ownedArea(p, 2, Tile{Q: 1, R: 0}),
		ownedArea(p, 2, Tile{Q: 2, R: 0}),
		ownedArea(q, 2, Tile{Q: 3, R: 0}),
		ownedArea(p, 2, Tile{Q: 4, R: 0}),
	}
	board := NewBoard(areas)

	require.True(t, board.Connected())
	require.Equal(t, 3, board.LargestConnectedGroup(p))
	require.Equal(t, 1, board.LargestConnectedGroup(q))
	require.Equal(t, 0, board.LargestConnectedGroup(uuid.New()))
}

func TestBoardOwnership(t *testing.T) {
	p := uuid.New()
	a := ownedArea(p, 3, Tile{Q: 0, R: 0})
	b := NewArea([]Tile{{Q: 1, R: 0}})
	board := NewBoard([]*Area{a, b})

	require.Equal(t, 1, board.OwnedCount(p))
	require.Len(t, board.AreasOwnedBy(p), 1)

	owner, ok := board.Owner(a.ID)
	require.True(t, ok)
	require.Equal(t, p, owner)

	_, ok = board.Owner(uuid.New())
	require.False(t, ok)
}

func TestBoardJSONRoundTrip(t *testing.T) {
	p := uuid.New()
	areas := []*Area{
		ownedArea(p, 4, Tile{Q: 0, R: 0}),
		ownedArea(p, 7, Tile{Q: 1, R: 0}),
		NewArea([]Tile{{Q: 2, R: 0}}),
	}
	board := NewBoard(areas)

	data, err := json.Marshal(board)
	require.NoError(t, err)

	var restored Board
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Equal(t, board.AreaCount(), restored.AreaCount())
	require.True(t, restored.Adjacent(areas[0].ID, areas[1].ID))
	require.True(t, restored.Connected())

	a, ok := restored.Area(areas[1].ID)
	require.True(t, ok)
	require.Equal(t, p, a.Owner)
	require.Equal(t, 7, a.Stack.Count())
}
