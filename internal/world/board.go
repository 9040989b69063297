package world

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// Board holds the generated areas and the undirected adjacency graph between
// them. The graph is static for the lifetime of a game; only area ownership
// and dice counts change. The adjacency sets and tile index are derived from
// the areas' tiles, so a board survives a JSON round trip intact.
type Board struct {
	areas     map[uuid.UUID]*Area
	adjacency map[uuid.UUID]map[uuid.UUID]bool
	tileIndex map[Tile]uuid.UUID
}

// NewBoard builds a board over the given areas, indexing tiles and deriving
// adjacency from shared tile borders.
func NewBoard(areas []*Area) *Board {
	b := &Board{
		areas:     make(map[uuid.UUID]*Area, len(areas)),
		adjacency: make(map[uuid.UUID]map[uuid.UUID]bool, len(areas)),
		tileIndex: make(map[Tile]uuid.UUID),
	}
	for _, a := range areas {
		b.areas[a.ID] = a
		b.adjacency[a.ID] = make(map[uuid.UUID]bool)
		for _, t := range a.Tiles {
			b.tileIndex[t] = a.ID
		}
	}
	for _, a := range areas {
		for _, t := range a.Tiles {
			for _, nt := range t.Neighbors() {
				if otherID, ok := b.tileIndex[nt]; ok && otherID != a.ID {
					b.adjacency[a.ID][otherID] = true
					b.adjacency[otherID][a.ID] = true
				}
			}
		}
	}
	return b
}

// Area returns the area with the given ID.
func (b *Board) Area(id uuid.UUID) (*Area, bool) {
	a, ok := b.areas[id]
	return a, ok
}

// AreaCount returns the number of areas on the board.
func (b *Board) AreaCount() int {
	return len(b.areas)
}

// AreaIDs returns every area ID in a stable order.
func (b *Board) AreaIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.areas))
	for id := range b.areas {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Neighbors returns the IDs of areas sharing a border with the given area,
// in a stable order.
func (b *Board) Neighbors(id uuid.UUID) []uuid.UUID {
	set, ok := b.adjacency[id]
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(set))
	for nid := range set {
		ids = append(ids, nid)
	}
	sortIDs(ids)
	return ids
}

// Adjacent reports whether two areas share a tile border.
func (b *Board) Adjacent(a, c uuid.UUID) bool {
	return b.adjacency[a][c]
}

// Owner returns the owner of the given area, or false for an unknown area.
func (b *Board) Owner(id uuid.UUID) (uuid.UUID, bool) {
	a, ok := b.areas[id]
	if !ok {
		return uuid.Nil, false
	}
	return a.Owner, true
}

// AreasOwnedBy returns the player's areas in a stable order.
func (b *Board) AreasOwnedBy(playerID uuid.UUID) []*Area {
	var owned []*Area
	for _, a := range b.areas {
		if a.OwnedBy(playerID) {
			owned = append(owned, a)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return lessID(owned[i].ID, owned[j].ID)
	})
	return owned
}

// OwnedCount returns how many areas the player holds.
func (b *Board) OwnedCount(playerID uuid.UUID) int {
	n := 0
	for _, a := range b.areas {
		if a.OwnedBy(playerID) {
			n++
		}
	}
	return n
}

// Connected reports whether the adjacency graph forms a single component
// over all areas. Generated maps must satisfy this.
func (b *Board) Connected() bool {
	if len(b.areas) == 0 {
		return false
	}
	var start uuid.UUID
	for id := range b.areas {
		start = id
		break
	}
	visited := map[uuid.UUID]bool{start: true}
	frontier := []uuid.UUID{start}
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for nid := range b.adjacency[id] {
			if !visited[nid] {
				visited[nid] = true
				frontier = append(frontier, nid)
			}
		}
	}
	return len(visited) == len(b.areas)
}

// LargestConnectedGroup returns the size of the player's largest connected
// same-owner component: the biggest set of their areas mutually reachable
// through same-owner adjacency edges.
func (b *Board) LargestConnectedGroup(playerID uuid.UUID) int {
	visited := make(map[uuid.UUID]bool)
	largest := 0
	for id, a := range b.areas {
		if !a.OwnedBy(playerID) || visited[id] {
			continue
		}
		size := 0
		frontier := []uuid.UUID{id}
		visited[id] = true
		for len(frontier) > 0 {
			cur := frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
			size++
			for nid := range b.adjacency[cur] {
				if !visited[nid] && b.areas[nid].OwnedBy(playerID) {
					visited[nid] = true
					frontier = append(frontier, nid)
				}
			}
		}
		if size > largest {
			largest = size
		}
	}
	return largest
}

type boardJSON struct {
	Areas []*Area `json:"areas"`
}

// MarshalJSON encodes the board as its area list; adjacency and the tile
// index are derived data and rebuilt on decode.
func (b *Board) MarshalJSON() ([]byte, error) {
	areas := make([]*Area, 0, len(b.areas))
	for _, id := range b.AreaIDs() {
		areas = append(areas, b.areas[id])
	}
	return json.Marshal(boardJSON{Areas: areas})
}

// UnmarshalJSON rebuilds the board, including indexes, from an area list.
func (b *Board) UnmarshalJSON(data []byte) error {
	var bj boardJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return err
	}
	*b = *NewBoard(bj.Areas)
	return nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
}

func lessID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
