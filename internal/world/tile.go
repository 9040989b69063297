// Package world provides the hex tile grid, areas, and the board adjacency
// graph for the dice game. Uses axial coordinates (q, r) for the hex grid.
package world

// Tile is a position on the hex grid in axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type Tile struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (t Tile) S() int {
	return -t.Q - t.R
}

// tileDirections defines the six neighbor offsets in axial coordinates.
var tileDirections = [6]Tile{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent tile coordinates.
func (t Tile) Neighbors() [6]Tile {
	var result [6]Tile
	for i, dir := range tileDirections {
		result[i] = Tile{Q: t.Q + dir.Q, R: t.R + dir.R}
	}
	return result
}

// Adjacent reports whether two tiles share an edge.
func (t Tile) Adjacent(other Tile) bool {
	return Distance(t, other) == 1
}

// Distance returns the hex distance between two tiles.
func Distance(a, b Tile) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	ds := a.S() - b.S()
	if dq < 0 {
		dq = -dq
	}
	if dr < 0 {
		dr = -dr
	}
	if ds < 0 {
		ds = -ds
	}
	// Max of the three absolute differences in cube coordinates.
	max := dq
	if dr > max {
		max = dr
	}
	if ds > max {
		max = ds
	}
	return max
}
