package world

// Board generation: a simplex-noise landmass is partitioned into contiguous
// areas by seeded region growing, then validated for connectivity.

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ErrMapGeneration is returned when no connected board could be produced
// within the retry bound. It is fatal to game creation and never downgraded
// to a broken map.
var ErrMapGeneration = errors.New("could not generate a connected board")

const (
	// maxGenerateAttempts bounds regeneration with derived seeds before
	// generation is reported as failed.
	maxGenerateAttempts = 16

	// tilesPerArea is the average area size the partitioner aims for.
	tilesPerArea = 6

	// landThreshold is the noise cutoff below which a tile is discarded
	// from the playfield outline.
	landThreshold = 0.38

	// minSeedDistance spaces region seeds so areas grow roughly evenly.
	minSeedDistance = 2
)

// targetAreaCount scales the board with the number of players.
func targetAreaCount(playerCount int) int {
	return 8 + 5*playerCount
}

// Generate produces a connected board for the given player count. The same
// seed always yields the same board. Generation retries with derived seeds
// up to maxGenerateAttempts; exhaustion returns ErrMapGeneration.
func Generate(playerCount int, seed int64) (*Board, error) {
	return generate(playerCount, seed, maxGenerateAttempts, generateOnce)
}

// generate runs the bounded retry loop over a board builder, deriving a
// fresh seed per attempt.
func generate(playerCount int, seed int64, attempts int, build func(playerCount int, seed int64) (*Board, error)) (*Board, error) {
	for attempt := 0; attempt < attempts; attempt++ {
		board, err := build(playerCount, seed+int64(attempt)*1000003)
		if err == nil {
			return board, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts (player_count=%d seed=%d)",
		ErrMapGeneration, attempts, playerCount, seed)
}

func generateOnce(playerCount int, seed int64) (*Board, error) {
	targetAreas := targetAreaCount(playerCount)
	tileBudget := targetAreas * tilesPerArea
	radius := radiusForBudget(tileBudget * 2)

	land := landmass(radius, seed)
	if len(land) < tileBudget {
		return nil, fmt.Errorf("landmass too small: %d tiles for budget %d", len(land), tileBudget)
	}

	rng := rand.New(rand.NewSource(seed))
	claims := partition(land, targetAreas, rng)

	areas := make([]*Area, 0, len(claims))
	for _, tiles := range claims {
		areas = append(areas, NewArea(tiles))
	}

	board := NewBoard(areas)
	if board.AreaCount() < playerCount || !board.Connected() {
		return nil, fmt.Errorf("board not connected (%d areas)", board.AreaCount())
	}
	return board, nil
}

// radiusForBudget returns the smallest hex radius whose grid holds at least
// the requested tile count. A radius-r grid has 3r(r+1)+1 tiles.
func radiusForBudget(budget int) int {
	r := 1
	for 3*r*(r+1)+1 < budget {
		r++
	}
	return r
}

// landmass thresholds octave noise over the hex grid into an organic
// playfield outline and keeps the largest connected tile component.
func landmass(radius int, seed int64) []Tile {
	noise := opensimplex.NewNormalized(seed)

	var land []Tile
	inLand := make(map[Tile]bool)
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			t := Tile{Q: q, R: r}
			if Distance(t, Tile{}) > radius {
				continue
			}

			// Hex axial to cartesian for noise sampling.
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			v := octaveNoise(noise, x, y, 4, 0.11, 0.5)

			// Edge falloff so the playfield stays away from the rim.
			dist := math.Sqrt(x*x+y*y) / float64(radius)
			v *= 1.0 - math.Pow(dist, 3.0)

			if v >= landThreshold {
				land = append(land, t)
				inLand[t] = true
			}
		}
	}

	return largestTileComponent(land, inLand)
}

func largestTileComponent(tiles []Tile, inLand map[Tile]bool) []Tile {
	visited := make(map[Tile]bool, len(tiles))
	var best []Tile
	for _, start := range tiles {
		if visited[start] {
			continue
		}
		component := []Tile{start}
		visited[start] = true
		for i := 0; i < len(component); i++ {
			for _, nt := range component[i].Neighbors() {
				if inLand[nt] && !visited[nt] {
					visited[nt] = true
					component = append(component, nt)
				}
			}
		}
		if len(component) > len(best) {
			best = component
		}
	}
	return best
}

// partition splits the landmass into targetAreas contiguous tile clusters:
// scattered seed tiles flood-fill randomly until a per-area tile target is
// met or no unclaimed neighbor remains, then leftovers merge into the
// smallest adjacent cluster.
func partition(land []Tile, targetAreas int, rng *rand.Rand) [][]Tile {
	sortTiles(land)
	perArea := len(land) / targetAreas

	seeds := scatterSeeds(land, targetAreas, rng)
	claims := make([][]Tile, len(seeds))
	claimedBy := make(map[Tile]int, len(land))
	frontiers := make([][]Tile, len(seeds))
	for i, s := range seeds {
		claims[i] = []Tile{s}
		claimedBy[s] = i
		frontiers[i] = []Tile{s}
	}
	inLand := make(map[Tile]bool, len(land))
	for _, t := range land {
		inLand[t] = true
	}

	// Round-robin growth keeps area sizes close to the per-area target.
	for grew := true; grew; {
		grew = false
		for i := range claims {
			if len(claims[i]) >= perArea {
				continue
			}
			if growOne(i, claims, claimedBy, frontiers, inLand, rng) {
				grew = true
			}
		}
	}

	mergeLeftovers(land, claims, claimedBy)
	return claims
}

// growOne claims one random unclaimed neighbor on area i's frontier.
func growOne(i int, claims [][]Tile, claimedBy map[Tile]int, frontiers [][]Tile, inLand map[Tile]bool, rng *rand.Rand) bool {
	frontier := frontiers[i]
	for len(frontier) > 0 {
		j := rng.Intn(len(frontier))
		var open []Tile
		for _, nt := range frontier[j].Neighbors() {
			if inLand[nt] {
				if _, taken := claimedBy[nt]; !taken {
					open = append(open, nt)
				}
			}
		}
		if len(open) == 0 {
			// Interior tile, drop it from the frontier.
			frontier[j] = frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
			continue
		}
		chosen := open[rng.Intn(len(open))]
		claims[i] = append(claims[i], chosen)
		claimedBy[chosen] = i
		frontiers[i] = append(frontier, chosen)
		return true
	}
	frontiers[i] = frontier
	return false
}

// scatterSeeds picks seed tiles with a minimum pairwise distance, relaxing
// the spacing constraint if the landmass is too tight.
func scatterSeeds(land []Tile, count int, rng *rand.Rand) []Tile {
	shuffled := make([]Tile, len(land))
	copy(shuffled, land)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for spacing := minSeedDistance; spacing >= 0; spacing-- {
		var seeds []Tile
		for _, t := range shuffled {
			ok := true
			for _, s := range seeds {
				if Distance(t, s) <= spacing {
					ok = false
					break
				}
			}
			if ok {
				seeds = append(seeds, t)
				if len(seeds) == count {
					return seeds
				}
			}
		}
	}
	if len(shuffled) > count {
		return shuffled[:count]
	}
	return shuffled
}

// mergeLeftovers assigns every unclaimed tile to the smallest adjacent
// cluster, sweeping until none remain. The landmass is connected, so every
// leftover eventually borders a claimed tile.
func mergeLeftovers(land []Tile, claims [][]Tile, claimedBy map[Tile]int) {
	for {
		merged := false
		remaining := false
		for _, t := range land {
			if _, taken := claimedBy[t]; taken {
				continue
			}
			best := -1
			for _, nt := range t.Neighbors() {
				if i, ok := claimedBy[nt]; ok {
					if best == -1 || len(claims[i]) < len(claims[best]) {
						best = i
					}
				}
			}
			if best == -1 {
				remaining = true
				continue
			}
			claims[best] = append(claims[best], t)
			claimedBy[t] = best
			merged = true
		}
		if !remaining {
			return
		}
		if !merged {
			// Unreachable for a connected landmass; bail rather than spin.
			return
		}
	}
}

// AssignOwnersAndDice deals areas round-robin over a shuffled order, so
// ownership share differs by at most one area between any two players, and
// gives each area a uniformly random dice count in [MinDice, MaxDice].
func AssignOwnersAndDice(b *Board, playerIDs []uuid.UUID, rng *rand.Rand) {
	ids := b.AreaIDs()
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	for i, id := range ids {
		a, _ := b.Area(id)
		a.Owner = playerIDs[i%len(playerIDs)]
		a.Stack = NewStack(rng.Intn(MaxDice) + 1)
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func sortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Q != tiles[j].Q {
			return tiles[i].Q < tiles[j].Q
		}
		return tiles[i].R < tiles[j].R
	})
}
