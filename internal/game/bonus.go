package game

import (
	"github.com/google/uuid"
)

// distribute places pool dice (the connected-region bonus plus the player's
// stored reserve) one at a time onto uniformly random owned areas below the
// per-area cap, until the pool is exhausted or no eligible area remains.
// Returns the areas that grew with their new dice counts, and the leftover
// pool. A player with zero owned areas gets nothing; that state coincides
// with elimination.
func (g *Game) distribute(p *Player, bonus int) (map[uuid.UUID]int, int) {
	pool := bonus + p.TakeReserve()
	reinforced := make(map[uuid.UUID]int)

	owned := g.Board.AreasOwnedBy(p.ID)
	for pool > 0 {
		eligible := owned[:0:0]
		for _, a := range owned {
			if !a.Stack.Full() {
				eligible = append(eligible, a)
			}
		}
		if len(eligible) == 0 {
			break
		}

		a := eligible[g.rng.Intn(len(eligible))]
		if err := a.Stack.Increment(); err != nil {
			// Eligible areas are below the cap, so Increment cannot fail.
			break
		}
		reinforced[a.ID] = a.Stack.Count()
		pool--
	}

	return reinforced, pool
}
