// Package dice implements dice rolling and attack outcome computation.
// Resolution is pure: the caller applies the outcome to the board.
package dice

import "math/rand"

// Sides is the number of faces on every game die.
const Sides = 6

// Roll captures the result of rolling a handful of dice. Per-die values are
// kept so clients can show the rolls, not just the totals.
type Roll struct {
	Dice  []int `json:"dice"`
	Total int   `json:"total"`
}

// RollDice draws n independent uniform rolls in [1, Sides] from rng.
func RollDice(rng *rand.Rand, n int) Roll {
	roll := Roll{Dice: make([]int, n)}
	for i := range roll.Dice {
		v := rng.Intn(Sides) + 1
		roll.Dice[i] = v
		roll.Total += v
	}
	return roll
}

// Outcome is the result of one resolved attack. Captured is true only when
// the attack total strictly exceeds the defense total; ties repel.
type Outcome struct {
	Attack   Roll `json:"attack"`
	Defense  Roll `json:"defense"`
	Captured bool `json:"captured"`
}

// ResolveAttack rolls attackerDice against defenderDice. Preconditions
// (ownership, adjacency, attacker dice >= 2) are validated by the caller.
func ResolveAttack(rng *rand.Rand, attackerDice, defenderDice int) Outcome {
	attack := RollDice(rng, attackerDice)
	defense := RollDice(rng, defenderDice)
	return Outcome{
		Attack:   attack,
		Defense:  defense,
		Captured: attack.Total > defense.Total,
	}
}
