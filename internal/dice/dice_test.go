package dice

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollDice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for n := 1; n <= 8; n++ {
		roll := RollDice(rng, n)
		require.Len(t, roll.Dice, n)

		sum := 0
		for _, v := range roll.Dice {
			require.GreaterOrEqual(t, v, 1)
			require.LessOrEqual(t, v, Sides)
			sum += v
		}
		require.Equal(t, sum, roll.Total)
	}
}

func TestRollDiceDeterministic(t *testing.T) {
	a := RollDice(rand.New(rand.NewSource(42)), 5)
	b := RollDice(rand.New(rand.NewSource(42)), 5)
	require.Equal(t, a, b)
}

func TestResolveAttack(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		outcome := ResolveAttack(rng, 3, 2)
		require.Len(t, outcome.Attack.Dice, 3)
		require.Len(t, outcome.Defense.Dice, 2)
		require.Equal(t, outcome.Attack.Total > outcome.Defense.Total, outcome.Captured,
			"capture must require a strictly greater attack total")
	}
}

func TestResolveAttackOverwhelming(t *testing.T) {
	// Eight dice cannot total less than or equal to one die.
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		require.True(t, ResolveAttack(rng, 8, 1).Captured)
	}
}
