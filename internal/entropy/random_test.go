package entropy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSourceDeterministic(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Int63(), b.Int63())
	}
}

func TestNewSeedVaries(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSeederDerived(t *testing.T) {
	a := NewSeeder(7)
	b := NewSeeder(7)

	for i := 0; i < 5; i++ {
		require.Equal(t, a.GameSeed(), b.GameSeed())
	}
	require.NotEqual(t, a.GameSeed(), NewSeeder(8).GameSeed())
}

func TestSeederCrypto(t *testing.T) {
	s := NewSeeder(0)
	require.NotEqual(t, s.GameSeed(), s.GameSeed())
}
