package codenames

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordPool(t *testing.T) {
	seen := make(map[string]bool, len(WordPool))
	for _, w := range WordPool {
		assert.False(t, seen[w], "duplicate word %q", w)
		seen[w] = true
	}
	assert.GreaterOrEqual(t, len(WordPool), 200)
}

func TestGenerateKeyCounts(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for _, start := range []Team{Red, Blue} {
		for range 200 {
			key := GenerateKey(r, start)
			require.Len(t, key, BoardSize)

			counts := make(map[CardType]int)
			for _, c := range key {
				counts[c]++
			}

			assert.Equal(t, 9, counts[cardTypeFor(start)])
			assert.Equal(t, 8, counts[cardTypeFor(start.Other())])
			assert.Equal(t, 7, counts[CardBystander])
			assert.Equal(t, 1, counts[CardAssassin])
		}
	}
}

func TestGenerateKeyIsShuffled(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))

	positions := make(map[int]bool)
	for range 100 {
		for i, c := range GenerateKey(r, Red) {
			if c == CardAssassin {
				positions[i] = true
			}
		}
	}

	assert.Greater(t, len(positions), 1)
}

func TestGenerateBoard(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))

	for range 200 {
		words, err := GenerateBoard(r, WordPool)
		require.NoError(t, err)
		require.Len(t, words, BoardSize)

		seen := make(map[string]bool)
		for _, w := range words {
			assert.False(t, seen[w], "duplicate word %q", w)
			seen[w] = true
		}
	}
}

func TestGenerateBoardDoesNotTouchPool(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	pool := append([]string(nil), WordPool...)

	_, err := GenerateBoard(r, pool)
	require.NoError(t, err)

	assert.Equal(t, WordPool, pool)
}

func TestGenerateBoardSmallPool(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))

	pool := append([]string(nil), WordPool[:BoardSize-1]...)
	pool = append(pool, pool[0])

	_, err := GenerateBoard(r, pool)
	assert.Error(t, err)

	words, err := GenerateBoard(r, WordPool[:BoardSize])
	require.NoError(t, err)
	assert.ElementsMatch(t, WordPool[:BoardSize], words)
}

func TestPickStartingTeam(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))

	seen := make(map[Team]int)
	for range 100 {
		seen[PickStartingTeam(r)]++
	}

	assert.Len(t, seen, 2)
	assert.Positive(t, seen[Red])
	assert.Positive(t, seen[Blue])
}
