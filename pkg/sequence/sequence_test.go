package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(1234, 50, 3)
	require.NoError(t, err)
	b, err := Generate(1234, 50, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateDifferentSeedsDiverge(t *testing.T) {
	a, err := Generate(1, 50, 3)
	require.NoError(t, err)
	b, err := Generate(2, 50, 3)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateSyncSlotsAndBalance(t *testing.T) {
	const n = 50
	const sync = 7
	table, err := Generate(42, n, sync)
	require.NoError(t, err)

	counts := make(map[uint16]int)
	for i, ch := range table {
		if IsSyncSlot(i, n) {
			assert.Equal(t, uint16(sync), ch, "slot %d should be the sync channel", i)
			continue
		}
		assert.NotEqual(t, uint16(sync), ch, "non-sync slot %d must not be the sync channel", i)
		counts[ch]++
	}

	// Every non-sync channel should appear roughly the same number of times
	// across the 250 non-sync slots (+/-1, per spec §8).
	var min, max int = 1 << 30, -1
	for ch := uint16(0); ch < n; ch++ {
		if ch == sync {
			continue
		}
		c := counts[ch]
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	assert.LessOrEqual(t, max-min, 1, "non-sync channel counts should differ by at most one")
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	_, err := Generate(1, 1, 0)
	assert.Error(t, err)

	_, err = Generate(1, 10, 10)
	assert.Error(t, err)
}

func TestGeneratePropertiesHoldForArbitraryInputs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint32().Draw(t, "seed")
		n := rapid.Uint16Range(2, 255).Draw(t, "n")
		sync := rapid.Uint16Range(0, n-1).Draw(t, "sync")

		table, err := Generate(seed, n, sync)
		require.NoError(t, err)

		for i, ch := range table {
			if IsSyncSlot(i, n) {
				assert.Equal(t, sync, ch)
			} else {
				assert.Less(t, ch, n)
				assert.NotEqual(t, sync, ch)
			}
		}

		again, err := Generate(seed, n, sync)
		require.NoError(t, err)
		assert.Equal(t, table, again)
	})
}
