package clockutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSinceNoWrap(t *testing.T) {
	assert.Equal(t, uint32(50), Since(150, 100))
}

func TestSinceAcrossWrap(t *testing.T) {
	past := uint32(math.MaxUint32 - 10)
	now := uint32(5)
	assert.Equal(t, uint32(16), Since(now, past))
}

func TestElapsed(t *testing.T) {
	assert.True(t, Elapsed(1000, 0, 1000))
	assert.False(t, Elapsed(999, 0, 1000))
}

func TestElapsedToleratesWrap(t *testing.T) {
	past := uint32(math.MaxUint32 - 100)
	now := uint32(100)
	assert.True(t, Elapsed(now, past, 200))
	assert.False(t, Elapsed(now, past, 202))
}

func TestSinceMonotoneUnderWrap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		past := rapid.Uint32().Draw(t, "past")
		delta := rapid.Uint32Range(0, math.MaxUint32/2).Draw(t, "delta")
		now := past + delta
		assert.Equal(t, delta, Since(now, past))
	})
}
