package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/band"
	"github.com/herlein/glockcore/pkg/freqmap"
	"github.com/herlein/glockcore/pkg/glock"
	"github.com/herlein/glockcore/pkg/modeswitch"
	"github.com/herlein/glockcore/pkg/sequence"
)

func newTestLink(t *testing.T) *Link {
	t.Helper()
	cfg := antijam.Config{
		WindowSizePackets:       100,
		WindowDurationMs:        1000,
		WindowMode:              antijam.ByCount,
		JamThresholdPercent:     30,
		MinBadPackets:           5,
		ConsecutiveWindowsToJam: 1,
		MinTimeBetweenRecoMs:    1,
	}
	d, err := antijam.NewDetector(100, cfg)
	require.NoError(t, err)

	table, err := sequence.Generate(7, 50, 0)
	require.NoError(t, err)
	fm := freqmap.New(band.ISM433, freqmap.ScaleDirectHz, 5000)
	b := glock.New(table, fm)

	sw := modeswitch.New(0)

	return New(d, sw, b, nil)
}

func TestEnableResetsDetector(t *testing.T) {
	l := newTestLink(t)

	for i := 0; i < 100; i++ {
		bad := i%10 < 5
		l.Detector.RegisterPacket(!bad, uint32(i))
	}
	require.NotEqual(t, uint32(0), l.Detector.BadCount())

	l.Switch.SetEnabled(true, 0)
	assert.Equal(t, uint32(0), l.Detector.BadCount())
	assert.Equal(t, antijam.NotJammed, l.Detector.LastReport().State)
}

func TestRecommendationIgnoredWhileDisabled(t *testing.T) {
	l := newTestLink(t)
	startCursor := l.Barrier.SyncedIndex()

	for i := 0; i < 100; i++ {
		bad := i%10 < 3
		l.Detector.RegisterPacket(!bad, uint32(i))
	}

	assert.Equal(t, startCursor, l.Barrier.SyncedIndex(), "no hop while disabled")
}

func TestRecommendationTriggersHopWhileEnabled(t *testing.T) {
	l := newTestLink(t)
	l.Switch.SetEnabled(true, 0)
	startCursor := l.Barrier.SyncedIndex()

	for i := 0; i < 100; i++ {
		bad := i%10 < 3
		l.Detector.RegisterPacket(!bad, uint32(i))
	}

	assert.Equal(t, (startCursor+1)%sequence.Length, l.Barrier.SyncedIndex())
}

func TestOnHopObserverFiresOnEveryHop(t *testing.T) {
	l := newTestLink(t)
	l.Switch.SetEnabled(true, 0)

	hops := 0
	l.OnHop(func() { hops++ })

	l.ForceSyncedHop()
	assert.Equal(t, 1, hops)

	for i := 0; i < 100; i++ {
		bad := i%10 < 3
		l.Detector.RegisterPacket(!bad, uint32(i))
	}
	assert.Equal(t, 2, hops)
}

func TestOnRecommendObserverFiresEvenWhenDisabled(t *testing.T) {
	l := newTestLink(t)

	var fired []bool
	l.OnRecommend(func(antijam.HopSuggestion) { fired = append(fired, true) })

	for i := 0; i < 100; i++ {
		bad := i%10 < 3
		l.Detector.RegisterPacket(!bad, uint32(i))
	}

	require.NotEmpty(t, fired)
	assert.Equal(t, 0, l.Barrier.SyncedIndex(), "observer fires, but the link itself stays disabled")
}

func TestForceSyncedHopHonorsEnabled(t *testing.T) {
	l := newTestLink(t)

	ok := l.ForceSyncedHop()
	assert.False(t, ok)

	l.Switch.SetEnabled(true, 0)
	startCursor := l.Barrier.SyncedIndex()

	ok = l.ForceSyncedHop()
	assert.True(t, ok)
	assert.Equal(t, (startCursor+1)%sequence.Length, l.Barrier.SyncedIndex())
}
