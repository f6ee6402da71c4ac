package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_MonotonicWithinSecond(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	g := New(7)
	g.now = func() time.Time { return fixed }

	first := g.NextID()
	second := g.NextID()
	assert.Equal(t, first+1, second)
	assert.Equal(t, int64(7), (first/1000)%100)
}

func TestGenerator_ClockBackwards(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	g := New(1)
	g.now = func() time.Time { return now }
	a := g.NextID()

	now = now.Add(-time.Minute)
	b := g.NextID()
	assert.Greater(t, b, a)
}

func TestNew_MachineIDOutOfRange(t *testing.T) {
	assert.Equal(t, int64(0), New(120).machineID)
	assert.Equal(t, int64(0), New(-1).machineID)
}

func TestNewRateCardVersion(t *testing.T) {
	v := NewRateCardVersion(time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("IST", 19800)))
	require.Len(t, v, len("20261018T040000Z-")+8)
	assert.Equal(t, "20261018T040000Z-", v[:17])
}
