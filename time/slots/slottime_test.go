package slots

import (
	"testing"
	"time"

	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestSlotsToEpoch(t *testing.T) {
	tests := []struct {
		slot  primitives.Slot
		epoch primitives.Epoch
	}{
		{slot: 0, epoch: 0},
		{slot: 31, epoch: 0},
		{slot: 32, epoch: 1},
		{slot: 200, epoch: 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.epoch, ToEpoch(tt.slot))
	}
}

func TestEpochStartEnd(t *testing.T) {
	start, err := EpochStart(3)
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(96), start)
	end, err := EpochEnd(3)
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(127), end)
	_, err = EpochStart(1 << 62)
	require.ErrorContains(t, "start slot calculation overflows", err)
	assert.Equal(t, true, IsEpochStart(64))
	assert.Equal(t, true, IsEpochEnd(63))
}

func TestMinimalConfigEpochs(t *testing.T) {
	params.UseMinimalConfig(t)
	assert.Equal(t, primitives.Epoch(2), ToEpoch(16))
}

func TestToTime(t *testing.T) {
	tm, err := ToTime(100, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(124), tm.Unix())
}

func TestSlotTicker(t *testing.T) {
	ticker := &SlotTicker{
		c:    make(chan primitives.Slot),
		done: make(chan struct{}),
	}
	defer ticker.Done()

	sinceDuration := 1 * time.Second
	since := func(time.Time) time.Duration {
		return sinceDuration
	}
	until := func(time.Time) time.Duration {
		return 7 * time.Second
	}
	// Make this a buffered channel to prevent a deadlock since
	// the other goroutine calls a function in this goroutine.
	tick := make(chan time.Time, 2)
	after := func(time.Duration) <-chan time.Time {
		return tick
	}

	genesisTime := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	ticker.start(genesisTime, 8, since, until, after)

	for want := primitives.Slot(0); want < 3; want++ {
		tick <- time.Now()
		slot := <-ticker.C()
		assert.Equal(t, want, slot)
	}
}
