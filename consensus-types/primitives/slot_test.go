package primitives_test

import (
	"math"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestSlot_SafeAdd(t *testing.T) {
	s, err := primitives.Slot(10).SafeAdd(5)
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(15), s)

	_, err = primitives.Slot(math.MaxUint64).SafeAdd(1)
	require.ErrorContains(t, "addition overflow", err)
}

func TestSlot_SafeSub(t *testing.T) {
	s, err := primitives.Slot(10).SafeSub(5)
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(5), s)

	_, err = primitives.Slot(1).SafeSub(2)
	require.ErrorContains(t, "subtraction underflow", err)
	assert.Equal(t, primitives.Slot(0), primitives.Slot(1).SubSlot(2))
}

func TestSlot_SafeMul(t *testing.T) {
	_, err := primitives.Slot(math.MaxUint64).SafeMul(2)
	require.ErrorContains(t, "multiplication overflow", err)
	s, err := primitives.Slot(3).SafeMul(4)
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(12), s)
}

func TestPayloadStatus_String(t *testing.T) {
	assert.Equal(t, "PENDING", primitives.PayloadPending.String())
	assert.Equal(t, "EMPTY", primitives.PayloadEmpty.String())
	assert.Equal(t, "FULL", primitives.PayloadFull.String())
	assert.Equal(t, "UNKNOWN", primitives.PayloadStatus(9).String())
}
