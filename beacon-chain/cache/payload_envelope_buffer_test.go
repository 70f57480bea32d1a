package cache

import (
	"testing"
	"time"

	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func envelopeFor(slot primitives.Slot, builder primitives.BuilderIndex, root byte) *epbs.SignedExecutionPayloadEnvelope {
	return &epbs.SignedExecutionPayloadEnvelope{
		Message: &epbs.ExecutionPayloadEnvelope{
			Payload:         &epbs.ExecutionPayload{},
			BuilderIndex:    builder,
			BeaconBlockRoot: [32]byte{root},
			Slot:            slot,
		},
	}
}

func TestPayloadEnvelopeBuffer_AddTake(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	b := NewPayloadEnvelopeBuffer()

	stored, err := b.Add(envelopeFor(5, 2, 'a'))
	require.NoError(t, err)
	assert.Equal(t, true, stored)
	stored, err = b.Add(envelopeFor(5, 2, 'a'))
	require.NoError(t, err)
	assert.Equal(t, false, stored, "Same block root is buffered once")
	stored, err = b.Add(envelopeFor(5, 2, 'b'))
	require.NoError(t, err)
	assert.Equal(t, true, stored)
	assert.Equal(t, 1, b.Len())

	_, ok := b.Take(5, 3, [32]byte{'a'})
	assert.Equal(t, false, ok, "Wrong builder")
	_, ok = b.Take(5, 2, [32]byte{'c'})
	assert.Equal(t, false, ok, "Wrong block root")

	env, ok := b.Take(5, 2, [32]byte{'b'})
	require.Equal(t, true, ok)
	assert.Equal(t, [32]byte{'b'}, env.Message.BeaconBlockRoot)
	_, ok = b.Take(5, 2, [32]byte{'b'})
	assert.Equal(t, false, ok, "Taken envelopes are removed")

	env, ok = b.Take(5, 2, [32]byte{'a'})
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Slot(5), env.Message.Slot)
	assert.Equal(t, 0, b.Len())
}

func TestPayloadEnvelopeBuffer_BoundedPerKey(t *testing.T) {
	b := NewPayloadEnvelopeBufferWithTTL(time.Minute)
	for i := 0; i < maxEnvelopesPerKey; i++ {
		stored, err := b.Add(envelopeFor(1, 1, byte(i)))
		require.NoError(t, err)
		require.Equal(t, true, stored)
	}
	stored, err := b.Add(envelopeFor(1, 1, 'z'))
	require.NoError(t, err)
	assert.Equal(t, false, stored)
}

func TestPayloadEnvelopeBuffer_Expires(t *testing.T) {
	b := NewPayloadEnvelopeBufferWithTTL(20 * time.Millisecond)
	_, err := b.Add(envelopeFor(1, 1, 'a'))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, ok := b.Take(1, 1, [32]byte{'a'})
	assert.Equal(t, false, ok)
}

func TestPayloadEnvelopeBuffer_Nil(t *testing.T) {
	b := NewPayloadEnvelopeBufferWithTTL(time.Minute)
	_, err := b.Add(nil)
	require.ErrorIs(t, err, ErrNilEnvelope)
	_, err = b.Add(&epbs.SignedExecutionPayloadEnvelope{})
	require.ErrorIs(t, err, ErrNilEnvelope)
}
