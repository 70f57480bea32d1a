package sync

import (
	"context"
	"testing"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
)

// withPTC sets the mock committee of the current slot and returns its first member.
func (env *testEnv) withPTC(t *testing.T) primitives.ValidatorIndex {
	ptc, err := epbs.GetPTC(context.Background(), env.st, 0)
	require.NoError(t, err)
	require.NotEqual(t, 0, len(ptc))
	env.chain.PTC = ptc
	return ptc[0]
}

func (env *testEnv) payloadAttestation(t *testing.T, idx primitives.ValidatorIndex, present bool) *epbstypes.PayloadAttestationMessage {
	data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: env.genesisRoot, Slot: 0, PayloadPresent: present}
	return util.GeneratePayloadAttestationMessage(t, env.st, data, idx, env.keys[idx])
}

func TestValidatePayloadAttestationMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{}
		want    pubsub.ValidationResult
		wantErr error
	}{
		{
			name: "valid vote",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				return env.payloadAttestation(t, member, true)
			},
			want: pubsub.ValidationAccept,
		},
		{
			name: "wrong message type",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				return &epbstypes.SignedExecutionPayloadBid{}
			},
			want:    pubsub.ValidationReject,
			wantErr: errWrongMessageType,
		},
		{
			name: "nil data",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				return &epbstypes.PayloadAttestationMessage{ValidatorIndex: member}
			},
			want:    pubsub.ValidationReject,
			wantErr: errNilMessage,
		},
		{
			name: "not the current slot",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: env.genesisRoot, Slot: 3, PayloadPresent: true}
				return util.GeneratePayloadAttestationMessage(t, env.st, data, member, env.keys[member])
			},
			want:    pubsub.ValidationIgnore,
			wantErr: errNotCurrentSlot,
		},
		{
			name: "unknown block",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: [32]byte{'u'}, Slot: 0, PayloadPresent: true}
				return util.GeneratePayloadAttestationMessage(t, env.st, data, member, env.keys[member])
			},
			want:    pubsub.ValidationIgnore,
			wantErr: errUnknownBlock,
		},
		{
			name: "not a committee member",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				m := env.payloadAttestation(t, member, true)
				m.ValidatorIndex = primitives.ValidatorIndex(1 << 20)
				return m
			},
			want:    pubsub.ValidationReject,
			wantErr: epbs.ErrNotInPTC,
		},
		{
			name: "bad signature",
			msg: func(t *testing.T, env *testEnv, member primitives.ValidatorIndex) interface{} {
				data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: env.genesisRoot, Slot: 0, PayloadPresent: true}
				other := (member + 1) % primitives.ValidatorIndex(len(env.keys))
				return util.GeneratePayloadAttestationMessage(t, env.st, data, member, env.keys[other])
			},
			want:    pubsub.ValidationReject,
			wantErr: epbs.ErrInvalidPayloadAttestationSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupService(t)
			member := env.withPTC(t)
			res, err := env.service.validatePayloadAttestationMessage(context.Background(), tt.msg(t, env, member))
			assert.Equal(t, tt.want, res)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatePayloadAttestationMessage_Equivocation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	s := env.service
	member := env.withPTC(t)

	present := env.payloadAttestation(t, member, true)
	assert.Equal(t, pubsub.ValidationAccept, s.OnGossip(ctx, PayloadAttestationTopic, present))
	require.Equal(t, 1, len(env.chain.PayloadAttestations()))

	res, err := s.validatePayloadAttestationMessage(ctx, present)
	assert.Equal(t, pubsub.ValidationIgnore, res)
	require.ErrorIs(t, err, errDuplicateMessage)

	absent := env.payloadAttestation(t, member, false)
	res, err = s.validatePayloadAttestationMessage(ctx, absent)
	assert.Equal(t, pubsub.ValidationReject, res)
	var equivocation *cache.ValidatorEquivocationError
	require.Equal(t, true, errors.As(err, &equivocation))
	assert.Equal(t, member, equivocation.Validator)
	assert.Equal(t, true, s.attCache.IsEquivocating(member, 0))

	// Once equivocating, the validator is ignored for the rest of the slot.
	res, _ = s.validatePayloadAttestationMessage(ctx, absent)
	assert.Equal(t, pubsub.ValidationIgnore, res)
	assert.Equal(t, 1, len(env.chain.PayloadAttestations()))
}

func TestOnGossip_PayloadAttestationProcessingFailure(t *testing.T) {
	env := setupService(t)
	member := env.withPTC(t)
	env.chain.ReceiveAttestationErr = errors.New("fork choice unavailable")

	res := env.service.OnGossip(context.Background(), PayloadAttestationTopic, env.payloadAttestation(t, member, true))
	assert.Equal(t, pubsub.ValidationAccept, res, "processing failures do not change the validation result")
	assert.Equal(t, 0, len(env.chain.PayloadAttestations()))
}
