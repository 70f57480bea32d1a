package sync

import (
	"context"
	"testing"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
)

func (env *testEnv) signedBid(t *testing.T, builder primitives.BuilderIndex, value primitives.Gwei, mutate func(*epbstypes.ExecutionPayloadBid)) *epbstypes.SignedExecutionPayloadBid {
	bid := util.BidForState(t, env.st, builder, value, util.PayloadHash(env.st.Slot(), byte(builder)))
	if mutate != nil {
		mutate(bid)
	}
	return util.SignBid(t, env.st, bid, env.builderKeys[builder])
}

func TestValidateExecutionPayloadBid(t *testing.T) {
	tests := []struct {
		name    string
		msg     func(t *testing.T, env *testEnv) interface{}
		want    pubsub.ValidationResult
		wantErr error
	}{
		{
			name: "valid bid",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return env.signedBid(t, 0, 1000, nil)
			},
			want: pubsub.ValidationAccept,
		},
		{
			name: "bid for the next slot",
			msg: func(t *testing.T, env *testEnv) interface{} {
				bid := util.BidForState(t, env.st, 0, 1000, util.PayloadHash(1, 0))
				bid.Slot = 1
				return util.SignBid(t, env.st, bid, env.builderKeys[0])
			},
			want: pubsub.ValidationAccept,
		},
		{
			name: "wrong message type",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return &epbstypes.PayloadAttestationMessage{}
			},
			want:    pubsub.ValidationReject,
			wantErr: errWrongMessageType,
		},
		{
			name: "nil bid message",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return &epbstypes.SignedExecutionPayloadBid{}
			},
			want:    pubsub.ValidationReject,
			wantErr: errNilMessage,
		},
		{
			name: "self-built bid",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return util.SelfBuildBid(t, env.st, util.PayloadHash(0, 9))
			},
			want:    pubsub.ValidationReject,
			wantErr: errSelfBuildOnGossip,
		},
		{
			name: "bid too far in the future",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return env.signedBid(t, 0, 1000, func(b *epbstypes.ExecutionPayloadBid) { b.Slot = 5 })
			},
			want:    pubsub.ValidationIgnore,
			wantErr: errBidSlotNotCurrent,
		},
		{
			name: "unknown parent block",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return env.signedBid(t, 0, 1000, func(b *epbstypes.ExecutionPayloadBid) { b.ParentBlockRoot = [32]byte{'x'} })
			},
			want:    pubsub.ValidationIgnore,
			wantErr: errUnknownParentBlock,
		},
		{
			name: "too many blob commitments",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return env.signedBid(t, 0, 1000, func(b *epbstypes.ExecutionPayloadBid) {
					b.BlobKzgCommitments = make([][fieldparams.KzgCommitmentLength]byte, params.BeaconConfig().MaxBlobsPerBlock+1)
				})
			},
			want:    pubsub.ValidationReject,
			wantErr: epbs.ErrTooManyBlobCommitments,
		},
		{
			name: "builder cannot cover the bid",
			msg: func(t *testing.T, env *testEnv) interface{} {
				return env.signedBid(t, 0, primitives.Gwei(10*params.BeaconConfig().MinDepositAmount), nil)
			},
			want:    pubsub.ValidationIgnore,
			wantErr: epbs.ErrInsufficientBalance,
		},
		{
			name: "unknown builder",
			msg: func(t *testing.T, env *testEnv) interface{} {
				bid := util.BidForState(t, env.st, 7, 1000, util.PayloadHash(0, 7))
				return util.SignBid(t, env.st, bid, env.builderKeys[0])
			},
			want:    pubsub.ValidationReject,
			wantErr: epbs.ErrUnknownBuilder,
		},
		{
			name: "signed by another builder",
			msg: func(t *testing.T, env *testEnv) interface{} {
				bid := util.BidForState(t, env.st, 0, 1000, util.PayloadHash(0, 0))
				return util.SignBid(t, env.st, bid, env.builderKeys[1])
			},
			want:    pubsub.ValidationReject,
			wantErr: epbs.ErrInvalidBidSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupService(t)
			res, err := env.service.validateExecutionPayloadBid(context.Background(), tt.msg(t, env))
			assert.Equal(t, tt.want, res)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateExecutionPayloadBid_DuplicateAndEquivocation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	s := env.service

	first := env.signedBid(t, 0, 1000, nil)
	assert.Equal(t, pubsub.ValidationAccept, s.OnGossip(ctx, ExecutionBidTopic, first))

	res, err := s.validateExecutionPayloadBid(ctx, first)
	assert.Equal(t, pubsub.ValidationIgnore, res)
	require.ErrorIs(t, err, errDuplicateMessage)

	second := env.signedBid(t, 0, 2000, nil)
	res, err = s.validateExecutionPayloadBid(ctx, second)
	assert.Equal(t, pubsub.ValidationReject, res)
	var equivocation *cache.BuilderEquivocationError
	require.Equal(t, true, errors.As(err, &equivocation))
	firstRoot, err := first.Message.HashTreeRoot()
	require.NoError(t, err)
	assert.Equal(t, firstRoot, equivocation.First)

	bids := s.BidsForSlot(0)
	require.Equal(t, 1, len(bids))
	assert.Equal(t, primitives.Gwei(1000), bids[0].Message.Value, "the first bid stays in the pool")
}

func TestOnGossip_ExecutionBidPopulatesPool(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	s := env.service

	low := env.signedBid(t, 0, 1000, nil)
	high := env.signedBid(t, 1, 5000, nil)
	assert.Equal(t, pubsub.ValidationAccept, s.OnGossip(ctx, ExecutionBidTopic, low))
	assert.Equal(t, pubsub.ValidationAccept, s.OnGossip(ctx, ExecutionBidTopic, high))

	bids := s.BidsForSlot(0)
	require.Equal(t, 2, len(bids))
	assert.Equal(t, primitives.BuilderIndex(1), bids[0].Message.BuilderIndex)

	best, ok := s.BestBid(0, env.st.LatestBlockHash())
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Gwei(5000), best.Message.Value)
	_, ok = s.BestBid(0, [32]byte{'n', 'o', 'p', 'e'})
	assert.Equal(t, false, ok)
}

func TestOnGossip_IgnoredWhileSyncing(t *testing.T) {
	env := setupService(t)
	env.syncChecker.syncing = true
	res := env.service.OnGossip(context.Background(), ExecutionBidTopic, env.signedBid(t, 0, 1000, nil))
	assert.Equal(t, pubsub.ValidationIgnore, res)
	assert.Equal(t, 0, len(env.service.BidsForSlot(0)))
}

func TestOnGossip_UnknownTopicAndNilMessage(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	assert.Equal(t, pubsub.ValidationIgnore, env.service.OnGossip(ctx, "beacon_block", env.signedBid(t, 0, 1000, nil)))
	assert.Equal(t, pubsub.ValidationReject, env.service.OnGossip(ctx, ExecutionBidTopic, nil))
}
