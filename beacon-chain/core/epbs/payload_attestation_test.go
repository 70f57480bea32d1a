package epbs_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
)

func TestGetPTC(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 64, 0)
	ctx := context.Background()

	ptc, err := epbs.GetPTC(ctx, st, 1)
	require.NoError(t, err)
	assert.Equal(t, int(params.BeaconConfig().PTCSize), len(ptc))
	for _, idx := range ptc {
		assert.Equal(t, true, uint64(idx) < 64)
	}
	again, err := epbs.GetPTC(ctx, st, 1)
	require.NoError(t, err)
	assert.DeepEqual(t, ptc, again)

	other, err := epbs.GetPTC(ctx, st, 2)
	require.NoError(t, err)
	assert.DeepNotEqual(t, ptc, other)
}

func TestGetPTC_MinimalConfig(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.OverrideBeaconConfig(params.MinimalSpecConfig())
	st, _, _ := setupState(t, 16, 0)
	ptc, err := epbs.GetPTC(context.Background(), st, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, len(ptc))
}

func TestGetPTC_NoEffectiveBalance(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 8, 0)
	for i := 0; i < st.NumValidators(); i++ {
		v, err := st.ValidatorAtIndex(primitives.ValidatorIndex(i))
		require.NoError(t, err)
		v.EffectiveBalance = 0
		require.NoError(t, st.UpdateValidatorAtIndex(primitives.ValidatorIndex(i), v))
	}
	_, err := epbs.GetPTC(context.Background(), st, 1)
	require.ErrorIs(t, err, epbs.ErrEmptyPTC)
}

func TestPTCSeats(t *testing.T) {
	ptc := []primitives.ValidatorIndex{3, 1, 3, 2}
	assert.DeepEqual(t, []uint64{0, 2}, epbs.PTCSeats(ptc, 3))
	assert.DeepEqual(t, []uint64(nil), epbs.PTCSeats(ptc, 9))
}

func TestIndexedPayloadAttestation_SortedWithDuplicates(t *testing.T) {
	ptc := []primitives.ValidatorIndex{9, 4, 9, 1}
	att := &epbstypes.PayloadAttestation{
		AggregationBits: util.NewSeatBits(0, 1, 2, 3),
		Data:            &epbstypes.PayloadAttestationData{Slot: 1},
	}
	indexed, err := epbs.IndexedPayloadAttestation(ptc, att)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{1, 4, 9, 9}, indexed.AttestingIndices)

	att.AggregationBits = util.NewSeatBits(5)
	_, err = epbs.IndexedPayloadAttestation(ptc, att)
	require.ErrorContains(t, "beyond committee size", err)
}

func TestVerifyIndexedPayloadAttestation(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 1, PayloadPresent: true}

	tests := []struct {
		name    string
		indexed func() *epbstypes.IndexedPayloadAttestation
		wantErr error
	}{
		{
			name: "valid with duplicate seats",
			indexed: func() *epbstypes.IndexedPayloadAttestation {
				att := util.GeneratePayloadAttestation(t, f.st, data, f.ptc, seatRange(0, 8), f.keys)
				indexed, err := epbs.IndexedPayloadAttestation(f.ptc, att)
				require.NoError(t, err)
				return indexed
			},
		},
		{
			name: "empty",
			indexed: func() *epbstypes.IndexedPayloadAttestation {
				return &epbstypes.IndexedPayloadAttestation{Data: data}
			},
			wantErr: epbs.ErrEmptyPayloadAttestation,
		},
		{
			name: "unsorted",
			indexed: func() *epbstypes.IndexedPayloadAttestation {
				return &epbstypes.IndexedPayloadAttestation{AttestingIndices: []primitives.ValidatorIndex{5, 2}, Data: data}
			},
			wantErr: epbs.ErrUnsortedAttestingIndices,
		},
		{
			name: "bad signature",
			indexed: func() *epbstypes.IndexedPayloadAttestation {
				att := util.GeneratePayloadAttestation(t, f.st, data, f.ptc, seatRange(0, 4), f.keys)
				indexed, err := epbs.IndexedPayloadAttestation(f.ptc, att)
				require.NoError(t, err)
				indexed.Data = &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 1}
				return indexed
			},
			wantErr: epbs.ErrInvalidPayloadAttestationSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := epbs.VerifyIndexedPayloadAttestation(f.st, tt.indexed())
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProcessPayloadAttestation_Rejections(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	ctx := context.Background()

	wrongRoot := &epbstypes.PayloadAttestationData{BeaconBlockRoot: [32]byte{'x'}, Slot: 1, PayloadPresent: true}
	att := util.GeneratePayloadAttestation(t, f.st, wrongRoot, f.ptc, seatRange(0, 4), f.keys)
	require.ErrorIs(t, epbs.ProcessPayloadAttestation(ctx, f.st, att, f.ptc), epbs.ErrPayloadAttestationBlockRoot)

	wrongSlot := &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 0, PayloadPresent: true}
	att = util.GeneratePayloadAttestation(t, f.st, wrongSlot, f.ptc, seatRange(0, 4), f.keys)
	require.ErrorIs(t, epbs.ProcessPayloadAttestation(ctx, f.st, att, f.ptc), epbs.ErrPayloadAttestationSlot)

	require.ErrorIs(t, epbs.ProcessPayloadAttestation(ctx, f.st, nil, f.ptc), epbs.ErrNilPayloadAttestation)

	p, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(0), p.Weight)
}

func TestProcessPayloadAttestations_TooMany(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	atts := make([]*epbstypes.PayloadAttestation, params.BeaconConfig().MaxPayloadAttestations+1)
	err := epbs.ProcessPayloadAttestations(context.Background(), f.st, &blocks.BeaconBlockBody{PayloadAttestations: atts})
	require.ErrorIs(t, err, epbs.ErrTooManyPayloadAttestations)
}

func TestProcessPayloadAttestations_PresentAndAbsent(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	present := &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 1, PayloadPresent: true}
	absent := &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 1}
	body := &blocks.BeaconBlockBody{PayloadAttestations: []*epbstypes.PayloadAttestation{
		util.GeneratePayloadAttestation(t, f.st, present, f.ptc, seatRange(0, 200), f.keys),
		util.GeneratePayloadAttestation(t, f.st, absent, f.ptc, seatRange(200, 250), f.keys),
	}}
	require.NoError(t, epbs.ProcessPayloadAttestations(context.Background(), f.st, body))
	p, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(200), p.Weight)
	assert.Equal(t, primitives.Gwei(50), p.WithheldWeight)
}

func TestVerifyPayloadAttestationMessage(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 1, PayloadPresent: true}
	idx := f.ptc[0]
	msg := util.GeneratePayloadAttestationMessage(t, f.st, data, idx, f.keys[idx])
	require.NoError(t, epbs.VerifyPayloadAttestationMessage(f.st, msg))

	msg.ValidatorIndex = (idx + 1) % 64
	require.ErrorIs(t, epbs.VerifyPayloadAttestationMessage(f.st, msg), epbs.ErrInvalidPayloadAttestationSignature)
	msg.ValidatorIndex = 1000
	require.ErrorContains(t, "out of range", epbs.VerifyPayloadAttestationMessage(f.st, msg))
}
