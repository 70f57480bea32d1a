package epbs_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
)

var parentBlockRoot = [32]byte{'p', 'a', 'r', 'e', 'n', 't'}

type paymentFixture struct {
	st   *state_native.BeaconState
	keys []bls.SecretKey
	ptc  []primitives.ValidatorIndex
}

// paymentSetup returns a state at slot 2 whose latest block builds on parentBlockRoot,
// with a 10 ETH payment from builder 0 pending for slot 1.
func paymentSetup(t *testing.T) *paymentFixture {
	st, keys, _ := setupState(t, 64, 100*gwei)
	require.NoError(t, st.SetSlot(2))
	require.NoError(t, st.SetLatestBlockHeader(&blocks.BeaconBlockHeader{Slot: 2, ParentRoot: parentBlockRoot}))
	p := epbstypes.NewBuilderPendingPayment()
	p.Withdrawal = epbstypes.BuilderPendingWithdrawal{
		FeeRecipient: [20]byte{0xfe},
		Amount:       10 * gwei,
		BuilderIndex: 0,
	}
	require.NoError(t, st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(1), p))
	ptc, err := epbs.GetPTC(context.Background(), st, 1)
	require.NoError(t, err)
	return &paymentFixture{st: st, keys: keys, ptc: ptc}
}

func (f *paymentFixture) vote(t *testing.T, present bool, seats []uint64) error {
	data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: parentBlockRoot, Slot: 1, PayloadPresent: present}
	att := util.GeneratePayloadAttestation(t, f.st, data, f.ptc, seats, f.keys)
	return epbs.ProcessPayloadAttestation(context.Background(), f.st, att, f.ptc)
}

func seatRange(from, to uint64) []uint64 {
	out := make([]uint64, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func TestPaymentQuorum(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 64, 0)
	q, err := epbs.PaymentQuorum(st)
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(307), q)

	cfg := params.BeaconConfig().Copy()
	cfg.PaymentQuorumBasis = params.QuorumBasisActiveBalance
	params.OverrideBeaconConfig(cfg)
	q, err = epbs.PaymentQuorum(st)
	require.NoError(t, err)
	// 64 validators at 2048 ETH, one slot's share, 60% of it.
	assert.Equal(t, primitives.Gwei(2457600000000), q)
}

func TestAccumulatePaymentWeight_QuorumExecutesPaymentOnce(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)

	require.NoError(t, f.vote(t, true, seatRange(0, 307)))

	b, err := f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 90*gwei, b.Balance)
	queue := f.st.BuilderPendingWithdrawals()
	require.Equal(t, 1, len(queue))
	assert.Equal(t, 10*gwei, queue[0].Amount)
	assert.Equal(t, [20]byte{0xfe}, queue[0].FeeRecipient)
	assert.Equal(t, primitives.Epoch(0)+params.BeaconConfig().BuilderPaymentWithdrawalDelay, queue[0].WithdrawableEpoch)
	assert.Equal(t, true, f.st.ExecutionPayloadAvailability(1))

	p, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, true, p.Settled)
	assert.Equal(t, primitives.Gwei(307), p.Weight)
	assert.Equal(t, primitives.Gwei(0), p.Withdrawal.Amount)

	// Weight keeps accumulating but the transfer is not repeated.
	require.NoError(t, f.vote(t, true, seatRange(307, 512)))
	b, err = f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 90*gwei, b.Balance)
	assert.Equal(t, 1, len(f.st.BuilderPendingWithdrawals()))
	p, err = f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(512), p.Weight)
}

func TestAccumulatePaymentWeight_BelowQuorum(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)

	require.NoError(t, f.vote(t, true, seatRange(0, 300)))

	b, err := f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 100*gwei, b.Balance)
	assert.Equal(t, 0, len(f.st.BuilderPendingWithdrawals()))
	assert.Equal(t, false, f.st.ExecutionPayloadAvailability(1))
	p, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, false, p.Settled)
	assert.Equal(t, primitives.Gwei(300), p.Weight)
	assert.Equal(t, 10*gwei, p.Withdrawal.Amount)
}

func TestAccumulatePaymentWeight_SeatCountsOnce(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)

	require.NoError(t, f.vote(t, true, seatRange(0, 200)))
	require.NoError(t, f.vote(t, true, seatRange(0, 200)))
	require.NoError(t, f.vote(t, true, seatRange(100, 300)))

	p, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(300), p.Weight)
	assert.Equal(t, uint64(300), p.Participation.Count())
	assert.Equal(t, false, p.Settled)
}

func TestAccumulatePaymentWeight_WithheldForfeits(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)

	require.NoError(t, f.vote(t, false, seatRange(0, 307)))

	b, err := f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 100*gwei, b.Balance)
	assert.Equal(t, 0, len(f.st.BuilderPendingWithdrawals()))
	assert.Equal(t, false, f.st.ExecutionPayloadAvailability(1))
	p, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.Equal(t, true, p.Settled)
	assert.Equal(t, primitives.Gwei(307), p.WithheldWeight)

	// Late presence votes cannot revive a forfeited payment.
	require.NoError(t, f.vote(t, true, seatRange(307, 512)))
	b, err = f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 100*gwei, b.Balance)
}

func TestAccumulatePaymentWeight_ActiveBalanceBasis(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.BeaconConfig().Copy()
	cfg.PaymentQuorumBasis = params.QuorumBasisActiveBalance
	params.OverrideBeaconConfig(cfg)
	f := paymentSetup(t)

	require.NoError(t, f.vote(t, true, []uint64{0}))
	b, err := f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 100*gwei, b.Balance)

	require.NoError(t, f.vote(t, true, []uint64{1}))
	b, err = f.st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 90*gwei, b.Balance)
}

func TestAccumulatePaymentWeight_ZeroValueMarksAvailability(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	require.NoError(t, f.st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(1), epbstypes.NewBuilderPendingPayment()))

	require.NoError(t, f.vote(t, true, seatRange(0, 307)))
	assert.Equal(t, true, f.st.ExecutionPayloadAvailability(1))
	assert.Equal(t, 0, len(f.st.BuilderPendingWithdrawals()))
}

func TestAccumulatePaymentWeight_SkippedSlotIgnored(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	f := paymentSetup(t)
	// The parent block was proposed at slot 0, so slot 1 was skipped.
	require.NoError(t, f.st.UpdateBlockRootAtIndex(0, parentBlockRoot))
	before, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)

	require.NoError(t, f.vote(t, true, seatRange(0, 400)))
	after, err := f.st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(1))
	require.NoError(t, err)
	assert.DeepEqual(t, before, after)
	assert.Equal(t, false, f.st.ExecutionPayloadAvailability(1))
	assert.Equal(t, 0, len(f.st.BuilderPendingWithdrawals()))
}

func TestProcessBuilderPendingPayments(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 64, 100*gwei)
	spe := params.BeaconConfig().SlotsPerEpoch
	// Last slot of epoch 1: the next epoch reuses the entries of epoch 0.
	require.NoError(t, st.SetSlot(2*spe-1))

	overQuorum := epbstypes.NewBuilderPendingPayment()
	overQuorum.Weight = 400
	overQuorum.Withdrawal = epbstypes.BuilderPendingWithdrawal{Amount: 10 * gwei, BuilderIndex: 0}
	require.NoError(t, st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(5), overQuorum))

	underQuorum := epbstypes.NewBuilderPendingPayment()
	underQuorum.Weight = 10
	underQuorum.Withdrawal = epbstypes.BuilderPendingWithdrawal{Amount: 7 * gwei, BuilderIndex: 1}
	require.NoError(t, st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(6), underQuorum))

	current := epbstypes.NewBuilderPendingPayment()
	current.Withdrawal = epbstypes.BuilderPendingWithdrawal{Amount: 3 * gwei, BuilderIndex: 1}
	require.NoError(t, st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(spe+4), current))

	require.NoError(t, epbs.ProcessBuilderPendingPayments(st))

	b0, err := st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 90*gwei, b0.Balance)
	b1, err := st.BuilderAtIndex(1)
	require.NoError(t, err)
	assert.Equal(t, 100*gwei, b1.Balance)

	queue := st.BuilderPendingWithdrawals()
	require.Equal(t, 1, len(queue))
	assert.Equal(t, primitives.BuilderIndex(0), queue[0].BuilderIndex)
	assert.Equal(t, primitives.Epoch(1)+params.BeaconConfig().BuilderPaymentWithdrawalDelay, queue[0].WithdrawableEpoch)

	for _, slot := range []primitives.Slot{5, 6} {
		p, err := st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(slot))
		require.NoError(t, err)
		assert.DeepEqual(t, epbstypes.NewBuilderPendingPayment(), p)
	}
	p, err := st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(spe + 4))
	require.NoError(t, err)
	assert.Equal(t, 3*gwei, p.Withdrawal.Amount)
}

func TestResetProposerPayments(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 64, 100*gwei)
	spe := params.BeaconConfig().SlotsPerEpoch
	require.NoError(t, st.SetSlot(spe+3))

	for _, slot := range []primitives.Slot{2, spe, spe + 1, spe + 2} {
		p := epbstypes.NewBuilderPendingPayment()
		p.Withdrawal = epbstypes.BuilderPendingWithdrawal{Amount: gwei, BuilderIndex: 0}
		require.NoError(t, st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(slot), p))
	}
	proposer, err := helpersProposerAt(st, spe+1)
	require.NoError(t, err)

	require.NoError(t, epbs.ResetProposerPayments(st, proposer, 2))

	p, err := st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(2))
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(0), p.Withdrawal.Amount, "equivocated slot in previous epoch")
	p, err = st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(spe + 1))
	require.NoError(t, err)
	assert.Equal(t, primitives.Gwei(0), p.Withdrawal.Amount, "slot assigned to slashed proposer")
	for _, slot := range []primitives.Slot{spe, spe + 2} {
		other, err := helpersProposerAt(st, slot)
		require.NoError(t, err)
		p, err := st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(slot))
		require.NoError(t, err)
		if other == proposer {
			assert.Equal(t, primitives.Gwei(0), p.Withdrawal.Amount)
		} else {
			assert.Equal(t, gwei, p.Withdrawal.Amount)
		}
	}
}

func TestResetPendingPaymentForSlot_OutsideWindow(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 8, 100*gwei)
	spe := params.BeaconConfig().SlotsPerEpoch
	require.NoError(t, st.SetSlot(3*spe))
	p := epbstypes.NewBuilderPendingPayment()
	p.Withdrawal.Amount = gwei
	require.NoError(t, st.SetBuilderPendingPaymentAtIndex(epbs.PaymentIndex(spe), p))

	// Slot spe is two epochs old; its ring entry now belongs to slot 3*spe.
	require.NoError(t, epbs.ResetPendingPaymentForSlot(st, spe))
	got, err := st.BuilderPendingPaymentAtIndex(epbs.PaymentIndex(spe))
	require.NoError(t, err)
	assert.Equal(t, gwei, got.Withdrawal.Amount)
}
