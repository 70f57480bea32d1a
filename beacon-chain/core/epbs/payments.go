package epbs

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/math"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"github.com/sirupsen/logrus"
)

// PaymentQuorum returns the weight a pending payment needs to be settled. With the
// seat basis each PTC seat weighs one; with the balance basis a seat weighs the
// effective balance of its holder and the quorum is a fraction of one slot's share of
// the total active balance.
func PaymentQuorum(st state.ReadOnlyBeaconState) (primitives.Gwei, error) {
	cfg := params.BeaconConfig()
	var basis uint64
	if cfg.PaymentQuorumUsesSeats() {
		basis = cfg.PTCSize
	} else {
		total, err := helpers.TotalActiveBalance(st)
		if err != nil {
			return 0, err
		}
		basis = total / uint64(cfg.SlotsPerEpoch)
	}
	q, err := math.MulDiv(basis, cfg.BuilderPaymentThresholdNumerator, cfg.BuilderPaymentThresholdDenominator)
	if err != nil {
		return 0, err
	}
	return primitives.Gwei(math.Max(q, 1)), nil
}

// seatWeight returns how much a single seat held by idx adds to a payment.
func seatWeight(st state.ReadOnlyBeaconState, idx primitives.ValidatorIndex) (primitives.Gwei, error) {
	if params.BeaconConfig().PaymentQuorumUsesSeats() {
		return 1, nil
	}
	v, err := st.ValidatorAtIndex(idx)
	if err != nil {
		return 0, err
	}
	return primitives.Gwei(v.EffectiveBalance), nil
}

// AccumulatePaymentWeight adds the weight of every seat in bits that has not voted
// yet to the pending payment of data.Slot, then settles the payment if either side
// reached quorum. Accumulation continues after settlement so the recorded weight
// keeps growing; the transfer itself happens at most once. Votes on a skipped slot
// have no bid to weigh and are not recorded.
func AccumulatePaymentWeight(st state.BeaconState, data *epbstypes.PayloadAttestationData, ptc []primitives.ValidatorIndex, bits bitfield.Bitvector512) error {
	proposed, err := blockProposedAt(st, data.Slot, data.BeaconBlockRoot)
	if err != nil {
		return err
	}
	if !proposed {
		return nil
	}
	idx := PaymentIndex(data.Slot)
	payment, err := st.BuilderPendingPaymentAtIndex(idx)
	if err != nil {
		return err
	}
	for _, seat := range bits.BitIndices() {
		if seat >= len(ptc) || payment.Participation.BitAt(uint64(seat)) {
			continue
		}
		w, err := seatWeight(st, ptc[seat])
		if err != nil {
			return err
		}
		payment.Participation.SetBitAt(uint64(seat), true)
		if data.PayloadPresent {
			payment.Weight = primitives.Gwei(math.SaturatingAdd(uint64(payment.Weight), uint64(w)))
		} else {
			payment.WithheldWeight = primitives.Gwei(math.SaturatingAdd(uint64(payment.WithheldWeight), uint64(w)))
		}
	}
	quorum, err := PaymentQuorum(st)
	if err != nil {
		return err
	}
	if payment.Weight >= quorum {
		if err := st.SetExecutionPayloadAvailability(data.Slot, true); err != nil {
			return err
		}
	}
	if err := settlePayment(st, payment, quorum, data.Slot); err != nil {
		return err
	}
	return st.SetBuilderPendingPaymentAtIndex(idx, payment)
}

// blockProposedAt reports whether root, the latest block as of slot, was proposed at
// slot. It was not when the block roots ring already held root one slot earlier.
func blockProposedAt(st state.ReadOnlyBeaconState, slot primitives.Slot, root [32]byte) (bool, error) {
	if slot == 0 {
		return true, nil
	}
	prev, err := st.BlockRootAtIndex(uint64((slot - 1) % params.BeaconConfig().SlotsPerHistoricalRoot))
	if err != nil {
		return false, err
	}
	return prev != root, nil
}

// settlePayment executes or forfeits payment once one side has reached quorum. It
// is a no-op for a payment that is already settled.
func settlePayment(st state.BeaconState, payment *epbstypes.BuilderPendingPayment, quorum primitives.Gwei, slot primitives.Slot) error {
	if payment.Settled {
		return nil
	}
	switch {
	case payment.Weight >= quorum:
		if payment.Withdrawal.Amount > 0 {
			if err := executeBuilderPayment(st, payment.Withdrawal); err != nil {
				return err
			}
		}
		payment.Withdrawal = epbstypes.BuilderPendingWithdrawal{}
		payment.Settled = true
	case payment.WithheldWeight >= quorum:
		if payment.Withdrawal.Amount > 0 {
			builderPaymentsForfeitedCount.Inc()
			log.WithFields(logrus.Fields{
				"slot":    slot,
				"builder": payment.Withdrawal.BuilderIndex,
				"amount":  payment.Withdrawal.Amount,
			}).Info("Builder payment forfeited, payload withheld")
		}
		payment.Withdrawal = epbstypes.BuilderPendingWithdrawal{}
		payment.Settled = true
	}
	return nil
}

// executeBuilderPayment debits the builder and queues the withdrawal to the fee recipient.
func executeBuilderPayment(st state.BeaconState, w epbstypes.BuilderPendingWithdrawal) error {
	b, err := st.BuilderAtIndex(w.BuilderIndex)
	if err != nil {
		return errors.Wrap(err, "could not get builder to pay from")
	}
	b.Balance = primitives.Gwei(math.SaturatingSub(uint64(b.Balance), uint64(w.Amount)))
	if err := st.UpdateBuilderAtIndex(w.BuilderIndex, b); err != nil {
		return err
	}
	w.WithdrawableEpoch = slots.ToEpoch(st.Slot()) + params.BeaconConfig().BuilderPaymentWithdrawalDelay
	if err := st.AppendBuilderPendingWithdrawal(&w); err != nil {
		return err
	}
	builderPaymentsExecutedCount.Inc()
	builderPaymentsGwei.Add(float64(w.Amount))
	log.WithFields(logrus.Fields{
		"builder": w.BuilderIndex,
		"amount":  w.Amount,
	}).Debug("Executed builder payment")
	return nil
}

// ProcessBuilderPendingPayments runs at the epoch boundary. Payments in the half of the
// ring that the next epoch reuses get a final chance to settle and are then reset.
func ProcessBuilderPendingPayments(st state.BeaconState) error {
	spe := params.BeaconConfig().SlotsPerEpoch
	quorum, err := PaymentQuorum(st)
	if err != nil {
		return err
	}
	nextEpochStart, err := slots.EpochStart(slots.ToEpoch(st.Slot()) + 1)
	if err != nil {
		return err
	}
	for i := primitives.Slot(0); i < spe; i++ {
		slot := nextEpochStart + i
		idx := PaymentIndex(slot)
		payment, err := st.BuilderPendingPaymentAtIndex(idx)
		if err != nil {
			return err
		}
		if err := settlePayment(st, payment, quorum, slot); err != nil {
			return err
		}
		if err := st.SetBuilderPendingPaymentAtIndex(idx, epbstypes.NewBuilderPendingPayment()); err != nil {
			return err
		}
	}
	return nil
}

// ResetPendingPaymentForSlot clears the pending payment of a slot whose proposer was
// slashed, provided the slot is still covered by the ring.
func ResetPendingPaymentForSlot(st state.BeaconState, slot primitives.Slot) error {
	proposalEpoch := slots.ToEpoch(slot)
	current := slots.ToEpoch(st.Slot())
	if proposalEpoch != current && proposalEpoch+1 != current {
		return nil
	}
	return st.SetBuilderPendingPaymentAtIndex(PaymentIndex(slot), epbstypes.NewBuilderPendingPayment())
}

// ResetProposerPayments clears the pending payment of the equivocated slot and of
// every slot of the current epoch, up to the state's slot, that was assigned to the
// slashed proposer.
func ResetProposerPayments(st state.BeaconState, proposer primitives.ValidatorIndex, equivocatedSlot primitives.Slot) error {
	if err := ResetPendingPaymentForSlot(st, equivocatedSlot); err != nil {
		return err
	}
	start, err := slots.EpochStart(slots.ToEpoch(st.Slot()))
	if err != nil {
		return err
	}
	for slot := start; slot <= st.Slot(); slot++ {
		if slot == equivocatedSlot {
			continue
		}
		assigned, err := helpers.BeaconProposerIndexAtSlot(st, slot)
		if err != nil {
			return err
		}
		if assigned != proposer {
			continue
		}
		if err := st.SetBuilderPendingPaymentAtIndex(PaymentIndex(slot), epbstypes.NewBuilderPendingPayment()); err != nil {
			return err
		}
	}
	return nil
}
