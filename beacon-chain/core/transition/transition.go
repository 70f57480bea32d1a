// Package transition implements the whole state transition
// function which consists of per slot, per-epoch transitions, the
// per-block operations and the application of revealed payloads.
package transition

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"go.opencensus.io/trace"
)

// ProcessSlot happens every slot and focuses on the slot counter and block roots record updates.
// It happens regardless if there's an incoming block or not.
//
// Spec pseudocode definition:
//
//	def process_slot(state: BeaconState) -> None:
//	  # Cache block root
//	  previous_block_root = hash_tree_root(state.latest_block_header)
//	  state.block_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_block_root
//	  # Unset the next payload availability
//	  state.execution_payload_availability[(state.slot + 1) % (2 * SLOTS_PER_EPOCH)] = 0b0
func ProcessSlot(ctx context.Context, st state.BeaconState) error {
	_, span := trace.StartSpan(ctx, "core.state.ProcessSlot")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slot", int64(st.Slot()))) // lint:ignore uintcast -- slot will not exceed int64 in practice.

	prevBlockRoot, err := st.LatestBlockHeader().HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash latest block header")
	}
	if err := st.UpdateBlockRootAtIndex(uint64(st.Slot()%params.BeaconConfig().SlotsPerHistoricalRoot), prevBlockRoot); err != nil {
		return err
	}
	return st.SetExecutionPayloadAvailability(st.Slot()+1, false)
}

// ProcessSlots process through skip slots and apply epoch transition when it's needed
//
// Spec pseudocode definition:
//
//	def process_slots(state: BeaconState, slot: Slot) -> None:
//	  assert state.slot < slot
//	  while state.slot < slot:
//	      process_slot(state)
//	      # Process epoch on the start slot of the next epoch
//	      if (state.slot + 1) % SLOTS_PER_EPOCH == 0:
//	          process_epoch(state)
//	      state.slot = Slot(state.slot + 1)
func ProcessSlots(ctx context.Context, st state.BeaconState, slot primitives.Slot) error {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlots")
	defer span.End()
	if st == nil {
		return errors.New("nil state")
	}
	span.AddAttributes(trace.Int64Attribute("slots", int64(slot)-int64(st.Slot()))) // lint:ignore uintcast -- This is OK for tracing.

	if st.Slot() >= slot {
		return errors.Errorf("expected state.slot %d < slot %d", st.Slot(), slot)
	}
	for st.Slot() < slot {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := ProcessSlot(ctx, st); err != nil {
			return errors.Wrap(err, "could not process slot")
		}
		if slots.IsEpochEnd(st.Slot()) {
			if err := ProcessEpoch(ctx, st); err != nil {
				return errors.Wrap(err, "could not process epoch")
			}
		}
		if err := st.SetSlot(st.Slot() + 1); err != nil {
			return errors.Wrap(err, "failed to increment state slot")
		}
		if slots.IsEpochStart(st.Slot()) {
			epochsProcessed.Inc()
		}
	}
	return nil
}

// ProcessEpoch runs the epoch boundary bookkeeping: the builder payments of the ring
// half the next epoch reuses are settled or dropped, and the randao mix of the next
// epoch is seeded from the current one.
//
// Spec pseudocode definition:
//
//	def process_epoch(state: BeaconState) -> None:
//	    ...
//	    process_builder_pending_payments(state)
//	    process_randao_mixes_reset(state)
func ProcessEpoch(ctx context.Context, st state.BeaconState) error {
	_, span := trace.StartSpan(ctx, "core.state.ProcessEpoch")
	defer span.End()

	if err := epbs.ProcessBuilderPendingPayments(st); err != nil {
		return errors.Wrap(err, "could not process builder pending payments")
	}
	return ProcessRandaoMixesReset(st)
}

// ProcessRandaoMixesReset copies the mix of the current epoch into the slot of the next.
//
// Spec pseudocode definition:
//
//	def process_randao_mixes_reset(state: BeaconState) -> None:
//	  current_epoch = get_current_epoch(state)
//	  next_epoch = Epoch(current_epoch + 1)
//	  # Set randao mix
//	  state.randao_mixes[next_epoch % EPOCHS_PER_HISTORICAL_VECTOR] = get_randao_mix(state, current_epoch)
func ProcessRandaoMixesReset(st state.BeaconState) error {
	current := slots.ToEpoch(st.Slot())
	mix, err := helpers.RandaoMix(st, current)
	if err != nil {
		return err
	}
	next := uint64(current+1) % uint64(params.BeaconConfig().EpochsPerHistoricalVector)
	return st.UpdateRandaoMixesAtIndex(next, mix)
}
