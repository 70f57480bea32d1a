// Package blocks contains the per-block operations of the beacon chain state
// transition that are not specific to payload processing.
package blocks

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	consensusblocks "github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
)

// ProcessBlockHeader validates a block by its header and stores the header in the
// state. The header's state root is taken from the block as the state itself is
// never merkleized.
//
// Spec pseudocode definition:
//
//	def process_block_header(state: BeaconState, block: BeaconBlock) -> None:
//	  # Verify that the slots match
//	  assert block.slot == state.slot
//	  # Verify that the block is newer than latest block header
//	  assert block.slot > state.latest_block_header.slot
//	  # Verify that proposer index is the correct index
//	  assert block.proposer_index == get_beacon_proposer_index(state)
//	  # Verify that the parent matches
//	  assert block.parent_root == hash_tree_root(state.latest_block_header)
//	  # Cache current block as the new latest block
//	  state.latest_block_header = BeaconBlockHeader(
//	      slot=block.slot,
//	      proposer_index=block.proposer_index,
//	      parent_root=block.parent_root,
//	      state_root=Bytes32(),  # Overwritten in the next process_slot call
//	      body_root=hash_tree_root(block.body),
//	  )
//
//	  # Verify proposer is not slashed
//	  proposer = state.validators[block.proposer_index]
//	  assert not proposer.slashed
func ProcessBlockHeader(st state.BeaconState, signed *consensusblocks.SignedBeaconBlock) error {
	if err := consensusblocks.BeaconBlockIsNil(signed); err != nil {
		return err
	}
	if err := VerifyBlockSignature(st, signed); err != nil {
		return err
	}
	return ProcessBlockHeaderNoVerify(st, signed.Block)
}

// ProcessBlockHeaderNoVerify is ProcessBlockHeader without the proposer signature check.
func ProcessBlockHeaderNoVerify(st state.BeaconState, block *consensusblocks.BeaconBlock) error {
	if block == nil || block.Body == nil {
		return consensusblocks.ErrNilBlock
	}
	if st.Slot() != block.Slot {
		return errors.Wrapf(ErrBlockSlotMismatch, "state slot %d, block slot %d", st.Slot(), block.Slot)
	}
	parentHeader := st.LatestBlockHeader()
	if block.Slot <= parentHeader.Slot {
		return errors.Wrapf(ErrBlockNotNewer, "block slot %d, latest header slot %d", block.Slot, parentHeader.Slot)
	}
	idx, err := helpers.BeaconProposerIndex(st)
	if err != nil {
		return err
	}
	if block.ProposerIndex != idx {
		return errors.Wrapf(ErrWrongProposer, "got %d, want %d", block.ProposerIndex, idx)
	}
	parentRoot, err := parentHeader.HashTreeRoot()
	if err != nil {
		return err
	}
	if block.ParentRoot != parentRoot {
		return errors.Wrapf(ErrParentRootMismatch, "got %#x, want %#x", block.ParentRoot, parentRoot)
	}
	proposer, err := st.ValidatorAtIndex(idx)
	if err != nil {
		return err
	}
	if proposer.Slashed {
		return errors.Wrapf(ErrProposerSlashed, "proposer index %d", idx)
	}
	header, err := block.Header()
	if err != nil {
		return err
	}
	return st.SetLatestBlockHeader(header)
}

// VerifyBlockSignature verifies the proposer signature of a beacon block.
func VerifyBlockSignature(st state.ReadOnlyBeaconState, signed *consensusblocks.SignedBeaconBlock) error {
	if signed == nil || signed.Block == nil {
		return errNilSignedBlock
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(signed.Block.Slot), params.BeaconConfig().DomainBeaconProposer, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	pub := st.PubkeyAtIndex(signed.Block.ProposerIndex)
	if err := signing.VerifySigningRoot(signed.Block, pub, signed.Signature, domain); err != nil {
		return errors.Wrap(ErrInvalidBlockSignature, err.Error())
	}
	return nil
}
