package blocks

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	consensusblocks "github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
)

// ProcessRandao checks the block proposer's randao reveal and mixes it into the
// randao mix of the current epoch.
//
// Spec pseudocode definition:
//
//	def process_randao(state: BeaconState, body: BeaconBlockBody) -> None:
//	  epoch = get_current_epoch(state)
//	  # Verify RANDAO reveal
//	  proposer = state.validators[get_beacon_proposer_index(state)]
//	  signing_root = compute_signing_root(epoch, get_domain(state, DOMAIN_RANDAO))
//	  assert bls.Verify(proposer.pubkey, signing_root, body.randao_reveal)
//	  # Mix in RANDAO reveal
//	  mix = xor(get_randao_mix(state, epoch), hash(body.randao_reveal))
//	  state.randao_mixes[epoch % EPOCHS_PER_HISTORICAL_VECTOR] = mix
func ProcessRandao(st state.BeaconState, body *consensusblocks.BeaconBlockBody) error {
	if body == nil {
		return consensusblocks.ErrNilBlock
	}
	proposer, err := helpers.BeaconProposerIndex(st)
	if err != nil {
		return errors.Wrap(err, "could not get beacon proposer index")
	}
	epoch := slots.ToEpoch(st.Slot())
	domain, err := signing.Domain(st.Fork(), epoch, params.BeaconConfig().DomainRandao, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	if err := signing.VerifySigningRootForRoot(EpochRoot(epoch), st.PubkeyAtIndex(proposer), body.RandaoReveal, domain); err != nil {
		return errors.Wrap(ErrInvalidRandaoReveal, err.Error())
	}
	return ProcessRandaoNoVerify(st, body.RandaoReveal[:])
}

// ProcessRandaoNoVerify mixes a reveal into the current epoch's mix without checking it.
func ProcessRandaoNoVerify(st state.BeaconState, reveal []byte) error {
	return helpers.UpdateRandaoMix(st, slots.ToEpoch(st.Slot()), reveal)
}

// EpochRoot returns the hash tree root of an epoch, the object signed by a randao reveal.
func EpochRoot(epoch primitives.Epoch) [32]byte {
	return bytesutil.ToBytes32(bytesutil.Bytes8(uint64(epoch)))
}
