package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// Seed returns the randao seed used for shuffling of a given epoch.
//
// Spec pseudocode definition:
//
//	def get_seed(state: BeaconState, epoch: Epoch, domain_type: DomainType) -> Bytes32:
//	  """
//	  Return the seed at ``epoch``.
//	  """
//	  mix = get_randao_mix(state, Epoch(epoch + EPOCHS_PER_HISTORICAL_VECTOR - MIN_SEED_LOOKAHEAD - 1))  # Avoid underflow
//	  return hash(domain_type + uint_to_bytes(epoch) + mix)
func Seed(st state.ReadOnlyBeaconState, epoch primitives.Epoch, domain primitives.DomainType) ([32]byte, error) {
	cfg := params.BeaconConfig()
	// See https://github.com/ethereum/consensus-specs/pull/1296 for
	// rationale on why offset has to look down by 1.
	lookAheadEpoch := epoch + cfg.EpochsPerHistoricalVector - cfg.MinSeedLookahead - 1

	randaoMix, err := RandaoMix(st, lookAheadEpoch)
	if err != nil {
		return [32]byte{}, err
	}
	seed := make([]byte, 0, 4+8+32)
	seed = append(seed, domain[:]...)
	seed = append(seed, bytesutil.Bytes8(uint64(epoch))...)
	seed = append(seed, randaoMix[:]...)
	return hash.Hash(seed), nil
}

// RandaoMix returns the randao mix (xor'ed seed)
// of a given slot. It is used to shuffle validators.
//
// Spec pseudocode definition:
//
//	def get_randao_mix(state: BeaconState, epoch: Epoch) -> Bytes32:
//	  """
//	  Return the randao mix at a recent ``epoch``.
//	  """
//	  return state.randao_mixes[epoch % EPOCHS_PER_HISTORICAL_VECTOR]
func RandaoMix(st state.ReadOnlyBeaconState, epoch primitives.Epoch) ([32]byte, error) {
	n := uint64(st.RandaoMixesLength())
	if n == 0 {
		return [32]byte{}, errors.New("state has no randao mixes")
	}
	return st.RandaoMixAtIndex(uint64(epoch) % n)
}

// UpdateRandaoMix mixes the hash of a randao reveal into the mix of the given epoch.
//
// Spec pseudocode definition:
//
//	mix = xor(get_randao_mix(state, epoch), hash(body.randao_reveal))
//	state.randao_mixes[epoch % EPOCHS_PER_HISTORICAL_VECTOR] = mix
func UpdateRandaoMix(st state.BeaconState, epoch primitives.Epoch, reveal []byte) error {
	latestMix, err := RandaoMix(st, epoch)
	if err != nil {
		return errors.Wrap(err, "could not get latest randao mix")
	}
	revealHash := hash.Hash(reveal)
	for i, x := range revealHash {
		latestMix[i] ^= x
	}
	return st.UpdateRandaoMixesAtIndex(uint64(epoch)%uint64(st.RandaoMixesLength()), latestMix)
}
