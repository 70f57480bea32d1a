// Package util provides deterministic fixtures for tests: genesis states with
// known keys, builders, and signed blocks, bids, envelopes and PTC votes.
package util

import (
	"sync"
	"testing"

	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

// GenesisBlockHash is the execution block hash the genesis state starts from.
var GenesisBlockHash = [32]byte{0xee, 0x01}

// GenesisValidatorsRoot is the fixed genesis validators root of test states.
var GenesisValidatorsRoot = hash.Hash([]byte("epbs-genesis"))

var (
	keyCache     = map[string]bls.SecretKey{}
	keyCacheLock sync.Mutex
)

// deterministicKey derives a key from a label and an index so repeated calls return the same key.
func deterministicKey(t testing.TB, label string, i uint64) bls.SecretKey {
	ikm := hash.Hash(append([]byte(label), bytesutil.Bytes8(i)...))
	id := string(ikm[:])
	keyCacheLock.Lock()
	defer keyCacheLock.Unlock()
	if sk, ok := keyCache[id]; ok {
		return sk
	}
	sk, err := bls.KeyFromSeed(ikm[:])
	require.NoError(t, err)
	keyCache[id] = sk
	return sk
}

// DeterministicGenesisState returns a genesis state with numValidators active validators at
// maximum effective balance, together with their secret keys.
func DeterministicGenesisState(t testing.TB, numValidators uint64) (*state_native.BeaconState, []bls.SecretKey) {
	cfg := params.BeaconConfig()
	keys := make([]bls.SecretKey, numValidators)
	vals := make([]*validator.Validator, numValidators)
	balances := make([]uint64, numValidators)
	for i := uint64(0); i < numValidators; i++ {
		keys[i] = deterministicKey(t, "validator", i)
		vals[i] = &validator.Validator{
			PublicKey:                  bytesutil.ToBytes48(keys[i].PublicKey().Marshal()),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: 0,
			ActivationEpoch:            0,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		}
		balances[i] = cfg.MaxEffectiveBalance
	}
	var version [fieldparams.VersionLength]byte
	copy(version[:], cfg.EPBSForkVersion)

	mixes := make([][32]byte, cfg.EpochsPerHistoricalVector)
	for i := range mixes {
		mixes[i] = GenesisValidatorsRoot
	}
	st, err := state_native.InitializeFromSnapshot(&state_native.Snapshot{
		GenesisValidatorsRoot: GenesisValidatorsRoot,
		Fork: &blocks.Fork{
			PreviousVersion: version,
			CurrentVersion:  version,
		},
		LatestBlockHeader: &blocks.BeaconBlockHeader{BodyRoot: emptyBodyRoot(t)},
		Validators:        vals,
		Balances:          balances,
		RandaoMixes:       mixes,
		LatestExecutionPayloadBid: &epbs.ExecutionPayloadBid{
			BlockHash:    GenesisBlockHash,
			BuilderIndex: cfg.BuilderIndexSelfBuild,
		},
		LatestBlockHash: GenesisBlockHash,
	})
	require.NoError(t, err)
	return st, keys
}

// GenesisBlockRoot returns the root of the genesis block of a state returned by
// DeterministicGenesisState.
func GenesisBlockRoot(t testing.TB, st *state_native.BeaconState) [32]byte {
	root, err := st.LatestBlockHeader().HashTreeRoot()
	require.NoError(t, err)
	return root
}

// DeterministicBuilders registers n builders with the given balance and returns their keys.
func DeterministicBuilders(t testing.TB, st *state_native.BeaconState, n uint64, balance primitives.Gwei) []bls.SecretKey {
	keys := make([]bls.SecretKey, n)
	for i := uint64(0); i < n; i++ {
		keys[i] = deterministicKey(t, "builder", i)
		_, err := st.AppendBuilder(&epbs.Builder{
			Pubkey:            bytesutil.ToBytes48(keys[i].PublicKey().Marshal()),
			ExecutionAddress:  bytesutil.ToBytes20(bytesutil.Bytes8(i + 1)),
			Balance:           balance,
			DepositEpoch:      0,
			WithdrawableEpoch: params.BeaconConfig().FarFutureEpoch,
		})
		require.NoError(t, err)
	}
	return keys
}

func emptyBodyRoot(t testing.TB) [32]byte {
	body := &blocks.BeaconBlockBody{
		SignedExecutionPayloadBid: &epbs.SignedExecutionPayloadBid{Message: &epbs.ExecutionPayloadBid{}},
	}
	root, err := body.HashTreeRoot()
	require.NoError(t, err)
	return root
}
