// Package interop builds deterministic genesis states for local devnets, where every
// node derives the same validator and builder keys from their indices.
package interop

import (
	"github.com/pkg/errors"
	ssz "github.com/prysmaticlabs/fastssz"
	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// validatorRegistryLimit is the SSZ list limit of the validator registry.
const validatorRegistryLimit = 1 << 40

// GenesisConfig describes an interop genesis.
type GenesisConfig struct {
	GenesisTime   uint64
	NumValidators uint64
	NumBuilders   uint64
	// BuilderBalance is credited to every interop builder.
	BuilderBalance primitives.Gwei
	// ExecutionBlockHash is the execution block the chain starts on.
	ExecutionBlockHash [32]byte
}

// GenerateGenesisState returns a genesis state whose validators use keys 0..NumValidators-1
// and whose builders use the keys that follow them.
func GenerateGenesisState(cfg *GenesisConfig) (*state_native.BeaconState, error) {
	if cfg == nil || cfg.NumValidators == 0 {
		return nil, errors.New("interop genesis needs at least one validator")
	}
	c := params.BeaconConfig()
	_, pubKeys, err := DeterministicallyGenerateKeys(0, cfg.NumValidators+cfg.NumBuilders)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate interop keys")
	}

	vals := make(registry, cfg.NumValidators)
	balances := make([]uint64, cfg.NumValidators)
	for i := range vals {
		vals[i] = &validator.Validator{
			PublicKey:         bytesutil.ToBytes48(pubKeys[i].Marshal()),
			EffectiveBalance:  c.MaxEffectiveBalance,
			ExitEpoch:         c.FarFutureEpoch,
			WithdrawableEpoch: c.FarFutureEpoch,
		}
		balances[i] = c.MaxEffectiveBalance
	}
	validatorsRoot, err := vals.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute genesis validators root")
	}

	bodyRoot, err := (&blocks.BeaconBlockBody{
		SignedExecutionPayloadBid: &epbs.SignedExecutionPayloadBid{Message: &epbs.ExecutionPayloadBid{}},
	}).HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute genesis body root")
	}

	var version [fieldparams.VersionLength]byte
	copy(version[:], c.EPBSForkVersion)
	mixes := make([][32]byte, c.EpochsPerHistoricalVector)
	for i := range mixes {
		mixes[i] = cfg.ExecutionBlockHash
	}

	st, err := state_native.InitializeFromSnapshot(&state_native.Snapshot{
		GenesisTime:           cfg.GenesisTime,
		GenesisValidatorsRoot: validatorsRoot,
		Fork:                  &blocks.Fork{PreviousVersion: version, CurrentVersion: version},
		LatestBlockHeader:     &blocks.BeaconBlockHeader{BodyRoot: bodyRoot},
		Validators:            vals,
		Balances:              balances,
		RandaoMixes:           mixes,
		LatestExecutionPayloadBid: &epbs.ExecutionPayloadBid{
			BlockHash:    cfg.ExecutionBlockHash,
			BuilderIndex: c.BuilderIndexSelfBuild,
		},
		LatestBlockHash: cfg.ExecutionBlockHash,
	})
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < cfg.NumBuilders; i++ {
		pub := pubKeys[cfg.NumValidators+i].Marshal()
		if _, err := st.AppendBuilder(&epbs.Builder{
			Pubkey:            bytesutil.ToBytes48(pub),
			ExecutionAddress:  bytesutil.ToBytes20(pub[:20]),
			Balance:           cfg.BuilderBalance,
			WithdrawableEpoch: c.FarFutureEpoch,
		}); err != nil {
			return nil, errors.Wrapf(err, "could not add interop builder %d", i)
		}
	}
	return st, nil
}

// registry merkleizes a validator list the way the state's validators field is rooted.
type registry []*validator.Validator

func (r registry) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(r)
}

func (r registry) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	for _, v := range r {
		if err := v.HashTreeRootWith(hh); err != nil {
			return err
		}
	}
	hh.MerkleizeWithMixin(indx, uint64(len(r)), validatorRegistryLimit)
	return nil
}
