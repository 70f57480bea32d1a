package util

import (
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	coreblocks "github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
)

// DefaultGasLimit is the gas limit of generated bids.
const DefaultGasLimit = 30_000_000

// PayloadHash returns a deterministic execution block hash for a slot and a salt.
func PayloadHash(slot primitives.Slot, salt byte) [32]byte {
	return hash.Hash(append(bytesutil.Bytes8(uint64(slot)), 'p', salt))
}

// BidForState returns an unsigned bid that is valid for a block proposed on top of st.
// st must already be advanced to the slot of the block.
func BidForState(t testing.TB, st state.ReadOnlyBeaconState, builder primitives.BuilderIndex, value primitives.Gwei, blockHash [32]byte) *epbs.ExecutionPayloadBid {
	parentRoot, err := st.LatestBlockHeader().HashTreeRoot()
	require.NoError(t, err)
	mix, err := helpers.RandaoMix(st, slots.ToEpoch(st.Slot()))
	require.NoError(t, err)
	feeRecipient := bytesutil.ToBytes20(bytesutil.Bytes8(uint64(st.Slot()) + 1000))
	return &epbs.ExecutionPayloadBid{
		ParentBlockHash: st.LatestBlockHash(),
		ParentBlockRoot: parentRoot,
		BlockHash:       blockHash,
		PrevRandao:      mix,
		FeeRecipient:    feeRecipient,
		GasLimit:        DefaultGasLimit,
		BuilderIndex:    builder,
		Slot:            st.Slot(),
		Value:           value,
	}
}

// SignBid signs a bid with a builder key.
func SignBid(t testing.TB, st state.ReadOnlyBeaconState, bid *epbs.ExecutionPayloadBid, sk bls.SecretKey) *epbs.SignedExecutionPayloadBid {
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(bid.Slot), params.BeaconConfig().DomainBeaconBuilder, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	sig, err := signing.Sign(bid, domain, sk)
	require.NoError(t, err)
	return &epbs.SignedExecutionPayloadBid{Message: bid, Signature: sig}
}

// SelfBuildBid returns a self-built bid for st carrying the infinity signature.
func SelfBuildBid(t testing.TB, st state.ReadOnlyBeaconState, blockHash [32]byte) *epbs.SignedExecutionPayloadBid {
	bid := BidForState(t, st, params.BeaconConfig().BuilderIndexSelfBuild, 0, blockHash)
	return &epbs.SignedExecutionPayloadBid{Message: bid, Signature: InfiniteSignature()}
}

// InfiniteSignature returns the compressed point at infinity.
func InfiniteSignature() [fieldparams.BLSSignatureLength]byte {
	var sig [fieldparams.BLSSignatureLength]byte
	sig[0] = 0xc0
	return sig
}

// GenerateBlock returns a block for the slot of st, signed by the expected proposer,
// committing to bid and including atts. A nil bid is replaced by a self-built one.
func GenerateBlock(t testing.TB, st state.ReadOnlyBeaconState, keys []bls.SecretKey, bid *epbs.SignedExecutionPayloadBid, atts []*epbs.PayloadAttestation) *blocks.SignedBeaconBlock {
	cfg := params.BeaconConfig()
	if bid == nil {
		bid = SelfBuildBid(t, st, PayloadHash(st.Slot(), 0))
	}
	proposer, err := helpers.BeaconProposerIndex(st)
	require.NoError(t, err)
	parentRoot, err := st.LatestBlockHeader().HashTreeRoot()
	require.NoError(t, err)

	epoch := slots.ToEpoch(st.Slot())
	randaoDomain, err := signing.Domain(st.Fork(), epoch, cfg.DomainRandao, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	reveal, err := signing.SignRoot(coreblocks.EpochRoot(epoch), randaoDomain, keys[proposer])
	require.NoError(t, err)

	block := &blocks.BeaconBlock{
		Slot:          st.Slot(),
		ProposerIndex: proposer,
		ParentRoot:    parentRoot,
		Body: &blocks.BeaconBlockBody{
			RandaoReveal:              reveal,
			SignedExecutionPayloadBid: bid,
			PayloadAttestations:       atts,
		},
	}
	return SignBlock(t, st, block, keys[proposer])
}

// SignBlock signs block with the proposer key sk.
func SignBlock(t testing.TB, st state.ReadOnlyBeaconState, block *blocks.BeaconBlock, sk bls.SecretKey) *blocks.SignedBeaconBlock {
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(block.Slot), params.BeaconConfig().DomainBeaconProposer, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	sig, err := signing.Sign(block, domain, sk)
	require.NoError(t, err)
	return &blocks.SignedBeaconBlock{Block: block, Signature: sig}
}

// SignHeader signs a block header with the proposer key sk.
func SignHeader(t testing.TB, st state.ReadOnlyBeaconState, header *blocks.BeaconBlockHeader, sk bls.SecretKey) *blocks.SignedBeaconBlockHeader {
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(header.Slot), params.BeaconConfig().DomainBeaconProposer, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	sig, err := signing.Sign(header, domain, sk)
	require.NoError(t, err)
	return &blocks.SignedBeaconBlockHeader{Header: header, Signature: sig}
}

// GenerateEnvelope returns the envelope revealing the payload committed by the latest
// bid of st, which must be the post-state of the committing block. sk signs the
// envelope; for self-built payloads it is the proposer key.
func GenerateEnvelope(t testing.TB, st state.ReadOnlyBeaconState, sk bls.SecretKey) *epbs.SignedExecutionPayloadEnvelope {
	bid := st.LatestExecutionPayloadBid()
	root, err := st.LatestBlockHeader().HashTreeRoot()
	require.NoError(t, err)
	payload := &epbs.ExecutionPayload{
		ParentHash:   bid.ParentBlockHash,
		FeeRecipient: bid.FeeRecipient,
		PrevRandao:   bid.PrevRandao,
		BlockNumber:  uint64(st.Slot()),
		GasLimit:     bid.GasLimit,
		Timestamp:    st.GenesisTime() + uint64(st.Slot())*params.BeaconConfig().SecondsPerSlot,
		BlockHash:    bid.BlockHash,
		Withdrawals:  st.PayloadExpectedWithdrawals(),
	}
	if payload.Withdrawals == nil {
		payload.Withdrawals = []*epbs.Withdrawal{}
	}
	env := &epbs.ExecutionPayloadEnvelope{
		Payload:            payload,
		BuilderIndex:       bid.BuilderIndex,
		BeaconBlockRoot:    root,
		Slot:               st.Slot(),
		BlobKzgCommitments: bid.BlobKzgCommitments,
	}
	return SignEnvelope(t, st, env, sk)
}

// SignEnvelope signs an envelope with sk.
func SignEnvelope(t testing.TB, st state.ReadOnlyBeaconState, env *epbs.ExecutionPayloadEnvelope, sk bls.SecretKey) *epbs.SignedExecutionPayloadEnvelope {
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(env.Slot), params.BeaconConfig().DomainBeaconBuilder, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	sig, err := signing.Sign(env, domain, sk)
	require.NoError(t, err)
	return &epbs.SignedExecutionPayloadEnvelope{Message: env, Signature: sig}
}

// GeneratePayloadAttestation returns an aggregate vote on data from the given PTC seats.
// Every seat signs, so a validator holding two seats signs twice.
func GeneratePayloadAttestation(t testing.TB, st state.ReadOnlyBeaconState, data *epbs.PayloadAttestationData, ptc []primitives.ValidatorIndex, seats []uint64, keys []bls.SecretKey) *epbs.PayloadAttestation {
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(data.Slot), params.BeaconConfig().DomainPTCAttester, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	root, err := signing.ComputeSigningRoot(data, domain)
	require.NoError(t, err)
	bits := bitfield.NewBitvector512()
	sigs := make([]bls.Signature, 0, len(seats))
	for _, seat := range seats {
		bits.SetBitAt(seat, true)
		sigs = append(sigs, keys[ptc[seat]].Sign(root[:]))
	}
	var sig [fieldparams.BLSSignatureLength]byte
	if len(sigs) > 0 {
		copy(sig[:], bls.AggregateSignatures(sigs).Marshal())
	}
	return &epbs.PayloadAttestation{AggregationBits: bits, Data: data, Signature: sig}
}

// GeneratePayloadAttestationMessage returns a single signed PTC vote.
func GeneratePayloadAttestationMessage(t testing.TB, st state.ReadOnlyBeaconState, data *epbs.PayloadAttestationData, idx primitives.ValidatorIndex, sk bls.SecretKey) *epbs.PayloadAttestationMessage {
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(data.Slot), params.BeaconConfig().DomainPTCAttester, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	sig, err := signing.Sign(data, domain, sk)
	require.NoError(t, err)
	return &epbs.PayloadAttestationMessage{ValidatorIndex: idx, Data: data, Signature: sig}
}

// Seats returns the first n seat numbers of a committee.
func Seats(n uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i)
	}
	return out
}

// NewSeatBits returns PTC aggregation bits with the given seats set.
func NewSeatBits(seats ...uint64) bitfield.Bitvector512 {
	bits := bitfield.NewBitvector512()
	for _, s := range seats {
		bits.SetBitAt(s, true)
	}
	return bits
}
