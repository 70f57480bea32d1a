// Package epbs defines the containers exchanged between proposers, builders and the
// payload timeliness committee once block production is split into a consensus
// block that commits to a bid and a separately revealed execution payload.
package epbs

import (
	"github.com/prysmaticlabs/go-bitfield"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// Builder is an entry of the builder registry. Builders are staked parties that are not
// validators and live in their own index space.
type Builder struct {
	Pubkey            [fieldparams.BLSPubkeyLength]byte
	ExecutionAddress  [fieldparams.FeeRecipientLength]byte
	Balance           primitives.Gwei
	DepositEpoch      primitives.Epoch
	WithdrawableEpoch primitives.Epoch
}

// ExecutionPayloadBid is a builder's commitment to an execution payload for a slot.
type ExecutionPayloadBid struct {
	ParentBlockHash    [32]byte
	ParentBlockRoot    [32]byte
	BlockHash          [32]byte
	PrevRandao         [32]byte
	FeeRecipient       [fieldparams.FeeRecipientLength]byte
	GasLimit           uint64
	BuilderIndex       primitives.BuilderIndex
	Slot               primitives.Slot
	Value              primitives.Gwei
	BlobKzgCommitments [][fieldparams.KzgCommitmentLength]byte
}

// IsSelfBuild returns true when the proposer builds its own payload.
func (b *ExecutionPayloadBid) IsSelfBuild() bool {
	return b != nil && b.BuilderIndex == params.BeaconConfig().BuilderIndexSelfBuild
}

// SignedExecutionPayloadBid wraps a bid with the builder's signature.
type SignedExecutionPayloadBid struct {
	Message   *ExecutionPayloadBid
	Signature [fieldparams.BLSSignatureLength]byte
}

// Withdrawal is an execution layer withdrawal.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex primitives.ValidatorIndex
	Address        [fieldparams.FeeRecipientLength]byte
	Amount         primitives.Gwei
}

// ExecutionPayload is the execution block revealed by the builder.
type ExecutionPayload struct {
	ParentHash    [32]byte
	FeeRecipient  [fieldparams.FeeRecipientLength]byte
	StateRoot     [32]byte
	ReceiptsRoot  [32]byte
	LogsBloom     [fieldparams.LogsBloomLength]byte
	PrevRandao    [32]byte
	BlockNumber   uint64
	GasLimit      uint64
	GasUsed       uint64
	Timestamp     uint64
	ExtraData     []byte
	BaseFeePerGas [32]byte // little-endian
	BlockHash     [32]byte
	Transactions  [][]byte
	Withdrawals   []*Withdrawal
	BlobGasUsed   uint64
	ExcessBlobGas uint64
}

// ExecutionPayloadEnvelope carries the revealed payload together with the consensus
// block root it completes.
type ExecutionPayloadEnvelope struct {
	Payload            *ExecutionPayload
	BuilderIndex       primitives.BuilderIndex
	BeaconBlockRoot    [32]byte
	Slot               primitives.Slot
	BlobKzgCommitments [][fieldparams.KzgCommitmentLength]byte
	StateRoot          [32]byte
}

// SignedExecutionPayloadEnvelope wraps an envelope with the builder's signature.
type SignedExecutionPayloadEnvelope struct {
	Message   *ExecutionPayloadEnvelope
	Signature [fieldparams.BLSSignatureLength]byte
}

// PayloadAttestationData is what a PTC member attests to about a block's payload.
type PayloadAttestationData struct {
	BeaconBlockRoot   [32]byte
	Slot              primitives.Slot
	PayloadPresent    bool
	BlobDataAvailable bool
}

// PayloadAttestation is an aggregate of PTC votes over identical data. Bit i of
// AggregationBits refers to seat i of the slot's PTC.
type PayloadAttestation struct {
	AggregationBits bitfield.Bitvector512
	Data            *PayloadAttestationData
	Signature       [fieldparams.BLSSignatureLength]byte
}

// PayloadAttestationMessage is a single PTC member's vote as gossiped.
type PayloadAttestationMessage struct {
	ValidatorIndex primitives.ValidatorIndex
	Data           *PayloadAttestationData
	Signature      [fieldparams.BLSSignatureLength]byte
}

// IndexedPayloadAttestation is a PayloadAttestation with its bits resolved to
// validator indices.
type IndexedPayloadAttestation struct {
	AttestingIndices []primitives.ValidatorIndex
	Data             *PayloadAttestationData
	Signature        [fieldparams.BLSSignatureLength]byte
}

// BuilderPendingWithdrawal is an amount owed by a builder and queued for the
// execution layer.
type BuilderPendingWithdrawal struct {
	FeeRecipient      [fieldparams.FeeRecipientLength]byte
	Amount            primitives.Gwei
	BuilderIndex      primitives.BuilderIndex
	WithdrawableEpoch primitives.Epoch
}

// BuilderPendingPayment tracks the conditional payment promised by an accepted bid
// and the PTC weight that has been observed for it.
type BuilderPendingPayment struct {
	Weight         primitives.Gwei
	WithheldWeight primitives.Gwei
	Withdrawal     BuilderPendingWithdrawal
	Participation  bitfield.Bitvector512
	Settled        bool
}

// NewBuilderPendingPayment returns an empty payment slot.
func NewBuilderPendingPayment() *BuilderPendingPayment {
	return &BuilderPendingPayment{Participation: bitfield.NewBitvector512()}
}
