package execution

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// Engine API payload status values.
const (
	StatusValid            = "VALID"
	StatusInvalid          = "INVALID"
	StatusSyncing          = "SYNCING"
	StatusAccepted         = "ACCEPTED"
	StatusInvalidBlockHash = "INVALID_BLOCK_HASH"
)

type withdrawalJSON struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        common.Address `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

// executionPayloadJSON is the engine API V3 encoding of an execution payload.
type executionPayloadJSON struct {
	ParentHash    common.Hash       `json:"parentHash"`
	FeeRecipient  common.Address    `json:"feeRecipient"`
	StateRoot     common.Hash       `json:"stateRoot"`
	ReceiptsRoot  common.Hash       `json:"receiptsRoot"`
	LogsBloom     hexutil.Bytes     `json:"logsBloom"`
	PrevRandao    common.Hash       `json:"prevRandao"`
	BlockNumber   hexutil.Uint64    `json:"blockNumber"`
	GasLimit      hexutil.Uint64    `json:"gasLimit"`
	GasUsed       hexutil.Uint64    `json:"gasUsed"`
	Timestamp     hexutil.Uint64    `json:"timestamp"`
	ExtraData     hexutil.Bytes     `json:"extraData"`
	BaseFeePerGas *hexutil.Big      `json:"baseFeePerGas"`
	BlockHash     common.Hash       `json:"blockHash"`
	Transactions  []hexutil.Bytes   `json:"transactions"`
	Withdrawals   []*withdrawalJSON `json:"withdrawals"`
	BlobGasUsed   hexutil.Uint64    `json:"blobGasUsed"`
	ExcessBlobGas hexutil.Uint64    `json:"excessBlobGas"`
}

// payloadStatusJSON is the engine API response to newPayload.
type payloadStatusJSON struct {
	Status          string       `json:"status"`
	LatestValidHash *common.Hash `json:"latestValidHash"`
	ValidationError *string      `json:"validationError"`
}

// littleEndianToBig converts the SSZ little-endian base fee to a big integer.
func littleEndianToBig(b [32]byte) *big.Int {
	return new(big.Int).SetBytes(bytesutil.ReverseByteOrder(b[:]))
}

func bigToLittleEndian(v *big.Int) [32]byte {
	if v == nil {
		return [32]byte{}
	}
	return bytesutil.ToBytes32(bytesutil.ReverseByteOrder(v.Bytes()))
}

func payloadToJSON(p *epbs.ExecutionPayload) *executionPayloadJSON {
	txs := make([]hexutil.Bytes, len(p.Transactions))
	for i, tx := range p.Transactions {
		txs[i] = tx
	}
	withdrawals := make([]*withdrawalJSON, len(p.Withdrawals))
	for i, w := range p.Withdrawals {
		withdrawals[i] = &withdrawalJSON{
			Index:          hexutil.Uint64(w.Index),
			ValidatorIndex: hexutil.Uint64(w.ValidatorIndex),
			Address:        common.Address(w.Address),
			Amount:         hexutil.Uint64(w.Amount),
		}
	}
	extra := p.ExtraData
	if extra == nil {
		extra = []byte{}
	}
	return &executionPayloadJSON{
		ParentHash:    p.ParentHash,
		FeeRecipient:  common.Address(p.FeeRecipient),
		StateRoot:     p.StateRoot,
		ReceiptsRoot:  p.ReceiptsRoot,
		LogsBloom:     p.LogsBloom[:],
		PrevRandao:    p.PrevRandao,
		BlockNumber:   hexutil.Uint64(p.BlockNumber),
		GasLimit:      hexutil.Uint64(p.GasLimit),
		GasUsed:       hexutil.Uint64(p.GasUsed),
		Timestamp:     hexutil.Uint64(p.Timestamp),
		ExtraData:     extra,
		BaseFeePerGas: (*hexutil.Big)(littleEndianToBig(p.BaseFeePerGas)),
		BlockHash:     p.BlockHash,
		Transactions:  txs,
		Withdrawals:   withdrawals,
		BlobGasUsed:   hexutil.Uint64(p.BlobGasUsed),
		ExcessBlobGas: hexutil.Uint64(p.ExcessBlobGas),
	}
}

func (j *executionPayloadJSON) toPayload() *epbs.ExecutionPayload {
	p := &epbs.ExecutionPayload{
		ParentHash:    j.ParentHash,
		FeeRecipient:  j.FeeRecipient,
		StateRoot:     j.StateRoot,
		ReceiptsRoot:  j.ReceiptsRoot,
		PrevRandao:    j.PrevRandao,
		BlockNumber:   uint64(j.BlockNumber),
		GasLimit:      uint64(j.GasLimit),
		GasUsed:       uint64(j.GasUsed),
		Timestamp:     uint64(j.Timestamp),
		ExtraData:     j.ExtraData,
		BaseFeePerGas: bigToLittleEndian((*big.Int)(j.BaseFeePerGas)),
		BlockHash:     j.BlockHash,
		BlobGasUsed:   uint64(j.BlobGasUsed),
		ExcessBlobGas: uint64(j.ExcessBlobGas),
	}
	copy(p.LogsBloom[:], j.LogsBloom)
	for _, tx := range j.Transactions {
		p.Transactions = append(p.Transactions, tx)
	}
	for _, w := range j.Withdrawals {
		p.Withdrawals = append(p.Withdrawals, &epbs.Withdrawal{
			Index:          uint64(w.Index),
			ValidatorIndex: primitives.ValidatorIndex(w.ValidatorIndex),
			Address:        w.Address,
			Amount:         primitives.Gwei(w.Amount),
		})
	}
	return p
}
