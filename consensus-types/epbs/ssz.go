package epbs

import (
	ssz "github.com/prysmaticlabs/fastssz"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
)

// chunk limits of the variable length fields.
const (
	blobCommitmentsLimit  = fieldparams.MaxBlobCommitmentsPerBlock
	withdrawalsLimit      = fieldparams.MaxWithdrawalsPerPayload
	transactionsLimit     = fieldparams.MaxTxsPerPayloadLength
	txChunkLimit          = (fieldparams.MaxBytesPerTxLength + 31) / 32
	extraDataChunkLimit   = (fieldparams.MaxExtraDataLength + 31) / 32
	attestingIndicesLimit = (fieldparams.PTCSize*8 + 31) / 32
)

// HashTreeRoot ssz hashes the Builder object
func (b *Builder) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the Builder object with a hasher
func (b *Builder) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(b.Pubkey[:])
	hh.PutBytes(b.ExecutionAddress[:])
	hh.PutUint64(uint64(b.Balance))
	hh.PutUint64(uint64(b.DepositEpoch))
	hh.PutUint64(uint64(b.WithdrawableEpoch))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ExecutionPayloadBid object
func (b *ExecutionPayloadBid) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the ExecutionPayloadBid object with a hasher
func (b *ExecutionPayloadBid) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()

	hh.PutBytes(b.ParentBlockHash[:])
	hh.PutBytes(b.ParentBlockRoot[:])
	hh.PutBytes(b.BlockHash[:])
	hh.PutBytes(b.PrevRandao[:])
	hh.PutBytes(b.FeeRecipient[:])
	hh.PutUint64(b.GasLimit)
	hh.PutUint64(uint64(b.BuilderIndex))
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.Value))
	if err := putCommitments(hh, b.BlobKzgCommitments); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedExecutionPayloadBid object
func (b *SignedExecutionPayloadBid) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the SignedExecutionPayloadBid object with a hasher
func (b *SignedExecutionPayloadBid) HashTreeRootWith(hh *ssz.Hasher) error {
	if b.Message == nil {
		return errNilMessage
	}
	indx := hh.Index()
	if err := b.Message.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(b.Signature[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Withdrawal object
func (w *Withdrawal) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(w)
}

// HashTreeRootWith ssz hashes the Withdrawal object with a hasher
func (w *Withdrawal) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(w.Index)
	hh.PutUint64(uint64(w.ValidatorIndex))
	hh.PutBytes(w.Address[:])
	hh.PutUint64(uint64(w.Amount))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ExecutionPayload object
func (e *ExecutionPayload) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(e)
}

// HashTreeRootWith ssz hashes the ExecutionPayload object with a hasher
func (e *ExecutionPayload) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()

	hh.PutBytes(e.ParentHash[:])
	hh.PutBytes(e.FeeRecipient[:])
	hh.PutBytes(e.StateRoot[:])
	hh.PutBytes(e.ReceiptsRoot[:])
	hh.PutBytes(e.LogsBloom[:])
	hh.PutBytes(e.PrevRandao[:])
	hh.PutUint64(e.BlockNumber)
	hh.PutUint64(e.GasLimit)
	hh.PutUint64(e.GasUsed)
	hh.PutUint64(e.Timestamp)

	// Field (10) 'ExtraData'
	{
		elemIndx := hh.Index()
		byteLen := uint64(len(e.ExtraData))
		if byteLen > fieldparams.MaxExtraDataLength {
			return ssz.ErrIncorrectListSize
		}
		hh.Append(e.ExtraData)
		hh.FillUpTo32()
		hh.MerkleizeWithMixin(elemIndx, byteLen, extraDataChunkLimit)
	}

	hh.PutBytes(e.BaseFeePerGas[:])
	hh.PutBytes(e.BlockHash[:])

	// Field (13) 'Transactions'
	{
		subIndx := hh.Index()
		num := uint64(len(e.Transactions))
		if num > transactionsLimit {
			return ssz.ErrIncorrectListSize
		}
		for _, elem := range e.Transactions {
			elemIndx := hh.Index()
			byteLen := uint64(len(elem))
			if byteLen > fieldparams.MaxBytesPerTxLength {
				return ssz.ErrIncorrectListSize
			}
			hh.Append(elem)
			hh.FillUpTo32()
			hh.MerkleizeWithMixin(elemIndx, byteLen, txChunkLimit)
		}
		hh.MerkleizeWithMixin(subIndx, num, transactionsLimit)
	}

	// Field (14) 'Withdrawals'
	{
		subIndx := hh.Index()
		num := uint64(len(e.Withdrawals))
		if num > withdrawalsLimit {
			return ssz.ErrIncorrectListSize
		}
		for _, elem := range e.Withdrawals {
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, withdrawalsLimit)
	}

	hh.PutUint64(e.BlobGasUsed)
	hh.PutUint64(e.ExcessBlobGas)

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ExecutionPayloadEnvelope object
func (e *ExecutionPayloadEnvelope) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(e)
}

// HashTreeRootWith ssz hashes the ExecutionPayloadEnvelope object with a hasher
func (e *ExecutionPayloadEnvelope) HashTreeRootWith(hh *ssz.Hasher) error {
	if e.Payload == nil {
		return errNilPayload
	}
	indx := hh.Index()
	if err := e.Payload.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutUint64(uint64(e.BuilderIndex))
	hh.PutBytes(e.BeaconBlockRoot[:])
	hh.PutUint64(uint64(e.Slot))
	if err := putCommitments(hh, e.BlobKzgCommitments); err != nil {
		return err
	}
	hh.PutBytes(e.StateRoot[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the PayloadAttestationData object
func (p *PayloadAttestationData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the PayloadAttestationData object with a hasher
func (p *PayloadAttestationData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(p.BeaconBlockRoot[:])
	hh.PutUint64(uint64(p.Slot))
	hh.PutBool(p.PayloadPresent)
	hh.PutBool(p.BlobDataAvailable)
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the PayloadAttestation object
func (p *PayloadAttestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the PayloadAttestation object with a hasher
func (p *PayloadAttestation) HashTreeRootWith(hh *ssz.Hasher) error {
	if p.Data == nil {
		return errNilData
	}
	if len(p.AggregationBits) != fieldparams.PTCBitvectorLength {
		return ssz.ErrBytesLength
	}
	indx := hh.Index()
	hh.PutBytes(p.AggregationBits)
	if err := p.Data.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(p.Signature[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the PayloadAttestationMessage object
func (p *PayloadAttestationMessage) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the PayloadAttestationMessage object with a hasher
func (p *PayloadAttestationMessage) HashTreeRootWith(hh *ssz.Hasher) error {
	if p.Data == nil {
		return errNilData
	}
	indx := hh.Index()
	hh.PutUint64(uint64(p.ValidatorIndex))
	if err := p.Data.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(p.Signature[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the IndexedPayloadAttestation object
func (p *IndexedPayloadAttestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the IndexedPayloadAttestation object with a hasher
func (p *IndexedPayloadAttestation) HashTreeRootWith(hh *ssz.Hasher) error {
	if p.Data == nil {
		return errNilData
	}
	indx := hh.Index()

	// Field (0) 'AttestingIndices'
	{
		if uint64(len(p.AttestingIndices)) > fieldparams.PTCSize {
			return ssz.ErrIncorrectListSize
		}
		subIndx := hh.Index()
		for _, i := range p.AttestingIndices {
			hh.AppendUint64(uint64(i))
		}
		hh.FillUpTo32()
		hh.MerkleizeWithMixin(subIndx, uint64(len(p.AttestingIndices)), attestingIndicesLimit)
	}

	if err := p.Data.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(p.Signature[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BuilderPendingWithdrawal object
func (w *BuilderPendingWithdrawal) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(w)
}

// HashTreeRootWith ssz hashes the BuilderPendingWithdrawal object with a hasher
func (w *BuilderPendingWithdrawal) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(w.FeeRecipient[:])
	hh.PutUint64(uint64(w.Amount))
	hh.PutUint64(uint64(w.BuilderIndex))
	hh.PutUint64(uint64(w.WithdrawableEpoch))
	hh.Merkleize(indx)
	return nil
}

func putCommitments(hh *ssz.Hasher, commitments [][fieldparams.KzgCommitmentLength]byte) error {
	subIndx := hh.Index()
	num := uint64(len(commitments))
	if num > blobCommitmentsLimit {
		return ssz.ErrIncorrectListSize
	}
	for i := range commitments {
		hh.PutBytes(commitments[i][:])
	}
	hh.MerkleizeWithMixin(subIndx, num, blobCommitmentsLimit)
	return nil
}
