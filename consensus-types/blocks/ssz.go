package blocks

import (
	ssz "github.com/prysmaticlabs/fastssz"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
)

// HashTreeRoot ssz hashes the Checkpoint object
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher
func (c *Checkpoint) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(c.Epoch))
	hh.PutBytes(c.Root[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlockHeader object
func (h *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the BeaconBlockHeader object with a hasher
func (h *BeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(h.Slot))
	hh.PutUint64(uint64(h.ProposerIndex))
	hh.PutBytes(h.ParentRoot[:])
	hh.PutBytes(h.StateRoot[:])
	hh.PutBytes(h.BodyRoot[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedBeaconBlockHeader object
func (h *SignedBeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlockHeader object with a hasher
func (h *SignedBeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	if h.Header == nil {
		return ErrNilBlock
	}
	indx := hh.Index()
	if err := h.Header.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(h.Signature[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ProposerSlashing object
func (s *ProposerSlashing) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the ProposerSlashing object with a hasher
func (s *ProposerSlashing) HashTreeRootWith(hh *ssz.Hasher) error {
	if s.Header_1 == nil || s.Header_2 == nil {
		return ErrNilBlock
	}
	indx := hh.Index()
	if err := s.Header_1.HashTreeRootWith(hh); err != nil {
		return err
	}
	if err := s.Header_2.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlockBody object
func (b *BeaconBlockBody) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockBody object with a hasher
func (b *BeaconBlockBody) HashTreeRootWith(hh *ssz.Hasher) error {
	if b.SignedExecutionPayloadBid == nil {
		return ErrNilBid
	}
	indx := hh.Index()

	hh.PutBytes(b.RandaoReveal[:])
	hh.PutBytes(b.Graffiti[:])

	// Field (2) 'ProposerSlashings'
	{
		subIndx := hh.Index()
		num := uint64(len(b.ProposerSlashings))
		if num > fieldparams.MaxProposerSlashings {
			return ssz.ErrIncorrectListSize
		}
		for _, elem := range b.ProposerSlashings {
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, fieldparams.MaxProposerSlashings)
	}

	if err := b.SignedExecutionPayloadBid.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (4) 'PayloadAttestations'
	{
		subIndx := hh.Index()
		num := uint64(len(b.PayloadAttestations))
		if num > fieldparams.MaxPayloadAttestations {
			return ssz.ErrIncorrectListSize
		}
		for _, elem := range b.PayloadAttestations {
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, fieldparams.MaxPayloadAttestations)
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlock object
func (b *BeaconBlock) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlock object with a hasher
func (b *BeaconBlock) HashTreeRootWith(hh *ssz.Hasher) error {
	if b.Body == nil {
		return ErrNilBlock
	}
	indx := hh.Index()
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.ProposerIndex))
	hh.PutBytes(b.ParentRoot[:])
	hh.PutBytes(b.StateRoot[:])
	if err := b.Body.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}
