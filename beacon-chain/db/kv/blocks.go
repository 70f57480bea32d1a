package kv

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// Block retrieval by root. A missing block is returned as nil with no error.
func (s *Store) Block(ctx context.Context, blockRoot [32]byte) (*blocks.SignedBeaconBlock, error) {
	ctx, span := trace.StartSpan(ctx, "BeaconDB.Block")
	defer span.End()
	// Return block from cache if it exists.
	if v, ok := s.blockCache.Get(string(blockRoot[:])); v != nil && ok {
		if blk, ok := v.(*blocks.SignedBeaconBlock); ok {
			return blk.Copy(), nil
		}
	}
	var blk *blocks.SignedBeaconBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(blocksBucket).Get(blockRoot[:])
		if enc == nil {
			return nil
		}
		blk = &blocks.SignedBeaconBlock{}
		return decode(enc, blk)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read block %#x", blockRoot)
	}
	return blk, nil
}

// HasBlock checks if a block by root exists in the db.
func (s *Store) HasBlock(ctx context.Context, blockRoot [32]byte) bool {
	_, span := trace.StartSpan(ctx, "BeaconDB.HasBlock")
	defer span.End()
	if v, ok := s.blockCache.Get(string(blockRoot[:])); v != nil && ok {
		return true
	}
	return s.has(blocksBucket, blockRoot)
}

// SaveBlock stores a signed block keyed by the hash tree root of its message and
// indexes it by slot.
func (s *Store) SaveBlock(ctx context.Context, signed *blocks.SignedBeaconBlock) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveBlock")
	defer span.End()
	if err := blocks.BeaconBlockIsNil(signed); err != nil {
		return err
	}
	blockRoot, err := signed.Block.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not compute block root")
	}
	enc, err := encode(signed)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(blocksBucket).Put(blockRoot[:], enc); err != nil {
			return err
		}
		return appendRootToIndex(tx.Bucket(blockSlotIndicesBucket), bytesutil.Uint64ToBytesBigEndian(uint64(signed.Block.Slot)), blockRoot)
	}); err != nil {
		return err
	}
	s.blockCache.Set(string(blockRoot[:]), signed.Copy(), int64(len(enc)))
	return nil
}

// BlockRootsBySlot returns the roots of every stored block at slot.
func (s *Store) BlockRootsBySlot(ctx context.Context, slot primitives.Slot) ([][32]byte, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.BlockRootsBySlot")
	defer span.End()
	var roots [][32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(blockSlotIndicesBucket).Get(bytesutil.Uint64ToBytesBigEndian(uint64(slot)))
		for i := 0; i+32 <= len(idx); i += 32 {
			roots = append(roots, bytesutil.ToBytes32(idx[i:i+32]))
		}
		return nil
	})
	return roots, err
}

// GenesisBlockRoot returns the root of the genesis block.
func (s *Store) GenesisBlockRoot(ctx context.Context) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.GenesisBlockRoot")
	defer span.End()
	return s.rootAtKey(genesisBlockRootKey, ErrNotFoundGenesisBlockRoot)
}

// SaveGenesisBlockRoot to the db.
func (s *Store) SaveGenesisBlockRoot(ctx context.Context, blockRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveGenesisBlockRoot")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chainMetadataBucket).Put(genesisBlockRootKey, blockRoot[:])
	})
}

// HeadBlockRoot returns the last saved head root.
func (s *Store) HeadBlockRoot(ctx context.Context) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.HeadBlockRoot")
	defer span.End()
	return s.rootAtKey(headBlockRootKey, ErrNotFoundHeadBlockRoot)
}

// SaveHeadBlockRoot to the db.
func (s *Store) SaveHeadBlockRoot(ctx context.Context, blockRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveHeadBlockRoot")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chainMetadataBucket).Put(headBlockRootKey, blockRoot[:])
	})
}

func (s *Store) rootAtKey(key []byte, notFound error) ([32]byte, error) {
	var root [32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		r := tx.Bucket(chainMetadataBucket).Get(key)
		if len(r) == 0 {
			return notFound
		}
		root = bytesutil.ToBytes32(r)
		return nil
	})
	return root, err
}

// appendRootToIndex adds root to the list stored under key, once.
func appendRootToIndex(bkt *bolt.Bucket, key []byte, root [32]byte) error {
	existing := bkt.Get(key)
	for i := 0; i+32 <= len(existing); i += 32 {
		if bytes.Equal(existing[i:i+32], root[:]) {
			return nil
		}
	}
	// Bolt owns the returned slice until the transaction ends, so build a new value.
	val := make([]byte, 0, len(existing)+32)
	val = append(val, existing...)
	val = append(val, root[:]...)
	return bkt.Put(key, val)
}
