package kv

import (
	"context"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// JustifiedCheckpoint returns the latest justified checkpoint in beacon chain.
func (s *Store) JustifiedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.JustifiedCheckpoint")
	defer span.End()
	return s.checkpoint(justifiedCheckpointKey)
}

// FinalizedCheckpoint returns the latest finalized checkpoint in beacon chain.
func (s *Store) FinalizedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.FinalizedCheckpoint")
	defer span.End()
	return s.checkpoint(finalizedCheckpointKey)
}

// SaveJustifiedCheckpoint saves justified checkpoint in beacon chain.
func (s *Store) SaveJustifiedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveJustifiedCheckpoint")
	defer span.End()
	return s.saveCheckpoint(justifiedCheckpointKey, checkpoint)
}

// SaveFinalizedCheckpoint saves finalized checkpoint in beacon chain.
func (s *Store) SaveFinalizedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveFinalizedCheckpoint")
	defer span.End()
	return s.saveCheckpoint(finalizedCheckpointKey, checkpoint)
}

// checkpoint returns the stored checkpoint, or the zero checkpoint when none was saved.
func (s *Store) checkpoint(key []byte) (*blocks.Checkpoint, error) {
	cp := &blocks.Checkpoint{}
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(checkpointBucket).Get(key)
		if enc == nil {
			return nil
		}
		var err error
		cp, err = decodeCheckpoint(enc)
		return err
	})
	return cp, err
}

func (s *Store) saveCheckpoint(key []byte, checkpoint *blocks.Checkpoint) error {
	enc, err := encode(checkpoint)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointBucket).Put(key, enc)
	})
}

func decodeCheckpoint(enc []byte) (*blocks.Checkpoint, error) {
	cp := &blocks.Checkpoint{}
	if err := decode(enc, cp); err != nil {
		return nil, err
	}
	return cp, nil
}
