package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

type snapshotter interface {
	Snapshot() *state_native.Snapshot
}

// State returns the post-block state for the given block root, or nil when none is stored.
func (s *Store) State(ctx context.Context, blockRoot [32]byte) (state.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.State")
	defer span.End()
	return s.stateFromBucket(stateBucket, blockRoot)
}

// HasState checks if a post-block state exists for the block root.
func (s *Store) HasState(ctx context.Context, blockRoot [32]byte) bool {
	_, span := trace.StartSpan(ctx, "BeaconDB.HasState")
	defer span.End()
	return s.has(stateBucket, blockRoot)
}

// SaveState stores the post-block state under the block root.
func (s *Store) SaveState(ctx context.Context, st state.ReadOnlyBeaconState, blockRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveState")
	defer span.End()
	return s.saveStateToBucket(stateBucket, st, blockRoot)
}

// ExecutionPayloadState returns the state after the payload of the given block was
// revealed, or nil when the payload has not been processed.
func (s *Store) ExecutionPayloadState(ctx context.Context, blockRoot [32]byte) (state.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ExecutionPayloadState")
	defer span.End()
	return s.stateFromBucket(executionPayloadStateBucket, blockRoot)
}

// HasExecutionPayloadState checks if a post-payload state exists for the block root.
func (s *Store) HasExecutionPayloadState(ctx context.Context, blockRoot [32]byte) bool {
	_, span := trace.StartSpan(ctx, "BeaconDB.HasExecutionPayloadState")
	defer span.End()
	return s.has(executionPayloadStateBucket, blockRoot)
}

// SaveExecutionPayloadState stores the post-payload state under the block root.
func (s *Store) SaveExecutionPayloadState(ctx context.Context, st state.ReadOnlyBeaconState, blockRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveExecutionPayloadState")
	defer span.End()
	return s.saveStateToBucket(executionPayloadStateBucket, st, blockRoot)
}

// ExecutionPayloadEnvelope returns the revealed envelope for a block root, or nil.
func (s *Store) ExecutionPayloadEnvelope(ctx context.Context, blockRoot [32]byte) (*epbs.SignedExecutionPayloadEnvelope, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ExecutionPayloadEnvelope")
	defer span.End()
	var env *epbs.SignedExecutionPayloadEnvelope
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(payloadEnvelopesBucket).Get(blockRoot[:])
		if enc == nil {
			return nil
		}
		env = &epbs.SignedExecutionPayloadEnvelope{}
		return decode(enc, env)
	})
	return env, err
}

// SaveExecutionPayloadEnvelope stores an envelope under the block root it completes.
func (s *Store) SaveExecutionPayloadEnvelope(ctx context.Context, env *epbs.SignedExecutionPayloadEnvelope) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveExecutionPayloadEnvelope")
	defer span.End()
	if env == nil || env.Message == nil {
		return errNilValue
	}
	enc, err := encode(env)
	if err != nil {
		return err
	}
	root := env.Message.BeaconBlockRoot
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(payloadEnvelopesBucket).Put(root[:], enc)
	})
}

// DeleteStatesBelowSlot removes post-block and post-payload states older than slot,
// keeping the genesis and finalized states. It returns the number of block roots whose
// states were removed.
func (s *Store) DeleteStatesBelowSlot(ctx context.Context, slot primitives.Slot) (int, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.DeleteStatesBelowSlot")
	defer span.End()
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		keep := make(map[[32]byte]bool)
		if r := tx.Bucket(chainMetadataBucket).Get(genesisBlockRootKey); len(r) == 32 {
			keep[bytesutil.ToBytes32(r)] = true
		}
		if enc := tx.Bucket(checkpointBucket).Get(finalizedCheckpointKey); enc != nil {
			cp, err := decodeCheckpoint(enc)
			if err != nil {
				return err
			}
			keep[cp.Root] = true
		}
		slots := tx.Bucket(stateSlotsBucket)
		var stale [][]byte
		if err := slots.ForEach(func(k, v []byte) error {
			if primitives.Slot(bytesutil.BytesToUint64BigEndian(v)) >= slot || keep[bytesutil.ToBytes32(k)] {
				return nil
			}
			stale = append(stale, append([]byte{}, k...))
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := tx.Bucket(stateBucket).Delete(k); err != nil {
				return err
			}
			if err := tx.Bucket(executionPayloadStateBucket).Delete(k); err != nil {
				return err
			}
			if err := slots.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

func (s *Store) has(bucket []byte, blockRoot [32]byte) bool {
	exists := false
	if err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucket).Get(blockRoot[:]) != nil
		return nil
	}); err != nil {
		log.WithError(err).WithField("bucket", string(bucket)).Error("Could not check key existence")
		return false
	}
	return exists
}

func (s *Store) stateFromBucket(bucket []byte, blockRoot [32]byte) (state.BeaconState, error) {
	var snapshot *state_native.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(bucket).Get(blockRoot[:])
		if enc == nil {
			return nil
		}
		snapshot = &state_native.Snapshot{}
		return decode(enc, snapshot)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read state for block %#x", blockRoot)
	}
	if snapshot == nil {
		return nil, nil
	}
	st, err := state_native.InitializeFromSnapshot(snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt state for block %#x", blockRoot)
	}
	return st, nil
}

func (s *Store) saveStateToBucket(bucket []byte, st state.ReadOnlyBeaconState, blockRoot [32]byte) error {
	if st == nil {
		return errNilValue
	}
	snap, ok := st.(snapshotter)
	if !ok {
		return errors.Wrapf(ErrUnsupportedState, "%T", st)
	}
	enc, err := encode(snap.Snapshot())
	if err != nil {
		return err
	}
	slot := bytesutil.Uint64ToBytesBigEndian(uint64(st.Slot()))
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucket).Put(blockRoot[:], enc); err != nil {
			return err
		}
		// The payload state shares its block's root and is pruned together with it.
		if existing := tx.Bucket(stateSlotsBucket).Get(blockRoot[:]); existing != nil &&
			bytesutil.BytesToUint64BigEndian(existing) <= uint64(st.Slot()) {
			return nil
		}
		return tx.Bucket(stateSlotsBucket).Put(blockRoot[:], slot)
	})
}
