package blockchain

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/transition"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// ptcCacheSize covers a few epochs of committees across a handful of forks.
const ptcCacheSize = 256

type ptcKey struct {
	root [32]byte
	slot primitives.Slot
}

func newPTCCache() *lru.Cache {
	c, err := lru.New(ptcCacheSize)
	if err != nil {
		panic(err) // Only errors on a non-positive size.
	}
	return c
}

// ptcForBlock returns the committee that votes on the payload of the block at root,
// computed from that block's post-state advanced to slot. Results are cached per
// (root, slot).
func (s *Service) ptcForBlock(ctx context.Context, root [32]byte, slot primitives.Slot) ([]primitives.ValidatorIndex, error) {
	key := ptcKey{root: root, slot: slot}
	if v, ok := s.ptcCache.Get(key); ok {
		return v.([]primitives.ValidatorIndex), nil
	}
	st, err := s.cfg.BeaconDB.State(ctx, root)
	if err != nil {
		return nil, fatal(err, "could not read block state")
	}
	if st == nil {
		return nil, fatalError{error: errors.Errorf("no state stored for known block %#x", bytesutil.Trunc(root[:]))}
	}
	if st.Slot() > slot {
		return nil, errors.Errorf("payload attestation slot %d is before block slot %d", slot, st.Slot())
	}
	var ptc []primitives.ValidatorIndex
	if err := s.cfg.Pool.Run(ctx, func(ctx context.Context) error {
		if st.Slot() < slot {
			if err := transition.ProcessSlots(ctx, st, slot); err != nil {
				return errors.Wrap(err, "could not advance block state")
			}
		}
		var err error
		ptc, err = epbs.GetPTC(ctx, st, slot)
		return err
	}); err != nil {
		return nil, err
	}
	s.ptcCache.Add(key, ptc)
	return ptc, nil
}
