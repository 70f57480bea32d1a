package state_native

import (
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
)

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

func copyRoots(r [][32]byte) [][32]byte {
	if r == nil {
		return nil
	}
	cp := make([][32]byte, len(r))
	copy(cp, r)
	return cp
}

func copyUint64s(u []uint64) []uint64 {
	if u == nil {
		return nil
	}
	cp := make([]uint64, len(u))
	copy(cp, u)
	return cp
}

func copyFork(f *blocks.Fork) *blocks.Fork {
	if f == nil {
		return nil
	}
	cp := *f
	return &cp
}

func copyCheckpoint(c *blocks.Checkpoint) *blocks.Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func copyValidators(vals []*validator.Validator) []*validator.Validator {
	if vals == nil {
		return nil
	}
	cp := make([]*validator.Validator, len(vals))
	for i, v := range vals {
		cp[i] = v.Copy()
	}
	return cp
}

func copyBuilders(builders []*epbs.Builder) []*epbs.Builder {
	if builders == nil {
		return nil
	}
	cp := make([]*epbs.Builder, len(builders))
	for i, b := range builders {
		cp[i] = b.Copy()
	}
	return cp
}

func copyPendingPayments(p []*epbs.BuilderPendingPayment) []*epbs.BuilderPendingPayment {
	if p == nil {
		return nil
	}
	cp := make([]*epbs.BuilderPendingPayment, len(p))
	for i, pp := range p {
		cp[i] = pp.Copy()
	}
	return cp
}

func copyPendingWithdrawals(w []*epbs.BuilderPendingWithdrawal) []*epbs.BuilderPendingWithdrawal {
	if w == nil {
		return nil
	}
	cp := make([]*epbs.BuilderPendingWithdrawal, len(w))
	for i, ww := range w {
		if ww != nil {
			c := *ww
			cp[i] = &c
		}
	}
	return cp
}

func copyWithdrawals(w []*epbs.Withdrawal) []*epbs.Withdrawal {
	if w == nil {
		return nil
	}
	cp := make([]*epbs.Withdrawal, len(w))
	for i, ww := range w {
		if ww != nil {
			c := *ww
			cp[i] = &c
		}
	}
	return cp
}
