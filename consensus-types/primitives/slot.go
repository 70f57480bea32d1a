// Package primitives defines the basic integer and enum types used across the
// beacon chain so that slots, epochs and indices cannot be mixed up by accident.
package primitives

import (
	"fmt"
	"math"
)

// Slot represents a single slot.
type Slot uint64

// Mul multiplies slot by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Mul(x uint64) Slot {
	res, err := s.SafeMul(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeMul multiplies slot by x and returns an error on overflow.
func (s Slot) SafeMul(x uint64) (Slot, error) {
	if x != 0 && uint64(s) > math.MaxUint64/x {
		return 0, fmt.Errorf("multiplication overflow: %d * %d", s, x)
	}
	return s * Slot(x), nil
}

// Div divides slot by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Div(x uint64) Slot {
	if x == 0 {
		panic("integer divide by zero")
	}
	return s / Slot(x)
}

// Add increases slot by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Add(x uint64) Slot {
	res, err := s.SafeAdd(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeAdd increases slot by x and returns an error on overflow.
func (s Slot) SafeAdd(x uint64) (Slot, error) {
	if uint64(s) > math.MaxUint64-x {
		return 0, fmt.Errorf("addition overflow: %d + %d", s, x)
	}
	return s + Slot(x), nil
}

// Sub subtracts x from the slot.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Sub(x uint64) Slot {
	res, err := s.SafeSub(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeSub subtracts x from the slot and returns an error on underflow.
func (s Slot) SafeSub(x uint64) (Slot, error) {
	if uint64(s) < x {
		return 0, fmt.Errorf("subtraction underflow: %d - %d", s, x)
	}
	return s - Slot(x), nil
}

// SubSlot subtracts x from the slot, returning zero instead of underflowing.
func (s Slot) SubSlot(x Slot) Slot {
	if s < x {
		return 0
	}
	return s - x
}

// Mod returns result of `slot % x`.
func (s Slot) Mod(x uint64) Slot {
	if x == 0 {
		panic("integer divide by zero")
	}
	return s % Slot(x)
}
