// Package math includes important helpers for the beacon chain such as fast integer square roots
// and overflow-checked arithmetic.
package math

import (
	"errors"
	stdmath "math"
	"math/bits"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow occurs when an operation exceeds max or minimum values.
	ErrOverflow = errors.New("integer overflow")
	// ErrDivByZero occurs when a division by zero is attempted.
	ErrDivByZero = errors.New("integer divide by zero")
	// ErrMulOverflow occurs when a multiplication overflows.
	ErrMulOverflow = errors.New("multiplication overflows")
	// ErrAddOverflow occurs when an addition overflows.
	ErrAddOverflow = errors.New("addition overflows")
	// ErrSubUnderflow occurs when a subtraction underflows.
	ErrSubUnderflow = errors.New("subtraction underflows")
)

// Mul64 multiples 2 64-bit unsigned integers and checks if they
// lead to an overflow. If they do not, it returns the result
// without an error.
func Mul64(a, b uint64) (uint64, error) {
	overflows, val := bits.Mul64(a, b)
	if overflows > 0 {
		return 0, ErrMulOverflow
	}
	return val, nil
}

// Add64 adds 2 64-bit unsigned integers and checks if they
// lead to an overflow. If they do not, it returns the result
// without an error.
func Add64(a, b uint64) (uint64, error) {
	res, carry := bits.Add64(a, b, 0 /* carry */)
	if carry > 0 {
		return 0, ErrAddOverflow
	}
	return res, nil
}

// Sub64 subtracts two 64-bit unsigned integers and checks for errors.
func Sub64(a, b uint64) (uint64, error) {
	res, borrow := bits.Sub64(a, b, 0 /* borrow */)
	if borrow > 0 {
		return 0, ErrSubUnderflow
	}
	return res, nil
}

// SaturatingAdd adds two values and clamps the result at MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	res, carry := bits.Add64(a, b, 0)
	if carry > 0 {
		return stdmath.MaxUint64
	}
	return res
}

// SaturatingSub subtracts b from a and clamps the result at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// MulDiv returns floor(a * b / c) computed in 256-bit precision so that the intermediate
// product cannot overflow.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivByZero
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	res := prod.Div(prod, uint256.NewInt(c))
	if !res.IsUint64() {
		return 0, ErrOverflow
	}
	return res.Uint64(), nil
}

// AtLeastFraction reports whether value >= total * num / den, evaluated without rounding as
// value * den >= total * num.
func AtLeastFraction(value, total, num, den uint64) bool {
	lhs := new(uint256.Int).Mul(uint256.NewInt(value), uint256.NewInt(den))
	rhs := new(uint256.Int).Mul(uint256.NewInt(total), uint256.NewInt(num))
	return !lhs.Lt(rhs)
}

// Max returns the larger integer of the two
// given ones.This is used over the Max function
// in the standard math library because that max function
// has to check for some special floating point cases
// making it slower by a magnitude of 10.
func Max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller integer of the two
// given ones. This is used over the Min function
// in the standard math library because that min function
// has to check for some special floating point cases
// making it slower by a magnitude of 10.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
