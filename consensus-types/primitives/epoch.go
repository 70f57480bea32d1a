package primitives

import (
	"fmt"
	"math"
)

// Epoch represents a single epoch.
type Epoch uint64

// Mul multiplies epoch by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (e Epoch) Mul(x uint64) Epoch {
	if x != 0 && uint64(e) > math.MaxUint64/x {
		panic(fmt.Sprintf("multiplication overflow: %d * %d", e, x))
	}
	return e * Epoch(x)
}

// Add increases epoch by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (e Epoch) Add(x uint64) Epoch {
	res, err := e.SafeAdd(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeAdd increases epoch by x and returns an error on overflow.
func (e Epoch) SafeAdd(x uint64) (Epoch, error) {
	if uint64(e) > math.MaxUint64-x {
		return 0, fmt.Errorf("addition overflow: %d + %d", e, x)
	}
	return e + Epoch(x), nil
}

// Sub subtracts x from the epoch.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (e Epoch) Sub(x uint64) Epoch {
	if uint64(e) < x {
		panic(fmt.Sprintf("subtraction underflow: %d - %d", e, x))
	}
	return e - Epoch(x)
}

// Mod returns result of `epoch % x`.
func (e Epoch) Mod(x uint64) Epoch {
	if x == 0 {
		panic("integer divide by zero")
	}
	return e % Epoch(x)
}

// MaxEpoch compares two epochs and returns the greater one.
func MaxEpoch(a, b Epoch) Epoch {
	if a > b {
		return a
	}
	return b
}
