// Package fixedpoint provides floor-rounded fixed-point arithmetic on
// non-negative int64 amounts. Intermediate products are computed in
// 256-bit integers so a*b can never overflow before the division.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Scale is the fixed-point denominator: 7 decimal digits of precision.
const Scale int64 = 10_000_000

var (
	// ErrNegativeValue is returned when an operand is negative.
	ErrNegativeValue = errors.New("fixedpoint: negative value")
	// ErrDivisionByZero is returned when the denominator is not positive.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
	// ErrOverflow is returned when a result does not fit in int64.
	ErrOverflow = errors.New("fixedpoint: overflow")
)

// MulFloor returns floor(x * y / denom).
func MulFloor(x, y, denom int64) (int64, error) {
	return mulDivFloor(x, y, denom)
}

// DivFloor returns floor(x * denom / y), the fixed-point quotient of x
// over y at the given scale.
func DivFloor(x, y, denom int64) (int64, error) {
	return mulDivFloor(x, denom, y)
}

func mulDivFloor(a, b, denom int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegativeValue
	}
	if denom <= 0 {
		return 0, ErrDivisionByZero
	}

	product := new(uint256.Int).Mul(uint256.NewInt(uint64(a)), uint256.NewInt(uint64(b)))
	quotient := product.Div(product, uint256.NewInt(uint64(denom)))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	result := quotient.Uint64()
	if result > uint64(1<<63-1) {
		return 0, ErrOverflow
	}
	return int64(result), nil
}
