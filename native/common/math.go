package common

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// BasisPointsDenom is the denominator for every bps-expressed parameter.
const BasisPointsDenom = 10_000

var ErrArithmeticOverflow = fmt.Errorf("arithmetic overflow: %w", ErrRangeViolation)

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %w", ErrRangeViolation)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return out, nil
}

// Add returns a+b, failing when the result leaves the 256-bit range.
func Add(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return sum.ToBig(), nil
}

// Sub returns a-b and rejects underflow.
func Sub(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	diff, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, fmt.Errorf("arithmetic underflow: %w", ErrRangeViolation)
	}
	return diff.ToBig(), nil
}

// Mul returns a*b, failing on overflow.
func Mul(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	product, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return product.ToBig(), nil
}

// MulBps returns v*bps/10000 rounded down.
func MulBps(v *big.Int, bps uint64) (*big.Int, error) {
	x, err := toU256(v)
	if err != nil {
		return nil, err
	}
	product, overflow := new(uint256.Int).MulOverflow(x, uint256.NewInt(bps))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return product.Div(product, uint256.NewInt(BasisPointsDenom)).ToBig(), nil
}
