package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of one whole unit (ether or token).
const Decimals = 18

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than 18 decimal places")
	ErrAmountOverflow = errors.New("amount does not fit in 256 bits")
)

// maxWeiDigits is the digit count of the largest 256-bit value.
const maxWeiDigits = 78

var oneEther = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// Ether returns n whole units expressed in the smallest denomination.
func Ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), oneEther)
}

// ParseEther converts a decimal string such as "1.5" into its wei value.
func ParseEther(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsZero() {
		return new(uint256.Int), nil
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	// Bound the integer digits before shifting so a huge exponent never
	// materialises as a big.Int.
	if int64(len(d.Coefficient().String()))+int64(d.Exponent())+Decimals > maxWeiDigits {
		return nil, ErrAmountOverflow
	}
	wei := d.Shift(Decimals)
	if !wei.IsInteger() {
		return nil, ErrTooPrecise
	}
	v, overflow := uint256.FromBig(wei.BigInt())
	if overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

// ParseWei parses a base-10 integer amount.
func ParseWei(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// FormatEther renders a wei value as a decimal string of whole units.
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei.ToBig(), -Decimals).String()
}

// Float returns an approximate whole-unit value, for gauges only.
func Float(wei *uint256.Int) float64 {
	if wei == nil {
		return 0
	}
	return decimal.NewFromBigInt(wei.ToBig(), -Decimals).InexactFloat64()
}
