package sales

import "github.com/holiman/uint256"

// ToAssetAmount converts a payment into asset units at a fixed rate.
// The product is exact; ErrArithmeticOverflow is returned when it does not fit in 256 bits.
func ToAssetAmount(payment, rate *uint256.Int) (*uint256.Int, error) {
	amount, overflow := new(uint256.Int).MulOverflow(payment, rate)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return amount, nil
}
