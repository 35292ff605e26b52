package provisions

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string such as "12.5" into the smallest
// unit for an asset with the given number of decimals.
func ParseAmount(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %w", ErrMalformedLedger, s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", ErrMalformedLedger, s)
	}
	units := d.Shift(decimals)
	if !units.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s has more than %d decimals", ErrMalformedLedger, s, decimals)
	}
	v := units.BigInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: amount %s overflows", ErrMalformedLedger, s)
	}
	return v.Uint64(), nil
}

func FormatAmount(units uint64, decimals int32) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals)
	return d.StringFixed(decimals)
}

func NewCustomer(id, amount string, decimals int32) (*Customer, error) {
	balance, err := ParseAmount(amount, decimals)
	if err != nil {
		return nil, err
	}
	return &Customer{ID: id, Balance: balance}, nil
}
