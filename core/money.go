package core

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// amountDecimals is the scale of the smallest currency unit: amounts are
// uint64 nanocoins (0.000000001 precision). All monetary state is integer;
// decimal arithmetic is used only at the parse/format boundary.
const amountDecimals = 9

// ParseAmount converts a decimal coin string such as "0.25" into nanocoins.
// Rejects negative values, excess precision, and values that do not fit in
// a uint64.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	scaled := d.Shift(amountDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q exceeds %d decimal places", s, amountDecimals)
	}

	units := scaled.BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows the smallest currency unit", s)
	}
	return units.Uint64(), nil
}

// FormatAmount renders nanocoins as a decimal coin string.
func FormatAmount(units uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -amountDecimals).String()
}

// addChecked returns a + b and whether the sum fits in a uint64.
func addChecked(a, b uint64) (uint64, bool) {
	if b > math.MaxUint64-a {
		return 0, false
	}
	return a + b, true
}
