package persistence

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeQuantity converts a quantity read from the store into a whole unit count.
// Fractional values are floored; unparseable or out-of-range input yields 0.
func NormalizeQuantity(raw any) int64 {
	d, ok := toDecimal(raw)
	if !ok {
		return 0
	}
	d = d.Floor()
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0
	}
	return d.IntPart()
}

func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint32:
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), true
	case float32:
		return finiteFloat(float64(v))
	case float64:
		return finiteFloat(v)
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case *big.Int:
		if v == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromBigInt(v, 0), true
	case []byte:
		return parseDecimal(string(v))
	case string:
		return parseDecimal(v)
	default:
		return decimal.Zero, false
	}
}

func finiteFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
