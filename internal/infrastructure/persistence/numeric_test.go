package persistence

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuantity(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	dec := decimal.RequireFromString("7.9")

	tests := []struct {
		name string
		raw  any
		want int64
	}{
		{"int", 12, 12},
		{"int32", int32(-4), -4},
		{"int64", int64(20), 20},
		{"uint64", uint64(9), 9},
		{"float floors", 3.99, 3},
		{"negative float floors down", -1.5, -2},
		{"NaN", math.NaN(), 0},
		{"infinity", math.Inf(1), 0},
		{"numeric string", "42", 42},
		{"fractional string", " 17.25 ", 17},
		{"postgres numeric bytes", []byte("5.0000"), 5},
		{"garbage string", "twelve", 0},
		{"empty string", "", 0},
		{"decimal", dec, 7},
		{"decimal pointer", &dec, 7},
		{"null decimal", decimal.NullDecimal{}, 0},
		{"big int", big.NewInt(64), 64},
		{"big int out of range", huge, 0},
		{"nil", nil, 0},
		{"unsupported type", struct{}{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuantity(tt.raw))
		})
	}
}
