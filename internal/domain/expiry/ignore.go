package expiry

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// LotKey identifies the remaining quantity of one coil item on one expiry date
type LotKey struct {
	CoilItemID uuid.UUID
	ExpiryDate string
}

// ApplyIgnoresToLots subtracts ignored quantities from lots.
// Each ignore is applied in date order and consumes lots dated on or after the
// ignore's date, earliest first; lots dated before it are never touched.
// The result has one lot per input lot, in ascending date order, clamped at zero.
func ApplyIgnoresToLots(lots []Lot, ignores []ExpiryIgnore) []Lot {
	result := make([]Lot, len(lots))
	copy(result, lots)
	sortLots(result)

	ordered := make([]ExpiryIgnore, 0, len(ignores))
	for _, ig := range ignores {
		if ig.Quantity > 0 && strings.TrimSpace(ig.ExpiryDate) != "" {
			ordered = append(ordered, ig)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExpiryDate < ordered[j].ExpiryDate
	})

	for _, ig := range ordered {
		remaining := ig.Quantity
		for i := range result {
			if remaining <= 0 {
				break
			}
			if result[i].ExpiryDate < ig.ExpiryDate || result[i].Quantity <= 0 {
				continue
			}
			take := min(result[i].Quantity, remaining)
			result[i].Quantity -= take
			remaining -= take
		}
	}
	return result
}

// ApplyIgnoresToRemaining applies ignore rows to a map of remaining quantities keyed by
// coil item and date, grouping both sides per coil item. Keys without ignores are copied
// unchanged. The input map is not modified.
func ApplyIgnoresToRemaining(remaining map[LotKey]int64, rows []ExpiryIgnore) map[LotKey]int64 {
	adjusted := make(map[LotKey]int64, len(remaining))
	lotsByItem := make(map[uuid.UUID][]Lot)
	for key, qty := range remaining {
		adjusted[key] = qty
		lotsByItem[key.CoilItemID] = append(lotsByItem[key.CoilItemID], Lot{ExpiryDate: key.ExpiryDate, Quantity: qty})
	}

	ignoresByItem := make(map[uuid.UUID][]ExpiryIgnore)
	for _, row := range rows {
		if _, ok := lotsByItem[row.CoilItemID]; ok {
			ignoresByItem[row.CoilItemID] = append(ignoresByItem[row.CoilItemID], row)
		}
	}

	for coilItemID, ignores := range ignoresByItem {
		for _, lot := range ApplyIgnoresToLots(lotsByItem[coilItemID], ignores) {
			adjusted[LotKey{CoilItemID: coilItemID, ExpiryDate: lot.ExpiryDate}] = lot.Quantity
		}
	}
	return adjusted
}
