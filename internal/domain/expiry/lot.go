package expiry

import (
	"sort"
	"strings"
)

// Lot is a quantity of units sharing one expiry date
type Lot struct {
	ExpiryDate string
	Quantity   int64
}

// LotInput is the load of one pick entry to be split into lots
type LotInput struct {
	BaseExpiryDate string
	PlannedCount   int64
	Overrides      []ExpiryOverride
}

// BuildExpiryLots splits a planned load into dated lots.
// Override rows are summed per date. Whatever remains of the planned count after the
// overrides goes to BaseExpiryDate, and is dropped when that date is blank.
// Overrides exceeding the planned count are kept as recorded.
// Lots are returned in ascending date order and never carry a zero quantity.
func BuildExpiryLots(in LotInput) []Lot {
	buckets := make(map[string]int64)
	var overridden int64
	for _, o := range in.Overrides {
		date := strings.TrimSpace(o.ExpiryDate)
		if date == "" || o.Quantity <= 0 {
			continue
		}
		buckets[date] += o.Quantity
		overridden += o.Quantity
	}

	planned := max(in.PlannedCount, 0)
	if base := strings.TrimSpace(in.BaseExpiryDate); base != "" {
		if rest := planned - overridden; rest > 0 {
			buckets[base] += rest
		}
	}

	lots := make([]Lot, 0, len(buckets))
	for date, qty := range buckets {
		if qty > 0 {
			lots = append(lots, Lot{ExpiryDate: date, Quantity: qty})
		}
	}
	sortLots(lots)
	return lots
}

// QuantityOn returns the quantity of lots dated label
func QuantityOn(lots []Lot, label string) int64 {
	var total int64
	for _, l := range lots {
		if l.ExpiryDate == label {
			total += l.Quantity
		}
	}
	return total
}

func sortLots(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].ExpiryDate < lots[j].ExpiryDate
	})
}
