package expiry

// ApplyRestockConsumption assumes every restocked unit displaced one previously loaded
// unit, earliest expiry first. restockedAfter units are taken from lots in ascending
// date order; fully consumed lots are dropped.
func ApplyRestockConsumption(lots []Lot, restockedAfter int64) []Lot {
	ordered := make([]Lot, len(lots))
	copy(ordered, lots)
	sortLots(ordered)

	remaining := max(restockedAfter, 0)
	result := make([]Lot, 0, len(ordered))
	for _, lot := range ordered {
		qty := lot.Quantity
		if remaining > 0 && qty > 0 {
			take := min(qty, remaining)
			qty -= take
			remaining -= take
		}
		if qty > 0 {
			result = append(result, Lot{ExpiryDate: lot.ExpiryDate, Quantity: qty})
		}
	}
	return result
}
