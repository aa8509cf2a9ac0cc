package expiry

import "strings"

// CountNeededPointer names the pick entry field that holds the planned load for a SKU
type CountNeededPointer string

// Count-needed pointers
const (
	PointerCurrent  CountNeededPointer = "current"
	PointerPar      CountNeededPointer = "par"
	PointerNeed     CountNeededPointer = "need"
	PointerForecast CountNeededPointer = "forecast"
	PointerTotal    CountNeededPointer = "total"
)

// ParseCountNeededPointer parses a stored pointer name.
// Unknown or blank names fall back to PointerTotal.
func ParseCountNeededPointer(s string) CountNeededPointer {
	switch p := CountNeededPointer(strings.ToLower(strings.TrimSpace(s))); p {
	case PointerCurrent, PointerPar, PointerNeed, PointerForecast, PointerTotal:
		return p
	default:
		return PointerTotal
	}
}

func (p CountNeededPointer) field(e *PickEntry) *int64 {
	switch p {
	case PointerCurrent:
		return e.Current
	case PointerPar:
		return e.Par
	case PointerNeed:
		return e.Need
	case PointerForecast:
		return e.Forecast
	default:
		return e.Total
	}
}

// ResolvePickEntryCount returns the planned load of a pick entry.
// A manual override wins; next the field named by the SKU's count-needed pointer;
// then the stored count. The result may be negative and callers clamp it.
func ResolvePickEntryCount(e *PickEntry) int64 {
	if e == nil {
		return 0
	}
	if e.Override != nil {
		return *e.Override
	}
	pointer := PointerTotal
	if e.CoilItem != nil && e.CoilItem.Sku != nil {
		pointer = ParseCountNeededPointer(e.CoilItem.Sku.CountNeededPointer)
	}
	if v := pointer.field(e); v != nil {
		return *v
	}
	return e.Count
}

// PlannedQuantity is ResolvePickEntryCount clamped at zero
func PlannedQuantity(e *PickEntry) int64 {
	return max(ResolvePickEntryCount(e), 0)
}
