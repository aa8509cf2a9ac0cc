package expiry

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
)

// SkuSummary describes the SKU of an expiring coil item
type SkuSummary struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

// LocationSummary describes a machine location
type LocationSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// MachineSummary describes a machine
type MachineSummary struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	Description string           `json:"description"`
	Location    *LocationSummary `json:"location"`
}

// CoilSummary describes a coil
type CoilSummary struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// StockingRun is the earliest run restocking a coil item on a section's date
type StockingRun struct {
	ID           uuid.UUID `json:"id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ExpiringItem is one coil item with units expiring on a section's date.
// An item flagged IsIgnored carries the suppressed quantity; the same coil item may
// appear twice in a section, once for each category.
type ExpiringItem struct {
	CoilItemID      uuid.UUID      `json:"coil_item_id"`
	Sku             SkuSummary     `json:"sku"`
	Machine         MachineSummary `json:"machine"`
	Coil            CoilSummary    `json:"coil"`
	Quantity        int64          `json:"quantity"`
	PlannedQuantity int64          `json:"planned_quantity"`
	StockingRun     *StockingRun   `json:"stocking_run"`
	IsIgnored       bool           `json:"is_ignored"`
	IgnoredAt       *time.Time     `json:"ignored_at"`
}

// RunSummary is a run scheduled on a section's date with the sites it visits
type RunSummary struct {
	ID           uuid.UUID         `json:"id"`
	ScheduledFor time.Time         `json:"scheduled_for"`
	Locations    []LocationSummary `json:"locations"`
	Machines     []MachineSummary  `json:"machines"`
}

// ExpirySection groups the items expiring on one calendar date
type ExpirySection struct {
	ExpiryDate string         `json:"expiry_date"`
	DayOffset  int            `json:"day_offset"`
	Items      []ExpiringItem `json:"items"`
	Runs       []RunSummary   `json:"runs,omitempty"`
}

// ExpiringResult is the result of a reconciliation
type ExpiringResult struct {
	WarningCount int             `json:"warning_count"`
	Sections     []ExpirySection `json:"sections"`
}

// EmptyResult returns a result with no sections
func EmptyResult() *ExpiringResult {
	return &ExpiringResult{WarningCount: 0, Sections: []ExpirySection{}}
}

// CommitRequest identifies the coil item whose expiring units should be absorbed by a run
type CommitRequest struct {
	CompanyID  uuid.UUID
	RunID      uuid.UUID
	CoilItemID uuid.UUID
	UserID     *uuid.UUID
}

// CommitResult reports what a commit did
type CommitResult struct {
	AddedQuantity    int64  `json:"added_quantity"`
	ExpiringQuantity int64  `json:"expiring_quantity"`
	CoilCode         string `json:"coil_code"`
	RunDate          string `json:"run_date"`
}

func toSkuSummary(s *expiry.Sku) SkuSummary {
	if s == nil {
		return SkuSummary{}
	}
	return SkuSummary{ID: s.ID, Code: s.Code, Name: s.Name, Type: s.Type}
}

func toLocationSummary(l *expiry.Location) *LocationSummary {
	if l == nil {
		return nil
	}
	return &LocationSummary{ID: l.ID, Name: l.Name}
}

func toMachineSummary(m *expiry.Machine) MachineSummary {
	if m == nil {
		return MachineSummary{}
	}
	return MachineSummary{
		ID:          m.ID,
		Code:        m.Code,
		Description: m.Description,
		Location:    toLocationSummary(m.Location),
	}
}

func newExpiringItem(ci *expiry.CoilItem, quantity int64) ExpiringItem {
	item := ExpiringItem{CoilItemID: ci.ID, Quantity: quantity, Sku: toSkuSummary(ci.Sku)}
	if ci.Coil != nil {
		item.Coil = CoilSummary{ID: ci.Coil.ID, Code: ci.Coil.Code}
		item.Machine = toMachineSummary(ci.Coil.Machine)
	}
	return item
}
