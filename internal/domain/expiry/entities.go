// Package expiry models the expiry lots loaded into vending machine coils and the
// reconciliation of those lots against later restocks.
package expiry

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
)

// Company is the tenant owning runs, machines and SKUs
type Company struct {
	ID       uuid.UUID
	Name     string
	TimeZone string // IANA zone name, blank means the configured default
}

// Location is a site hosting one or more machines
type Location struct {
	ID   uuid.UUID
	Name string
}

// Machine is a vending machine
type Machine struct {
	ID          uuid.UUID
	Code        string
	Description string
	Location    *Location
}

// Coil is one dispensing slot of a machine
type Coil struct {
	ID      uuid.UUID
	Code    string
	Machine *Machine
}

// Sku is a stocked product
type Sku struct {
	ID                 uuid.UUID
	Code               string
	Name               string
	Type               string
	CountNeededPointer string
	ExpiryDays         int // shelf life in days, 0 when the product does not expire
}

// CoilItem binds a SKU to a coil
type CoilItem struct {
	ID   uuid.UUID
	Sku  *Sku
	Coil *Coil
}

// IsComplete reports whether the coil item carries the SKU and coil details needed for reporting
func (c *CoilItem) IsComplete() bool {
	return c != nil && c.Sku != nil && c.Coil != nil
}

// Run is a scheduled restocking visit
type Run struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	ScheduledFor *time.Time
}

// IsScheduled reports whether the run has a scheduled load time
func (r *Run) IsScheduled() bool {
	return r != nil && r.ScheduledFor != nil && !r.ScheduledFor.IsZero()
}

// ExpiryOverride pins part of a pick entry's load to an explicit expiry date
type ExpiryOverride struct {
	ExpiryDate string
	Quantity   int64
}

// PickEntry is the planned load of one coil item on one run
type PickEntry struct {
	ID              uuid.UUID
	RunID           uuid.UUID
	RunScheduledFor time.Time // load time of the owning run, zero when unscheduled
	CoilItemID      uuid.UUID
	CoilItem        *CoilItem

	Count    int64
	Override *int64
	Current  *int64
	Par      *int64
	Need     *int64
	Forecast *int64
	Total    *int64

	ExpiryDate      string
	ExpiryOverrides []ExpiryOverride
}

// BaseExpiryDate returns the expiry label for units not covered by an override.
// An explicit date wins; otherwise it is derived from the SKU shelf life counted from the load day.
// Returns "" when neither is available.
func (e *PickEntry) BaseExpiryDate(loc *time.Location) string {
	if label := strings.TrimSpace(e.ExpiryDate); label != "" {
		return label
	}
	if e.RunScheduledFor.IsZero() || e.CoilItem == nil || e.CoilItem.Sku == nil {
		return ""
	}
	days := e.CoilItem.Sku.ExpiryDays
	if days <= 0 {
		return ""
	}
	return valueobject.DayRangeIn(loc, e.RunScheduledFor, days-1).Label
}

// ExpiryIgnore records that a user chose to disregard units expiring on a date
type ExpiryIgnore struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	CoilItemID uuid.UUID
	ExpiryDate string
	Quantity   int64
	IgnoredAt  time.Time
}

// Note is an audit note attached to a run
type Note struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	RunID     uuid.UUID
	AuthorID  *uuid.UUID
	Body      string
}

// NewNote creates an audit note for a run
func NewNote(companyID, runID uuid.UUID, authorID *uuid.UUID, body string, now time.Time) (*Note, error) {
	if companyID == uuid.Nil || runID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Note requires a company and a run")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Note body cannot be empty")
	}
	return &Note{
		BaseEntity: shared.NewBaseEntity(now),
		CompanyID:  companyID,
		RunID:      runID,
		AuthorID:   authorID,
		Body:       body,
	}, nil
}
