package expiry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CompanyRepository defines read access to companies
type CompanyRepository interface {
	// FindByID finds a company by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
}

// RunRepository defines read access to runs
type RunRepository interface {
	// FindByID finds a run by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// FindScheduledBetween finds the company's runs scheduled in [from, to), ordered by schedule
	FindScheduledBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]Run, error)
}

// PickEntryRepository defines persistence for pick entries.
// Returned entries carry their run schedule, coil item chain and expiry overrides.
type PickEntryRepository interface {
	// FindByRun finds all pick entries of a run
	FindByRun(ctx context.Context, runID uuid.UUID) ([]PickEntry, error)

	// FindHistory finds the company's pick entries on scheduled runs loaded before the given instant.
	// An empty coilItemIDs slice means every coil item of the company.
	FindHistory(ctx context.Context, companyID uuid.UUID, coilItemIDs []uuid.UUID, before time.Time) ([]PickEntry, error)

	// FindByRunAndCoilItemForUpdate finds the pick entry of a coil item on a run and
	// locks its row until the surrounding transaction ends
	FindByRunAndCoilItemForUpdate(ctx context.Context, runID, coilItemID uuid.UUID) (*PickEntry, error)

	// UpdatePlannedCount sets both the override and the count of a pick entry
	UpdatePlannedCount(ctx context.Context, id uuid.UUID, quantity int64) error
}

// ExpiryIgnoreRepository defines read access to expiry ignores
type ExpiryIgnoreRepository interface {
	// FindForDates finds the company's ignores dated within [fromLabel, toLabel].
	// A blank fromLabel leaves the range open at the start; empty coilItemIDs means all coil items.
	FindForDates(ctx context.Context, companyID uuid.UUID, coilItemIDs []uuid.UUID, fromLabel, toLabel string) ([]ExpiryIgnore, error)

	// SumQuantityThrough totals the ignored quantity of a coil item for dates up to and including throughLabel
	SumQuantityThrough(ctx context.Context, companyID, coilItemID uuid.UUID, throughLabel string) (int64, error)
}

// NoteRepository defines persistence for audit notes
type NoteRepository interface {
	// Create inserts a note
	Create(ctx context.Context, note *Note) error
}
