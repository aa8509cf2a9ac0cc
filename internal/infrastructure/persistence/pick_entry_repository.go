package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPickEntryRepository implements expiry.PickEntryRepository using GORM
type GormPickEntryRepository struct {
	db *gorm.DB
}

// NewGormPickEntryRepository creates a new GormPickEntryRepository
func NewGormPickEntryRepository(db *gorm.DB) *GormPickEntryRepository {
	return &GormPickEntryRepository{db: db}
}

// withDetails preloads the run, the coil item chain and the expiry overrides
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Run").
		Preload("CoilItem.Sku").
		Preload("CoilItem.Coil.Machine.Location").
		Preload("ExpiryOverrides", func(db *gorm.DB) *gorm.DB {
			return db.Order("expiry_date ASC")
		})
}

func toPickEntries(rows []models.PickEntryModel) []expiry.PickEntry {
	entries := make([]expiry.PickEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].ToDomain())
	}
	return entries
}

// FindByRun finds all pick entries of a run
func (r *GormPickEntryRepository) FindByRun(ctx context.Context, runID uuid.UUID) ([]expiry.PickEntry, error) {
	var rows []models.PickEntryModel
	if err := withDetails(r.db.WithContext(ctx)).Where("run_id = ?", runID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPickEntries(rows), nil
}

// FindHistory finds the company's pick entries on runs scheduled before the given instant
func (r *GormPickEntryRepository) FindHistory(ctx context.Context, companyID uuid.UUID, coilItemIDs []uuid.UUID, before time.Time) ([]expiry.PickEntry, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PickEntryModel{}).
		Joins("JOIN runs ON runs.id = pick_entries.run_id").
		Where("runs.company_id = ? AND runs.scheduled_for IS NOT NULL AND runs.scheduled_for < ?", companyID, before.UTC())
	if len(coilItemIDs) > 0 {
		query = query.Where("pick_entries.coil_item_id IN ?", coilItemIDs)
	}

	var rows []models.PickEntryModel
	if err := withDetails(query).Order("runs.scheduled_for ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPickEntries(rows), nil
}

// FindByRunAndCoilItemForUpdate finds and row-locks the pick entry of a coil item on a run.
// Must be called inside a transaction for the lock to hold.
func (r *GormPickEntryRepository) FindByRunAndCoilItemForUpdate(ctx context.Context, runID, coilItemID uuid.UUID) (*expiry.PickEntry, error) {
	var model models.PickEntryModel
	err := withDetails(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("run_id = ? AND coil_item_id = ?", runID, coilItemID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdatePlannedCount sets both the override and the count of a pick entry
func (r *GormPickEntryRepository) UpdatePlannedCount(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.PickEntryModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"count":    quantity,
			"override": quantity,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ expiry.PickEntryRepository = (*GormPickEntryRepository)(nil)
