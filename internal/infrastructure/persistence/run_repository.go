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
)

// GormRunRepository implements expiry.RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// FindByID finds a run by its ID
func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*expiry.Run, error) {
	var model models.RunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindScheduledBetween finds the company's runs scheduled in [from, to)
func (r *GormRunRepository) FindScheduledBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]expiry.Run, error) {
	var rows []models.RunModel
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND scheduled_for >= ? AND scheduled_for < ?", companyID, from.UTC(), to.UTC()).
		Order("scheduled_for ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	runs := make([]expiry.Run, 0, len(rows))
	for i := range rows {
		runs = append(runs, *rows[i].ToDomain())
	}
	return runs, nil
}

var _ expiry.RunRepository = (*GormRunRepository)(nil)
