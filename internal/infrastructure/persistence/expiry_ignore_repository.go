package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpiryIgnoreRepository implements expiry.ExpiryIgnoreRepository using GORM
type GormExpiryIgnoreRepository struct {
	db *gorm.DB
}

// NewGormExpiryIgnoreRepository creates a new GormExpiryIgnoreRepository
func NewGormExpiryIgnoreRepository(db *gorm.DB) *GormExpiryIgnoreRepository {
	return &GormExpiryIgnoreRepository{db: db}
}

// FindForDates finds the company's ignores dated within [fromLabel, toLabel]
func (r *GormExpiryIgnoreRepository) FindForDates(ctx context.Context, companyID uuid.UUID, coilItemIDs []uuid.UUID, fromLabel, toLabel string) ([]expiry.ExpiryIgnore, error) {
	query := r.db.WithContext(ctx).Where("company_id = ? AND expiry_date <= ?", companyID, toLabel)
	if fromLabel != "" {
		query = query.Where("expiry_date >= ?", fromLabel)
	}
	if len(coilItemIDs) > 0 {
		query = query.Where("coil_item_id IN ?", coilItemIDs)
	}

	var rows []models.ExpiryIgnoreModel
	if err := query.Order("expiry_date ASC, ignored_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	ignores := make([]expiry.ExpiryIgnore, 0, len(rows))
	for i := range rows {
		ignores = append(ignores, rows[i].ToDomain())
	}
	return ignores, nil
}

// SumQuantityThrough totals the ignored quantity of a coil item up to and including throughLabel
func (r *GormExpiryIgnoreRepository) SumQuantityThrough(ctx context.Context, companyID, coilItemID uuid.UUID, throughLabel string) (int64, error) {
	row := map[string]any{}
	err := r.db.WithContext(ctx).
		Model(&models.ExpiryIgnoreModel{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("company_id = ? AND coil_item_id = ? AND expiry_date <= ?", companyID, coilItemID, throughLabel).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return NormalizeQuantity(row["total"]), nil
}

var _ expiry.ExpiryIgnoreRepository = (*GormExpiryIgnoreRepository)(nil)
