package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// RunModel is the persistence model for restocking runs
type RunModel struct {
	BaseModel
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_runs_company_scheduled,priority:1"`
	ScheduledFor *time.Time `gorm:"index:idx_runs_company_scheduled,priority:2"`
}

// TableName returns the table name for GORM
func (RunModel) TableName() string { return "runs" }

// BeforeSave stores the schedule in UTC so range filters compare consistently
func (m *RunModel) BeforeSave(_ *gorm.DB) error {
	m.ScheduledFor = utcPtr(m.ScheduledFor)
	return nil
}

// ToDomain converts the model to a domain Run
func (m *RunModel) ToDomain() *expiry.Run {
	return &expiry.Run{ID: m.ID, CompanyID: m.CompanyID, ScheduledFor: utcPtr(m.ScheduledFor)}
}

// PickEntryModel is the planned load of a coil item on a run
type PickEntryModel struct {
	BaseModel
	RunID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pick_entries_run_coil_item,priority:1"`
	CoilItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pick_entries_run_coil_item,priority:2;index"`
	Count      int64     `gorm:"not null;default:0"`
	Override   *int64
	Current    *int64
	Par        *int64
	Need       *int64
	Forecast   *int64
	Total      *int64
	ExpiryDate string `gorm:"type:varchar(10);not null;default:''"`

	Run             *RunModel                      `gorm:"foreignKey:RunID"`
	CoilItem        *CoilItemModel                 `gorm:"foreignKey:CoilItemID"`
	ExpiryOverrides []PickEntryExpiryOverrideModel `gorm:"foreignKey:PickEntryID"`
}

// TableName returns the table name for GORM
func (PickEntryModel) TableName() string { return "pick_entries" }

// BeforeSave keeps only the YYYY-MM-DD label of the expiry date
func (m *PickEntryModel) BeforeSave(_ *gorm.DB) error {
	m.ExpiryDate = valueobject.NormalizeDayLabel(m.ExpiryDate)
	return nil
}

// ToDomain converts the model and its loaded associations to a domain PickEntry
func (m *PickEntryModel) ToDomain() *expiry.PickEntry {
	entry := &expiry.PickEntry{
		ID:              m.ID,
		RunID:           m.RunID,
		CoilItemID:      m.CoilItemID,
		CoilItem:        m.CoilItem.ToDomain(),
		Count:           m.Count,
		Override:        m.Override,
		Current:         m.Current,
		Par:             m.Par,
		Need:            m.Need,
		Forecast:        m.Forecast,
		Total:           m.Total,
		ExpiryDate:      valueobject.NormalizeDayLabel(m.ExpiryDate),
		ExpiryOverrides: make([]expiry.ExpiryOverride, 0, len(m.ExpiryOverrides)),
	}
	if m.Run != nil && m.Run.ScheduledFor != nil {
		entry.RunScheduledFor = m.Run.ScheduledFor.UTC()
	}
	for _, o := range m.ExpiryOverrides {
		entry.ExpiryOverrides = append(entry.ExpiryOverrides, expiry.ExpiryOverride{
			ExpiryDate: valueobject.NormalizeDayLabel(o.ExpiryDate),
			Quantity:   o.Quantity,
		})
	}
	return entry
}

// PickEntryExpiryOverrideModel pins part of a pick entry to an explicit expiry date
type PickEntryExpiryOverrideModel struct {
	BaseModel
	PickEntryID uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiryDate  string    `gorm:"type:varchar(10);not null;default:''"`
	Quantity    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PickEntryExpiryOverrideModel) TableName() string { return "pick_entry_expiry_overrides" }

// BeforeSave keeps only the YYYY-MM-DD label of the expiry date
func (m *PickEntryExpiryOverrideModel) BeforeSave(_ *gorm.DB) error {
	m.ExpiryDate = valueobject.NormalizeDayLabel(m.ExpiryDate)
	return nil
}
