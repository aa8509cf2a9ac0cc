package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// BaseModel provides the identity and timestamps shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when none is set and stores timestamps in UTC
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if !m.CreatedAt.IsZero() {
		m.CreatedAt = m.CreatedAt.UTC()
	}
	return nil
}

// ToDomain converts BaseModel to the domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt}
}

// FromDomainBaseEntity populates BaseModel from the domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
}

// AllModels lists every table model in dependency order
func AllModels() []any {
	return []any{
		&CompanyModel{},
		&LocationModel{},
		&MachineModel{},
		&CoilModel{},
		&SkuModel{},
		&CoilItemModel{},
		&RunModel{},
		&PickEntryModel{},
		&PickEntryExpiryOverrideModel{},
		&ExpiryIgnoreModel{},
		&NoteModel{},
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
