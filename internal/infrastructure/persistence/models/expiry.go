package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// ExpiryIgnoreModel records units a user chose to disregard
type ExpiryIgnoreModel struct {
	BaseModel
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_expiry_ignores_company_date,priority:1"`
	CoilItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiryDate string    `gorm:"type:varchar(10);not null;index:idx_expiry_ignores_company_date,priority:2"`
	Quantity   int64     `gorm:"not null;default:0"`
	IgnoredAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExpiryIgnoreModel) TableName() string { return "expiry_ignores" }

// BeforeSave stores IgnoredAt in UTC and the expiry date as a bare label
func (m *ExpiryIgnoreModel) BeforeSave(_ *gorm.DB) error {
	m.IgnoredAt = m.IgnoredAt.UTC()
	m.ExpiryDate = valueobject.NormalizeDayLabel(m.ExpiryDate)
	return nil
}

// ToDomain converts the model to a domain ExpiryIgnore
func (m *ExpiryIgnoreModel) ToDomain() expiry.ExpiryIgnore {
	return expiry.ExpiryIgnore{
		ID:         m.ID,
		CompanyID:  m.CompanyID,
		CoilItemID: m.CoilItemID,
		ExpiryDate: valueobject.NormalizeDayLabel(m.ExpiryDate),
		Quantity:   m.Quantity,
		IgnoredAt:  m.IgnoredAt.UTC(),
	}
}

// NoteModel is the persistence model for run notes
type NoteModel struct {
	BaseModel
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	RunID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorID  *uuid.UUID `gorm:"type:uuid"`
	Body      string     `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (NoteModel) TableName() string { return "notes" }

// FromDomain populates the model from a domain Note
func (m *NoteModel) FromDomain(n *expiry.Note) {
	m.FromDomainBaseEntity(n.BaseEntity)
	m.CompanyID = n.CompanyID
	m.RunID = n.RunID
	m.AuthorID = n.AuthorID
	m.Body = n.Body
}

// ToDomain converts the model to a domain Note
func (m *NoteModel) ToDomain() *expiry.Note {
	return &expiry.Note{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		RunID:      m.RunID,
		AuthorID:   m.AuthorID,
		Body:       m.Body,
	}
}
