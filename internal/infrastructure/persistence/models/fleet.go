package models

import (
	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
)

// CompanyModel is the persistence model for companies
type CompanyModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null"`
	TimeZone string `gorm:"type:varchar(64);not null;default:''"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string { return "companies" }

// ToDomain converts the model to a domain Company
func (m *CompanyModel) ToDomain() *expiry.Company {
	return &expiry.Company{ID: m.ID, Name: m.Name, TimeZone: m.TimeZone}
}

// LocationModel is the persistence model for locations
type LocationModel struct {
	BaseModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string { return "locations" }

// ToDomain converts the model to a domain Location
func (m *LocationModel) ToDomain() *expiry.Location {
	if m == nil {
		return nil
	}
	return &expiry.Location{ID: m.ID, Name: m.Name}
}

// MachineModel is the persistence model for machines
type MachineModel struct {
	BaseModel
	CompanyID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	LocationID  *uuid.UUID     `gorm:"type:uuid;index"`
	Code        string         `gorm:"type:varchar(50);not null"`
	Description string         `gorm:"type:varchar(255);not null;default:''"`
	Location    *LocationModel `gorm:"foreignKey:LocationID"`
}

// TableName returns the table name for GORM
func (MachineModel) TableName() string { return "machines" }

// ToDomain converts the model to a domain Machine
func (m *MachineModel) ToDomain() *expiry.Machine {
	if m == nil {
		return nil
	}
	return &expiry.Machine{
		ID:          m.ID,
		Code:        m.Code,
		Description: m.Description,
		Location:    m.Location.ToDomain(),
	}
}

// CoilModel is the persistence model for machine coils
type CoilModel struct {
	BaseModel
	MachineID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Code      string        `gorm:"type:varchar(20);not null"`
	Machine   *MachineModel `gorm:"foreignKey:MachineID"`
}

// TableName returns the table name for GORM
func (CoilModel) TableName() string { return "coils" }

// ToDomain converts the model to a domain Coil
func (m *CoilModel) ToDomain() *expiry.Coil {
	if m == nil {
		return nil
	}
	return &expiry.Coil{ID: m.ID, Code: m.Code, Machine: m.Machine.ToDomain()}
}

// SkuModel is the persistence model for SKUs
type SkuModel struct {
	BaseModel
	CompanyID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Code               string    `gorm:"type:varchar(50);not null"`
	Name               string    `gorm:"type:varchar(200);not null"`
	Type               string    `gorm:"type:varchar(50);not null;default:''"`
	CountNeededPointer string    `gorm:"type:varchar(16);not null;default:'total'"`
	ExpiryDays         int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SkuModel) TableName() string { return "skus" }

// ToDomain converts the model to a domain Sku
func (m *SkuModel) ToDomain() *expiry.Sku {
	if m == nil {
		return nil
	}
	return &expiry.Sku{
		ID:                 m.ID,
		Code:               m.Code,
		Name:               m.Name,
		Type:               m.Type,
		CountNeededPointer: m.CountNeededPointer,
		ExpiryDays:         m.ExpiryDays,
	}
}

// CoilItemModel binds a SKU to a coil
type CoilItemModel struct {
	BaseModel
	CoilID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SkuID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Coil   *CoilModel `gorm:"foreignKey:CoilID"`
	Sku    *SkuModel  `gorm:"foreignKey:SkuID"`
}

// TableName returns the table name for GORM
func (CoilItemModel) TableName() string { return "coil_items" }

// ToDomain converts the model to a domain CoilItem
func (m *CoilItemModel) ToDomain() *expiry.CoilItem {
	if m == nil {
		return nil
	}
	return &expiry.CoilItem{ID: m.ID, Sku: m.Sku.ToDomain(), Coil: m.Coil.ToDomain()}
}
