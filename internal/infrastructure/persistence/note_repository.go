package persistence

import (
	"context"

	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNoteRepository implements expiry.NoteRepository using GORM
type GormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GormNoteRepository
func NewGormNoteRepository(db *gorm.DB) *GormNoteRepository {
	return &GormNoteRepository{db: db}
}

// Create inserts a note
func (r *GormNoteRepository) Create(ctx context.Context, note *expiry.Note) error {
	model := &models.NoteModel{}
	model.FromDomain(note)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	note.ID = model.ID
	return nil
}

var _ expiry.NoteRepository = (*GormNoteRepository)(nil)
