package persistence

import (
	"context"

	appexpiry "github.com/vendfleet/backend/internal/application/expiry"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"gorm.io/gorm"
)

// GormTransactionScope implements appexpiry.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, rolling back when fn returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appexpiry.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories binds the expiry repositories to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) CompanyRepo() expiry.CompanyRepository {
	return NewGormCompanyRepository(r.tx)
}

func (r *gormTransactionalRepositories) RunRepo() expiry.RunRepository {
	return NewGormRunRepository(r.tx)
}

func (r *gormTransactionalRepositories) PickEntryRepo() expiry.PickEntryRepository {
	return NewGormPickEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) IgnoreRepo() expiry.ExpiryIgnoreRepository {
	return NewGormExpiryIgnoreRepository(r.tx)
}

func (r *gormTransactionalRepositories) NoteRepo() expiry.NoteRepository {
	return NewGormNoteRepository(r.tx)
}

var (
	_ appexpiry.TransactionScope          = (*GormTransactionScope)(nil)
	_ appexpiry.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
