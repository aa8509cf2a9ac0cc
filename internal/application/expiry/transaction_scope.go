package expiry

import (
	"context"

	"github.com/vendfleet/backend/internal/domain/expiry"
)

// TransactionScope provides transactional access to the expiry repositories.
// All repository operations made through fn share one database transaction that is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current transaction.
type TransactionalRepositories interface {
	// CompanyRepo returns the company repository scoped to the current transaction
	CompanyRepo() expiry.CompanyRepository
	// RunRepo returns the run repository scoped to the current transaction
	RunRepo() expiry.RunRepository
	// PickEntryRepo returns the pick entry repository scoped to the current transaction
	PickEntryRepo() expiry.PickEntryRepository
	// IgnoreRepo returns the expiry ignore repository scoped to the current transaction
	IgnoreRepo() expiry.ExpiryIgnoreRepository
	// NoteRepo returns the note repository scoped to the current transaction
	NoteRepo() expiry.NoteRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// It is useful for tests or stores without transaction support.
type NoOpTransactionScope struct {
	companyRepo   expiry.CompanyRepository
	runRepo       expiry.RunRepository
	pickEntryRepo expiry.PickEntryRepository
	ignoreRepo    expiry.ExpiryIgnoreRepository
	noteRepo      expiry.NoteRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	companyRepo expiry.CompanyRepository,
	runRepo expiry.RunRepository,
	pickEntryRepo expiry.PickEntryRepository,
	ignoreRepo expiry.ExpiryIgnoreRepository,
	noteRepo expiry.NoteRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		companyRepo:   companyRepo,
		runRepo:       runRepo,
		pickEntryRepo: pickEntryRepo,
		ignoreRepo:    ignoreRepo,
		noteRepo:      noteRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// CompanyRepo returns the company repository.
func (s *NoOpTransactionScope) CompanyRepo() expiry.CompanyRepository { return s.companyRepo }

// RunRepo returns the run repository.
func (s *NoOpTransactionScope) RunRepo() expiry.RunRepository { return s.runRepo }

// PickEntryRepo returns the pick entry repository.
func (s *NoOpTransactionScope) PickEntryRepo() expiry.PickEntryRepository { return s.pickEntryRepo }

// IgnoreRepo returns the expiry ignore repository.
func (s *NoOpTransactionScope) IgnoreRepo() expiry.ExpiryIgnoreRepository { return s.ignoreRepo }

// NoteRepo returns the note repository.
func (s *NoOpTransactionScope) NoteRepo() expiry.NoteRepository { return s.noteRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
