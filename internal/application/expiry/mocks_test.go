package expiry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vendfleet/backend/internal/domain/expiry"
)

// MockCompanyRepository is a mock implementation of expiry.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*expiry.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expiry.Company), args.Error(1)
}

// MockRunRepository is a mock implementation of expiry.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*expiry.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expiry.Run), args.Error(1)
}

func (m *MockRunRepository) FindScheduledBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]expiry.Run, error) {
	args := m.Called(ctx, companyID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expiry.Run), args.Error(1)
}

// MockPickEntryRepository is a mock implementation of expiry.PickEntryRepository
type MockPickEntryRepository struct {
	mock.Mock
}

func (m *MockPickEntryRepository) FindByRun(ctx context.Context, runID uuid.UUID) ([]expiry.PickEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expiry.PickEntry), args.Error(1)
}

func (m *MockPickEntryRepository) FindHistory(ctx context.Context, companyID uuid.UUID, coilItemIDs []uuid.UUID, before time.Time) ([]expiry.PickEntry, error) {
	args := m.Called(ctx, companyID, coilItemIDs, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expiry.PickEntry), args.Error(1)
}

func (m *MockPickEntryRepository) FindByRunAndCoilItemForUpdate(ctx context.Context, runID, coilItemID uuid.UUID) (*expiry.PickEntry, error) {
	args := m.Called(ctx, runID, coilItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expiry.PickEntry), args.Error(1)
}

func (m *MockPickEntryRepository) UpdatePlannedCount(ctx context.Context, id uuid.UUID, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

// MockIgnoreRepository is a mock implementation of expiry.ExpiryIgnoreRepository
type MockIgnoreRepository struct {
	mock.Mock
}

func (m *MockIgnoreRepository) FindForDates(ctx context.Context, companyID uuid.UUID, coilItemIDs []uuid.UUID, fromLabel, toLabel string) ([]expiry.ExpiryIgnore, error) {
	args := m.Called(ctx, companyID, coilItemIDs, fromLabel, toLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expiry.ExpiryIgnore), args.Error(1)
}

func (m *MockIgnoreRepository) SumQuantityThrough(ctx context.Context, companyID, coilItemID uuid.UUID, throughLabel string) (int64, error) {
	args := m.Called(ctx, companyID, coilItemID, throughLabel)
	return args.Get(0).(int64), args.Error(1)
}

// MockNoteRepository is a mock implementation of expiry.NoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Create(ctx context.Context, note *expiry.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

// recordingMetrics captures recorded metrics
type recordingMetrics struct {
	mu       sync.Mutex
	warnings map[string]int
	added    []int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{warnings: make(map[string]int)}
}

func (r *recordingMetrics) RecordWarnings(_ context.Context, _ uuid.UUID, operation string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings[operation] += count
}

func (r *recordingMetrics) RecordCommit(_ context.Context, _ uuid.UUID, added int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, added)
}
