package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared"
)

type reconciliationHarness struct {
	fleet       *fleet
	companyRepo *MockCompanyRepository
	runRepo     *MockRunRepository
	entryRepo   *MockPickEntryRepository
	ignoreRepo  *MockIgnoreRepository
	metrics     *recordingMetrics
	service     *ReconciliationService
}

func newReconciliationHarness() *reconciliationHarness {
	h := &reconciliationHarness{
		fleet:       newFleet(),
		companyRepo: new(MockCompanyRepository),
		runRepo:     new(MockRunRepository),
		entryRepo:   new(MockPickEntryRepository),
		ignoreRepo:  new(MockIgnoreRepository),
		metrics:     newRecordingMetrics(),
	}
	h.service = NewReconciliationService(h.companyRepo, h.runRepo, h.entryRepo, h.ignoreRepo, DefaultSettings())
	h.service.SetClock(fixedClock)
	h.service.SetMetrics(h.metrics)
	h.companyRepo.On("FindByID", mock.Anything, h.fleet.companyID).Return(h.fleet.company, nil).Maybe()
	return h
}

func instant(want time.Time) interface{} {
	return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
}

// expectDay wires the lookups of a day reconciliation for target
func (h *reconciliationHarness) expectDay(target *expiry.Run, runEntries, history []expiry.PickEntry, ignores []expiry.ExpiryIgnore, dayEnd time.Time, label string) {
	h.runRepo.On("FindByID", mock.Anything, target.ID).Return(target, nil).Once()
	h.entryRepo.On("FindByRun", mock.Anything, target.ID).Return(runEntries, nil).Once()
	h.entryRepo.On("FindHistory", mock.Anything, h.fleet.companyID, mock.Anything, instant(dayEnd)).Return(history, nil).Once()
	h.ignoreRepo.On("FindForDates", mock.Anything, h.fleet.companyID, mock.Anything, label, label).Return(ignores, nil).Maybe()
}

func TestComputeExpiringForDay_ScenarioA(t *testing.T) {
	h := newReconciliationHarness()
	item := h.fleet.coilItem("Sandwich", "M-1", "A1", 3)
	loadRun := h.fleet.run(at(10, 10))
	targetRun := h.fleet.run(at(12, 9))
	targetEntry := pickEntry(targetRun, item, 0)
	history := []expiry.PickEntry{pickEntry(loadRun, item, 20), targetEntry}

	h.expectDay(targetRun, []expiry.PickEntry{targetEntry}, history, nil, at(13, 0), "2024-01-12")

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.WarningCount)
	require.Len(t, result.Sections, 1)
	section := result.Sections[0]
	assert.Equal(t, "2024-01-12", section.ExpiryDate)
	assert.Equal(t, 0, section.DayOffset)
	require.Len(t, section.Items, 1)

	got := section.Items[0]
	assert.Equal(t, item.ID, got.CoilItemID)
	assert.Equal(t, int64(20), got.Quantity)
	assert.False(t, got.IsIgnored)
	assert.Nil(t, got.IgnoredAt)
	assert.Equal(t, "Sandwich", got.Sku.Name)
	assert.Equal(t, "M-1", got.Machine.Code)
	require.NotNil(t, got.Machine.Location)
	assert.Equal(t, "Depot North", got.Machine.Location.Name)
	assert.Equal(t, "A1", got.Coil.Code)
	require.NotNil(t, got.StockingRun)
	assert.Equal(t, targetRun.ID, got.StockingRun.ID)
	assert.Equal(t, 1, h.metrics.warnings[OperationDay])
}

func TestComputeExpiringForDay_ScenarioB_RestockRemovesWarning(t *testing.T) {
	h := newReconciliationHarness()
	item := h.fleet.coilItem("Sandwich", "M-1", "A1", 3)
	targetRun := h.fleet.run(at(12, 9))
	targetEntry := pickEntry(targetRun, item, 0)
	history := []expiry.PickEntry{
		pickEntry(h.fleet.run(at(10, 10)), item, 20),
		pickEntry(h.fleet.run(at(11, 10)), item, 20),
		targetEntry,
	}

	h.expectDay(targetRun, []expiry.PickEntry{targetEntry}, history, nil, at(13, 0), "2024-01-12")

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyResult(), result)
	h.ignoreRepo.AssertNotCalled(t, "FindForDates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestComputeExpiringForDay_ScenarioD_PartialIgnore(t *testing.T) {
	h := newReconciliationHarness()
	item := h.fleet.coilItem("Sandwich", "M-1", "A1", 3)
	targetRun := h.fleet.run(at(12, 9))
	targetEntry := pickEntry(targetRun, item, 0)
	history := []expiry.PickEntry{pickEntry(h.fleet.run(at(10, 10)), item, 20), targetEntry}
	ignoredAt := time.Date(2024, 1, 9, 15, 0, 0, 0, time.UTC)
	ignores := []expiry.ExpiryIgnore{
		{ID: uuid.New(), CompanyID: h.fleet.companyID, CoilItemID: item.ID, ExpiryDate: "2024-01-12", Quantity: 5, IgnoredAt: ignoredAt},
	}

	h.expectDay(targetRun, []expiry.PickEntry{targetEntry}, history, ignores, at(13, 0), "2024-01-12")

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.WarningCount)
	items := result.Sections[0].Items
	require.Len(t, items, 2)

	assert.False(t, items[0].IsIgnored)
	assert.Equal(t, int64(15), items[0].Quantity)

	assert.True(t, items[1].IsIgnored)
	assert.Equal(t, int64(5), items[1].Quantity)
	require.NotNil(t, items[1].IgnoredAt)
	assert.True(t, items[1].IgnoredAt.Equal(ignoredAt))
}

func TestComputeExpiringForDay_FullyIgnored(t *testing.T) {
	h := newReconciliationHarness()
	item := h.fleet.coilItem("Sandwich", "M-1", "A1", 3)
	targetRun := h.fleet.run(at(12, 9))
	targetEntry := pickEntry(targetRun, item, 0)
	history := []expiry.PickEntry{pickEntry(h.fleet.run(at(10, 10)), item, 20), targetEntry}
	ignores := []expiry.ExpiryIgnore{{CoilItemID: item.ID, ExpiryDate: "2024-01-12", Quantity: 30, IgnoredAt: fixedNow}}

	h.expectDay(targetRun, []expiry.PickEntry{targetEntry}, history, ignores, at(13, 0), "2024-01-12")

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, result.WarningCount)
	require.Len(t, result.Sections, 1)
	require.Len(t, result.Sections[0].Items, 1)
	assert.True(t, result.Sections[0].Items[0].IsIgnored)
	assert.Equal(t, int64(20), result.Sections[0].Items[0].Quantity)
}

func TestComputeExpiringForDay_SortsItems(t *testing.T) {
	h := newReconciliationHarness()
	yogurt := h.fleet.coilItem("Yogurt", "M-2", "A1", 3)
	appleLate := h.fleet.coilItem("Apple", "M-9", "B1", 3)
	appleEarly := h.fleet.coilItem("Apple", "M-1", "C3", 3)
	loadRun := h.fleet.run(at(10, 10))
	targetRun := h.fleet.run(at(12, 9))

	var runEntries, history []expiry.PickEntry
	for _, item := range []*expiry.CoilItem{yogurt, appleLate, appleEarly} {
		target := pickEntry(targetRun, item, 0)
		runEntries = append(runEntries, target)
		history = append(history, pickEntry(loadRun, item, 4), target)
	}

	h.expectDay(targetRun, runEntries, history, nil, at(13, 0), "2024-01-12")

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)
	require.Len(t, result.Sections, 1)

	items := result.Sections[0].Items
	require.Len(t, items, 3)
	assert.Equal(t, appleEarly.ID, items[0].CoilItemID)
	assert.Equal(t, appleLate.ID, items[1].CoilItemID)
	assert.Equal(t, yogurt.ID, items[2].CoilItemID)
	assert.Equal(t, 3, result.WarningCount)
}

func TestComputeExpiringForDay_NotFound(t *testing.T) {
	t.Run("missing run", func(t *testing.T) {
		h := newReconciliationHarness()
		runID := uuid.New()
		h.runRepo.On("FindByID", mock.Anything, runID).Return(nil, shared.ErrNotFound).Once()

		result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, runID)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("run of another company", func(t *testing.T) {
		h := newReconciliationHarness()
		run := newFleet().run(at(12, 9))
		h.runRepo.On("FindByID", mock.Anything, run.ID).Return(run, nil).Once()

		result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, run.ID)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		h.entryRepo.AssertNotCalled(t, "FindByRun", mock.Anything, mock.Anything)
	})
}

func TestComputeExpiringForDay_EmptyResults(t *testing.T) {
	t.Run("unscheduled run", func(t *testing.T) {
		h := newReconciliationHarness()
		run := &expiry.Run{ID: uuid.New(), CompanyID: h.fleet.companyID}
		h.runRepo.On("FindByID", mock.Anything, run.ID).Return(run, nil).Once()

		result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, run.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, result.WarningCount)
		assert.NotNil(t, result.Sections)
		assert.Empty(t, result.Sections)
	})

	t.Run("run before today is not reported", func(t *testing.T) {
		h := newReconciliationHarness()
		run := h.fleet.run(at(9, 23))
		h.runRepo.On("FindByID", mock.Anything, run.ID).Return(run, nil).Once()

		result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, run.ID)
		require.NoError(t, err)
		assert.Equal(t, EmptyResult(), result)
		h.entryRepo.AssertNotCalled(t, "FindByRun", mock.Anything, mock.Anything)
	})

	t.Run("run earlier today is still reported", func(t *testing.T) {
		h := newReconciliationHarness()
		run := h.fleet.run(at(10, 1))
		h.runRepo.On("FindByID", mock.Anything, run.ID).Return(run, nil).Once()
		h.entryRepo.On("FindByRun", mock.Anything, run.ID).Return([]expiry.PickEntry{}, nil).Once()

		result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, run.ID)
		require.NoError(t, err)
		assert.Equal(t, EmptyResult(), result)
		h.entryRepo.AssertExpectations(t)
	})
}

func TestComputeExpiringForDay_UsesCompanyTimeZone(t *testing.T) {
	h := newReconciliationHarness()
	h.fleet.company.TimeZone = "UTC"
	item := h.fleet.coilItem("Sandwich", "M-1", "A1", 1)
	// 21:00 Chicago on Jan 11 is already Jan 12 in UTC
	targetRun := h.fleet.run(at(11, 21))
	targetEntry := pickEntry(targetRun, item, 0)
	loadEntry := pickEntry(h.fleet.run(time.Date(2024, 1, 12, 1, 0, 0, 0, time.UTC)), item, 9)

	h.expectDay(targetRun, []expiry.PickEntry{targetEntry}, []expiry.PickEntry{targetEntry, loadEntry},
		nil, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), "2024-01-12")

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)
	require.Len(t, result.Sections, 1)
	assert.Equal(t, "2024-01-12", result.Sections[0].ExpiryDate)
	assert.Equal(t, int64(9), result.Sections[0].Items[0].Quantity)
}

func TestComputeExpiringForDay_RepositoryError(t *testing.T) {
	h := newReconciliationHarness()
	item := h.fleet.coilItem("Sandwich", "M-1", "A1", 3)
	targetRun := h.fleet.run(at(12, 9))
	h.runRepo.On("FindByID", mock.Anything, targetRun.ID).Return(targetRun, nil).Once()
	h.entryRepo.On("FindByRun", mock.Anything, targetRun.ID).Return([]expiry.PickEntry{pickEntry(targetRun, item, 0)}, nil).Once()
	h.entryRepo.On("FindHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	result, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	assert.Nil(t, result)
	assert.EqualError(t, err, "connection reset")
}

// windowFixture: coil item A loads 20 on Jan 10 (expires Jan 12) and 8 on Jan 11
// (expires Jan 13); coil item B loads 6 on Jan 9 (expires Jan 10).
type windowFixture struct {
	h          *reconciliationHarness
	itemA      *expiry.CoilItem
	itemB      *expiry.CoilItem
	loadRunA   *expiry.Run
	restockRun *expiry.Run
	history    []expiry.PickEntry
}

func newWindowFixture() *windowFixture {
	h := newReconciliationHarness()
	f := &windowFixture{
		h:          h,
		itemA:      h.fleet.coilItem("Sandwich", "M-1", "A1", 3),
		itemB:      h.fleet.coilItem("Milk", "M-2", "B4", 2),
		loadRunA:   h.fleet.run(at(10, 10)),
		restockRun: h.fleet.run(at(11, 9)),
	}
	f.history = []expiry.PickEntry{
		pickEntry(h.fleet.run(at(9, 10)), f.itemB, 6),
		pickEntry(f.loadRunA, f.itemA, 20),
		pickEntry(f.restockRun, f.itemA, 8),
	}
	return f
}

func TestComputeExpiringForWindow(t *testing.T) {
	f := newWindowFixture()
	h := f.h
	ignoredAt := at(9, 12)
	ignores := []expiry.ExpiryIgnore{
		{CoilItemID: f.itemA.ID, ExpiryDate: "2024-01-13", Quantity: 3, IgnoredAt: ignoredAt},
	}

	h.entryRepo.On("FindHistory", mock.Anything, h.fleet.companyID, mock.Anything, instant(at(14, 0))).Return(f.history, nil).Once()
	h.ignoreRepo.On("FindForDates", mock.Anything, h.fleet.companyID, mock.Anything, "2024-01-10", "2024-01-13").Return(ignores, nil).Once()
	h.runRepo.On("FindScheduledBetween", mock.Anything, h.fleet.companyID, instant(at(10, 0)), instant(at(14, 0))).
		Return([]expiry.Run{*f.loadRunA, *f.restockRun}, nil).Once()

	days := 3
	result, err := h.service.ComputeExpiringForWindow(context.Background(), h.fleet.companyID, &days)
	require.NoError(t, err)

	require.Len(t, result.Sections, 3)
	assert.Equal(t, 3, result.WarningCount)
	assert.Equal(t, 3, h.metrics.warnings[OperationWindow])

	jan10 := result.Sections[0]
	assert.Equal(t, "2024-01-10", jan10.ExpiryDate)
	assert.Equal(t, 0, jan10.DayOffset)
	require.Len(t, jan10.Items, 1)
	assert.Equal(t, f.itemB.ID, jan10.Items[0].CoilItemID)
	assert.Equal(t, int64(6), jan10.Items[0].Quantity)
	assert.Nil(t, jan10.Items[0].StockingRun)
	require.Len(t, jan10.Runs, 1)
	assert.Equal(t, f.loadRunA.ID, jan10.Runs[0].ID)
	require.Len(t, jan10.Runs[0].Machines, 1)
	assert.Equal(t, "M-1", jan10.Runs[0].Machines[0].Code)
	require.Len(t, jan10.Runs[0].Locations, 1)
	assert.Equal(t, "Depot North", jan10.Runs[0].Locations[0].Name)

	jan12 := result.Sections[1]
	assert.Equal(t, "2024-01-12", jan12.ExpiryDate)
	assert.Equal(t, 2, jan12.DayOffset)
	require.Len(t, jan12.Items, 1)
	assert.Equal(t, int64(12), jan12.Items[0].Quantity)
	assert.Empty(t, jan12.Runs)

	jan13 := result.Sections[2]
	assert.Equal(t, "2024-01-13", jan13.ExpiryDate)
	require.Len(t, jan13.Items, 2)
	assert.Equal(t, int64(5), jan13.Items[0].Quantity)
	assert.False(t, jan13.Items[0].IsIgnored)
	assert.Equal(t, int64(3), jan13.Items[1].Quantity)
	assert.True(t, jan13.Items[1].IsIgnored)
	require.NotNil(t, jan13.Items[1].IgnoredAt)
	assert.True(t, jan13.Items[1].IgnoredAt.Equal(ignoredAt))
}

func TestComputeExpiringForWindow_RestockDetails(t *testing.T) {
	f := newWindowFixture()
	h := f.h
	// a second load of A on Jan 12 itself, too late to cover the Jan 12 lot fully
	sameDay := h.fleet.run(at(12, 7))
	history := append(append([]expiry.PickEntry{}, f.history...), pickEntry(sameDay, f.itemA, 5))

	h.entryRepo.On("FindHistory", mock.Anything, h.fleet.companyID, mock.Anything, mock.Anything).Return(history, nil).Once()
	h.ignoreRepo.On("FindForDates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]expiry.ExpiryIgnore{}, nil).Once()
	h.runRepo.On("FindScheduledBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]expiry.Run{}, nil).Once()

	days := 2
	result, err := h.service.ComputeExpiringForWindow(context.Background(), h.fleet.companyID, &days)
	require.NoError(t, err)
	require.Len(t, result.Sections, 2)

	jan12 := result.Sections[1]
	require.Len(t, jan12.Items, 1)
	item := jan12.Items[0]
	assert.Equal(t, int64(7), item.Quantity)
	assert.Equal(t, int64(5), item.PlannedQuantity)
	require.NotNil(t, item.StockingRun)
	assert.Equal(t, sameDay.ID, item.StockingRun.ID)
}

func TestComputeExpiringForWindow_AgreesWithDay(t *testing.T) {
	f := newWindowFixture()
	h := f.h
	targetRun := h.fleet.run(at(12, 9))
	targetEntry := pickEntry(targetRun, f.itemA, 0)
	history := append(append([]expiry.PickEntry{}, f.history...), targetEntry)

	h.expectDay(targetRun, []expiry.PickEntry{targetEntry}, history, nil, at(13, 0), "2024-01-12")
	day, err := h.service.ComputeExpiringForDay(context.Background(), h.fleet.companyID, targetRun.ID)
	require.NoError(t, err)

	h.entryRepo.On("FindHistory", mock.Anything, h.fleet.companyID, mock.Anything, mock.Anything).Return(history, nil).Once()
	h.ignoreRepo.On("FindForDates", mock.Anything, mock.Anything, mock.Anything, "2024-01-10", "2024-01-13").Return([]expiry.ExpiryIgnore{}, nil).Once()
	h.runRepo.On("FindScheduledBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]expiry.Run{*targetRun}, nil).Once()
	days := 3
	window, err := h.service.ComputeExpiringForWindow(context.Background(), h.fleet.companyID, &days)
	require.NoError(t, err)

	var windowSection *ExpirySection
	for i := range window.Sections {
		if window.Sections[i].ExpiryDate == "2024-01-12" {
			windowSection = &window.Sections[i]
		}
	}
	require.NotNil(t, windowSection)
	require.Len(t, day.Sections, 1)
	assert.Equal(t, day.Sections[0].Items, windowSection.Items)
	require.Len(t, windowSection.Runs, 1)
	assert.Equal(t, targetRun.ID, windowSection.Runs[0].ID)
}

func TestComputeExpiringForWindow_NoHistory(t *testing.T) {
	h := newReconciliationHarness()
	h.entryRepo.On("FindHistory", mock.Anything, h.fleet.companyID, mock.Anything, mock.Anything).Return([]expiry.PickEntry{}, nil).Once()

	result, err := h.service.ComputeExpiringForWindow(context.Background(), h.fleet.companyID, nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyResult(), result)
}

func TestComputeExpiringForWindow_DefaultsToFourteenDays(t *testing.T) {
	h := newReconciliationHarness()
	h.entryRepo.On("FindHistory", mock.Anything, h.fleet.companyID, mock.Anything, instant(at(25, 0))).Return([]expiry.PickEntry{}, nil).Once()

	_, err := h.service.ComputeExpiringForWindow(context.Background(), h.fleet.companyID, nil)
	require.NoError(t, err)
	h.entryRepo.AssertExpectations(t)
}

func TestComputeExpiringForWindow_UnknownTimeZone(t *testing.T) {
	h := newReconciliationHarness()
	h.fleet.company.TimeZone = "Nowhere/Special"

	result, err := h.service.ComputeExpiringForWindow(context.Background(), h.fleet.companyID, nil)
	assert.Nil(t, result)
	assert.True(t, shared.IsDomainError(err, "INVALID_TIME_ZONE"))
}

func TestSettings(t *testing.T) {
	s := Settings{DefaultDaysAhead: 40, MaxDaysAhead: 99}.normalized()
	assert.Equal(t, DefaultTimeZone, s.DefaultTimeZone)
	assert.Equal(t, MaxDaysAhead, s.MaxDaysAhead)
	assert.Equal(t, MaxDaysAhead, s.DefaultDaysAhead)

	d := DefaultSettings().normalized()
	assert.Equal(t, 14, d.clampDaysAhead(nil))
	for requested, want := range map[int]int{-3: 0, 0: 0, 7: 7, 28: 28, 40: 28} {
		r := requested
		assert.Equal(t, want, d.clampDaysAhead(&r), "requested %d", requested)
	}
}
