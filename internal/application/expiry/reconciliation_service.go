package expiry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
	"github.com/vendfleet/backend/internal/infrastructure/logger"
	"github.com/vendfleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconciliationService reports units that will expire unsold, either for the day of
// one run or for every day of an upcoming window. It never writes.
type ReconciliationService struct {
	companyRepo   expiry.CompanyRepository
	runRepo       expiry.RunRepository
	pickEntryRepo expiry.PickEntryRepository
	ignoreRepo    expiry.ExpiryIgnoreRepository
	settings      Settings
	now           Clock
	metrics       MetricsRecorder
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	companyRepo expiry.CompanyRepository,
	runRepo expiry.RunRepository,
	pickEntryRepo expiry.PickEntryRepository,
	ignoreRepo expiry.ExpiryIgnoreRepository,
	settings Settings,
) *ReconciliationService {
	return &ReconciliationService{
		companyRepo:   companyRepo,
		runRepo:       runRepo,
		pickEntryRepo: pickEntryRepo,
		ignoreRepo:    ignoreRepo,
		settings:      settings.normalized(),
		now:           time.Now,
		metrics:       nopMetrics{},
	}
}

// SetClock replaces the source of "now"
func (s *ReconciliationService) SetClock(clock Clock) {
	if clock != nil {
		s.now = clock
	}
}

// SetMetrics sets the metrics recorder
func (s *ReconciliationService) SetMetrics(metrics MetricsRecorder) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// ComputeExpiringForDay reports the units of the run's coil items that expire on the
// run's calendar day. Returns shared.ErrNotFound when the run does not exist or belongs
// to another company, and an empty result for unscheduled or past runs.
func (s *ReconciliationService) ComputeExpiringForDay(ctx context.Context, companyID, runID uuid.UUID) (*ExpiringResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expiry", "compute_for_day")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrRunID, runID,
	)

	result, err := s.computeForDay(ctx, companyID, runID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			logger.L(ctx).Error("Failed to compute expiring units for run",
				zap.String("run_id", runID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrWarnings, result.WarningCount,
		telemetry.SpanAttrSections, len(result.Sections),
	)
	s.metrics.RecordWarnings(ctx, companyID, OperationDay, result.WarningCount)
	return result, nil
}

func (s *ReconciliationService) computeForDay(ctx context.Context, companyID, runID uuid.UUID) (*ExpiringResult, error) {
	run, err := s.runRepo.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	if !run.IsScheduled() {
		return EmptyResult(), nil
	}

	loc, err := companyLocation(ctx, s.companyRepo, companyID, s.settings.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	target, retroactive := targetDay(loc, run, s.now())
	if retroactive {
		return EmptyResult(), nil
	}

	runEntries, err := s.pickEntryRepo.FindByRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	described := make(map[uuid.UUID]*expiry.CoilItem)
	coilItemIDs := make([]uuid.UUID, 0, len(runEntries))
	for i := range runEntries {
		id := runEntries[i].CoilItemID
		if _, seen := described[id]; seen {
			continue
		}
		described[id] = runEntries[i].CoilItem
		coilItemIDs = append(coilItemIDs, id)
	}
	if len(coilItemIDs) == 0 {
		return EmptyResult(), nil
	}
	sortIDs(coilItemIDs)

	history, err := s.pickEntryRepo.FindHistory(ctx, companyID, coilItemIDs, target.End)
	if err != nil {
		return nil, err
	}
	ledger := expiry.NewLedger(history, loc)

	remaining := make(map[expiry.LotKey]int64)
	for _, id := range coilItemIDs {
		if qty := ledger.ExpiringOn(id, target); qty > 0 {
			remaining[expiry.LotKey{CoilItemID: id, ExpiryDate: target.Label}] = qty
		}
	}
	if len(remaining) == 0 {
		return EmptyResult(), nil
	}

	ignores, err := s.ignoreRepo.FindForDates(ctx, companyID, coilItemIDs, target.Label, target.Label)
	if err != nil {
		return nil, err
	}
	adjusted := expiry.ApplyIgnoresToRemaining(remaining, ignores)

	describe := func(id uuid.UUID) *expiry.CoilItem {
		if ci := described[id]; ci.IsComplete() {
			return ci
		}
		return ledger.CoilItem(id)
	}
	items := buildItems(target.Label, coilItemIDs, remaining, adjusted, ignores, describe)
	if len(items) == 0 {
		return EmptyResult(), nil
	}
	attachRestocks(items, ledger, target)

	return &ExpiringResult{
		WarningCount: countWarnings(items),
		Sections: []ExpirySection{{
			ExpiryDate: target.Label,
			DayOffset:  0,
			Items:      items,
		}},
	}, nil
}

// ComputeExpiringForWindow reports expiring units for every day from today through
// today+daysAhead. A nil daysAhead uses the configured default; values are clamped to
// [0, MaxDaysAhead].
func (s *ReconciliationService) ComputeExpiringForWindow(ctx context.Context, companyID uuid.UUID, daysAhead *int) (*ExpiringResult, error) {
	days := s.settings.clampDaysAhead(daysAhead)

	ctx, span := telemetry.StartServiceSpan(ctx, "expiry", "compute_for_window")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrDaysAhead, days,
	)

	result, err := s.computeForWindow(ctx, companyID, days)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to compute expiring units for window",
			zap.Int("days_ahead", days),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrWarnings, result.WarningCount,
		telemetry.SpanAttrSections, len(result.Sections),
	)
	s.metrics.RecordWarnings(ctx, companyID, OperationWindow, result.WarningCount)
	return result, nil
}

func (s *ReconciliationService) computeForWindow(ctx context.Context, companyID uuid.UUID, days int) (*ExpiringResult, error) {
	loc, err := companyLocation(ctx, s.companyRepo, companyID, s.settings.DefaultTimeZone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	window := make([]valueobject.DayBounds, days+1)
	for offset := range window {
		window[offset] = valueobject.DayRangeIn(loc, now, offset)
	}
	first, last := window[0], window[days]

	history, err := s.pickEntryRepo.FindHistory(ctx, companyID, nil, last.End)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return EmptyResult(), nil
	}
	ledger := expiry.NewLedger(history, loc)
	coilItemIDs := ledger.CoilItemIDs()

	remaining := make(map[expiry.LotKey]int64)
	for _, day := range window {
		for _, id := range coilItemIDs {
			if qty := ledger.ExpiringOn(id, day); qty > 0 {
				remaining[expiry.LotKey{CoilItemID: id, ExpiryDate: day.Label}] = qty
			}
		}
	}
	if len(remaining) == 0 {
		return EmptyResult(), nil
	}

	ignores, err := s.ignoreRepo.FindForDates(ctx, companyID, nil, first.Label, last.Label)
	if err != nil {
		return nil, err
	}
	adjusted := expiry.ApplyIgnoresToRemaining(remaining, ignores)

	runs, err := s.runRepo.FindScheduledBetween(ctx, companyID, first.Start, last.End)
	if err != nil {
		return nil, err
	}
	sites := collectRunSites(history)

	result := EmptyResult()
	for offset, day := range window {
		items := buildItems(day.Label, coilItemIDs, remaining, adjusted, ignores, ledger.CoilItem)
		if len(items) == 0 {
			continue
		}
		attachRestocks(items, ledger, day)
		result.Sections = append(result.Sections, ExpirySection{
			ExpiryDate: day.Label,
			DayOffset:  offset,
			Items:      items,
			Runs:       runsOn(runs, day, sites),
		})
		result.WarningCount += countWarnings(items)
	}
	sortSections(result.Sections)
	return result, nil
}
