package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/infrastructure/logger"
	"github.com/vendfleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CommitService raises a run's pick entry so that the run replaces the units of its
// coil item that would otherwise expire unsold on the run's day.
type CommitService struct {
	txScope  TransactionScope
	settings Settings
	now      Clock
	metrics  MetricsRecorder
}

// NewCommitService creates a new CommitService
func NewCommitService(txScope TransactionScope, settings Settings) *CommitService {
	return &CommitService{
		txScope:  txScope,
		settings: settings.normalized(),
		now:      time.Now,
		metrics:  nopMetrics{},
	}
}

// SetClock replaces the source of "now"
func (s *CommitService) SetClock(clock Clock) {
	if clock != nil {
		s.now = clock
	}
}

// SetMetrics sets the metrics recorder
func (s *CommitService) SetMetrics(metrics MetricsRecorder) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// CommitNeededForDay adds the still-outstanding expiring quantity of the coil item to
// the run's pick entry and records an audit note, in one transaction.
//
// Returns shared.ErrNotFound when the run is missing, belongs to another company, or
// has no complete pick entry for the coil item. Returns (nil, nil) for unscheduled or
// past runs. When nothing is outstanding the result has AddedQuantity 0 and nothing is
// written, so repeating a commit is harmless.
func (s *CommitService) CommitNeededForDay(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expiry", "commit_needed_for_day")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, req.CompanyID,
		telemetry.SpanAttrRunID, req.RunID,
		telemetry.SpanAttrCoilItemID, req.CoilItemID,
	)

	var result *CommitResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = s.commit(ctx, repos, req)
		return err
	})
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			logger.L(ctx).Error("Expiry commit failed",
				zap.String("run_id", req.RunID.String()),
				zap.String("coil_item_id", req.CoilItemID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrAdded, result.AddedQuantity)
	s.metrics.RecordCommit(ctx, req.CompanyID, result.AddedQuantity)
	if result.AddedQuantity > 0 {
		logger.L(ctx).Info("Expiry commit applied",
			zap.String("run_id", req.RunID.String()),
			zap.String("coil_code", result.CoilCode),
			zap.Int64("added_quantity", result.AddedQuantity),
			zap.String("run_date", result.RunDate),
		)
	}
	return result, nil
}

func (s *CommitService) commit(ctx context.Context, repos TransactionalRepositories, req CommitRequest) (*CommitResult, error) {
	run, err := repos.RunRepo().FindByID(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if run.CompanyID != req.CompanyID {
		return nil, shared.ErrNotFound
	}
	if !run.IsScheduled() {
		return nil, nil
	}

	loc, err := companyLocation(ctx, repos.CompanyRepo(), req.CompanyID, s.settings.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	target, retroactive := targetDay(loc, run, s.now())
	if retroactive {
		return nil, nil
	}

	entry, err := repos.PickEntryRepo().FindByRunAndCoilItemForUpdate(ctx, run.ID, req.CoilItemID)
	if err != nil {
		return nil, err
	}
	if !entry.CoilItem.IsComplete() {
		return nil, shared.ErrNotFound
	}

	history, err := repos.PickEntryRepo().FindHistory(ctx, req.CompanyID, []uuid.UUID{req.CoilItemID}, target.End)
	if err != nil {
		return nil, err
	}
	expiring := expiry.NewLedger(history, loc).ExpiringOnExcludingRun(req.CoilItemID, target, run.ID)

	ignored, err := repos.IgnoreRepo().SumQuantityThrough(ctx, req.CompanyID, req.CoilItemID, target.Label)
	if err != nil {
		return nil, err
	}
	outstanding := max(expiring-ignored, 0)

	result := &CommitResult{
		ExpiringQuantity: expiring,
		CoilCode:         entry.CoilItem.Coil.Code,
		RunDate:          target.Label,
	}
	if outstanding == 0 {
		return result, nil
	}

	planned := expiry.PlannedQuantity(entry)
	if err := repos.PickEntryRepo().UpdatePlannedCount(ctx, entry.ID, planned+outstanding); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Expiry: added %d to coil %s for units expiring %s", outstanding, result.CoilCode, target.Label)
	note, err := expiry.NewNote(req.CompanyID, run.ID, req.UserID, body, s.now())
	if err != nil {
		return nil, err
	}
	if err := repos.NoteRepo().Create(ctx, note); err != nil {
		return nil, err
	}

	result.AddedQuantity = outstanding
	return result, nil
}
