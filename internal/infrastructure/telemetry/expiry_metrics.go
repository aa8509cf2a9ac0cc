package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Commit outcomes used as the outcome attribute of the commit counter.
const (
	CommitOutcomeApplied = "applied"
	CommitOutcomeNoop    = "noop"
)

// ExpiryMetrics records expiry reconciliation activity.
type ExpiryMetrics struct {
	warningsTotal       *Counter
	commitsTotal        *Counter
	unitsCommittedTotal *Counter
	lastWarningCount    *Gauge
}

// ExpiryMetricsConfig holds configuration for expiry metrics.
type ExpiryMetricsConfig struct {
	Meter metric.Meter
}

// NewExpiryMetrics creates the expiry instruments on the given meter.
func NewExpiryMetrics(cfg ExpiryMetricsConfig) (*ExpiryMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	em := &ExpiryMetrics{}

	var err error
	em.warningsTotal, err = NewCounter(cfg.Meter,
		"vend_expiry_warnings_total",
		"Expiring coil items reported as warnings",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	em.commitsTotal, err = NewCounter(cfg.Meter,
		"vend_expiry_commits_total",
		"Expiry commit requests by outcome",
		"{commits}",
	)
	if err != nil {
		return nil, err
	}

	em.unitsCommittedTotal, err = NewCounter(cfg.Meter,
		"vend_expiry_units_committed_total",
		"Units added to pick entries by expiry commits",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	em.lastWarningCount, err = NewGauge(cfg.Meter,
		"vend_expiry_last_warning_count",
		"Warning count of the most recent reconciliation per company and operation",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	return em, nil
}

// RecordWarnings records the warning count produced by one reconciliation.
func (em *ExpiryMetrics) RecordWarnings(ctx context.Context, companyID uuid.UUID, operation string, count int) {
	attrs := []attribute.KeyValue{
		AttrCompanyID.String(companyID.String()),
		AttrOperation.String(operation),
	}
	em.warningsTotal.Add(ctx, int64(count), attrs...)
	em.lastWarningCount.Record(ctx, int64(count), attrs...)
}

// RecordCommit records one commit and the units it added.
func (em *ExpiryMetrics) RecordCommit(ctx context.Context, companyID uuid.UUID, added int64) {
	outcome := CommitOutcomeNoop
	if added > 0 {
		outcome = CommitOutcomeApplied
	}
	em.commitsTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrOutcome.String(outcome),
	)
	if added > 0 {
		em.unitsCommittedTotal.Add(ctx, added, AttrCompanyID.String(companyID.String()))
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewExpiryMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
