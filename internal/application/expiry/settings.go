package expiry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
)

// Defaults applied when configuration leaves a setting unset
const (
	DefaultDaysAhead = 14
	MaxDaysAhead     = 28
	DefaultTimeZone  = "America/Chicago"
)

// Operation names reported to MetricsRecorder
const (
	OperationDay    = "day"
	OperationWindow = "window"
)

// Settings holds the expiry defaults taken from configuration
type Settings struct {
	DefaultTimeZone  string
	DefaultDaysAhead int
	MaxDaysAhead     int
}

// DefaultSettings returns the built-in expiry defaults
func DefaultSettings() Settings {
	return Settings{
		DefaultTimeZone:  DefaultTimeZone,
		DefaultDaysAhead: DefaultDaysAhead,
		MaxDaysAhead:     MaxDaysAhead,
	}
}

func (s Settings) normalized() Settings {
	if strings.TrimSpace(s.DefaultTimeZone) == "" {
		s.DefaultTimeZone = DefaultTimeZone
	}
	if s.MaxDaysAhead <= 0 || s.MaxDaysAhead > MaxDaysAhead {
		s.MaxDaysAhead = MaxDaysAhead
	}
	if s.DefaultDaysAhead < 0 {
		s.DefaultDaysAhead = DefaultDaysAhead
	}
	s.DefaultDaysAhead = min(s.DefaultDaysAhead, s.MaxDaysAhead)
	return s
}

// clampDaysAhead resolves the requested window length; nil means the default
func (s Settings) clampDaysAhead(requested *int) int {
	days := s.DefaultDaysAhead
	if requested != nil {
		days = *requested
	}
	return max(0, min(days, s.MaxDaysAhead))
}

// MetricsRecorder receives reconciliation and commit counts
type MetricsRecorder interface {
	RecordWarnings(ctx context.Context, companyID uuid.UUID, operation string, count int)
	RecordCommit(ctx context.Context, companyID uuid.UUID, added int64)
}

type nopMetrics struct{}

func (nopMetrics) RecordWarnings(context.Context, uuid.UUID, string, int) {}
func (nopMetrics) RecordCommit(context.Context, uuid.UUID, int64)         {}

// Clock returns the current instant
type Clock func() time.Time

// companyLocation resolves the company's zone, falling back to the configured default
func companyLocation(ctx context.Context, repo expiry.CompanyRepository, companyID uuid.UUID, fallback string) (*time.Location, error) {
	tz := fallback
	company, err := repo.FindByID(ctx, companyID)
	switch {
	case err == nil && company != nil && strings.TrimSpace(company.TimeZone) != "":
		tz = company.TimeZone
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	loc, err := valueobject.LoadZone(tz)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidTimeZone.Code, err.Error())
	}
	return loc, nil
}

// targetDay resolves the run's calendar day and reports whether it is before today
func targetDay(loc *time.Location, run *expiry.Run, now time.Time) (target valueobject.DayBounds, retroactive bool) {
	today := valueobject.DayRangeIn(loc, now, 0)
	target = valueobject.DayRangeIn(loc, *run.ScheduledFor, 0)
	return target, target.Label < today.Label
}
