package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration // default 200ms
	PoolStatsInterval  time.Duration // default 15s
}

// DBMetrics records connection pool state and per-statement query metrics.
type DBMetrics struct {
	poolConnections *Gauge
	queryTotal      *Counter
	queryDuration   *Histogram
	slowQueryTotal  *Counter

	config DBMetricsConfig
	logger *zap.Logger
	sqlDB  *sql.DB

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{config: cfg, logger: logger, sqlDB: sqlDB, stopCh: make(chan struct{})}
	var err error
	if m.poolConnections, err = NewGauge(meter, "vend_db_pool_connections", "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "vend_db_query_total", "Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, "vend_db_query_duration_seconds", "Database statement latency", "s", DurationBuckets); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "vend_db_slow_query_total", "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// StartPoolStatsCollection samples sql.DB stats until Stop is called or ctx ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Cannot collect pool stats without a sql.DB")
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnections.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
}

// Stop ends pool stats collection. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery records one executed statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrOperation.String(operation))
	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

type dbMetricsContextKey struct{}

func markQueryStart(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tx.Statement.Context = context.WithValue(ctx, dbMetricsContextKey{}, time.Now())
}

func (m *DBMetrics) after(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(dbMetricsContextKey{}).(time.Time)
		if !ok {
			return
		}
		op := operation
		if op == "" {
			op = detectOperationType(tx.Statement.SQL.String())
		}
		m.RecordQuery(ctx, op, tx.Statement.Table, time.Since(start))
	}
}

// Register installs the query callbacks on db.
func (m *DBMetrics) Register(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("vend_metrics:before_create", markQueryStart),
		cb.Create().After("gorm:create").Register("vend_metrics:after_create", m.after("INSERT")),
		cb.Query().Before("gorm:query").Register("vend_metrics:before_query", markQueryStart),
		cb.Query().After("gorm:query").Register("vend_metrics:after_query", m.after("SELECT")),
		cb.Update().Before("gorm:update").Register("vend_metrics:before_update", markQueryStart),
		cb.Update().After("gorm:update").Register("vend_metrics:after_update", m.after("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("vend_metrics:before_delete", markQueryStart),
		cb.Delete().After("gorm:delete").Register("vend_metrics:after_delete", m.after("DELETE")),
		cb.Row().Before("gorm:row").Register("vend_metrics:before_row", markQueryStart),
		cb.Row().After("gorm:row").Register("vend_metrics:after_row", m.after("")),
		cb.Raw().Before("gorm:raw").Register("vend_metrics:before_raw", markQueryStart),
		cb.Raw().After("gorm:raw").Register("vend_metrics:after_raw", m.after("")),
	)
}

func detectOperationType(statement string) string {
	statement = strings.ToUpper(strings.TrimSpace(statement))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(statement, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics wires database metrics onto db when the meter provider is enabled.
// Returns nil metrics when there is nothing to record; the caller must Stop non-nil metrics.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(mp.Meter("vendfleet/db"), sqlDB, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := m.Register(db); err != nil {
		return nil, err
	}
	m.StartPoolStatsCollection(ctx)
	return m, nil
}
