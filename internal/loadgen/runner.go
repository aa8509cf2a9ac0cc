package loadgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vendfleet/backend/internal/infrastructure/auth"
	"github.com/vendfleet/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Summary counts the outcomes of a run
type Summary struct {
	Sent          int64
	Succeeded     int64
	Duplicates    int64
	ClientErrs    int64
	ServerErrs    int64
	TransportErrs int64
	Elapsed       time.Duration
}

// Runner sends the workload at the configured rate until the duration elapses
type Runner struct {
	cfg      *Config
	client   *http.Client
	workload *Workload
	metrics  *Metrics
	limiter  *rate.Limiter
	token    string
	logger   *zap.Logger
}

// NewRunner prepares a run, minting a bearer token when none is configured
func NewRunner(cfg *Config, metrics *Metrics, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	token := cfg.Auth.Token
	if token == "" {
		jwtService := auth.NewJWTService(config.JWTConfig{
			Secret:                cfg.Auth.Secret,
			Issuer:                cfg.Auth.Issuer,
			AccessTokenExpiration: cfg.Duration + time.Hour,
		})
		var err error
		token, _, err = jwtService.GenerateAccessToken(auth.TokenInput{
			CompanyID: cfg.Auth.CompanyID,
			UserID:    cfg.Auth.UserID,
			Username:  "loadgen",
		})
		if err != nil {
			return nil, fmt.Errorf("minting token: %w", err)
		}
	}

	metrics.targetQPS.Set(cfg.QPS)
	return &Runner{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Target.Timeout},
		workload: NewWorkload(cfg.Workload, cfg.Target.APIVersion, cfg.Seed),
		metrics:  metrics,
		limiter:  rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst),
		token:    token,
		logger:   logger,
	}, nil
}

// Run blocks until the configured duration elapses or ctx is cancelled
func (r *Runner) Run(ctx context.Context) Summary {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var (
		summary Summary
		wg      sync.WaitGroup
		counts  [outcomeCancelled + 1]atomic.Int64
	)
	start := time.Now()
	queue := make(chan Request, r.cfg.Workers)

	for range r.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range queue {
				counts[r.execute(ctx, req)].Add(1)
			}
		}()
	}

	for ctx.Err() == nil {
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case queue <- r.workload.Next():
		case <-ctx.Done():
		}
	}
	close(queue)
	wg.Wait()

	summary.Succeeded = counts[outcomeSuccess].Load()
	summary.Duplicates = counts[outcomeDuplicate].Load()
	summary.ClientErrs = counts[outcomeClientError].Load()
	summary.ServerErrs = counts[outcomeServerError].Load()
	summary.TransportErrs = counts[outcomeTransport].Load()
	summary.Sent = summary.Succeeded + summary.Duplicates + summary.ClientErrs + summary.ServerErrs + summary.TransportErrs
	summary.Elapsed = time.Since(start)
	return summary
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeDuplicate
	outcomeClientError
	outcomeServerError
	outcomeTransport
	// cut off by the end of the run; not counted
	outcomeCancelled
)

func (r *Runner) execute(ctx context.Context, req Request) outcome {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method,
		strings.TrimRight(r.cfg.Target.BaseURL, "/")+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		r.logger.Error("Failed to build request", zap.String("path", req.Path), zap.Error(err))
		return outcomeTransport
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.token)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	r.metrics.inFlight.Inc()
	start := time.Now()
	resp, err := r.client.Do(httpReq)
	elapsed := time.Since(start)
	r.metrics.inFlight.Dec()

	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			return outcomeCancelled
		}
		r.metrics.Observe(req.Operation, 0, elapsed)
		r.logger.Debug("Request failed", zap.String("operation", req.Operation), zap.Error(err))
		return outcomeTransport
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	r.metrics.Observe(req.Operation, resp.StatusCode, elapsed)

	switch {
	case resp.StatusCode == http.StatusConflict && req.IdempotencyKey != "":
		return outcomeDuplicate
	case resp.StatusCode >= http.StatusInternalServerError:
		r.logger.Warn("Server error",
			zap.String("operation", req.Operation),
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
		)
		return outcomeServerError
	case resp.StatusCode >= http.StatusBadRequest:
		return outcomeClientError
	default:
		return outcomeSuccess
	}
}
