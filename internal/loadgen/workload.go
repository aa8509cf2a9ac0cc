package loadgen

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
)

// Operation names, also used as metric labels
const (
	OpDay    = "day"
	OpWindow = "window"
	OpCommit = "commit"
)

// Request is one planned API call
type Request struct {
	Operation      string
	Method         string
	Path           string
	Body           []byte
	IdempotencyKey string
}

// Workload draws requests according to the configured weights.
// Safe for concurrent use.
type Workload struct {
	mu       sync.Mutex
	faker    *gofakeit.Faker
	cfg      WorkloadConfig
	prefix   string
	usedKeys []string
}

// NewWorkload creates a workload; seed 0 picks a random sequence
func NewWorkload(cfg WorkloadConfig, apiVersion string, seed uint64) *Workload {
	return &Workload{
		faker:  gofakeit.New(seed),
		cfg:    cfg,
		prefix: "/api/" + apiVersion + "/expiry",
	}
}

// Next returns the next request to send
func (w *Workload) Next() Request {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.pickOperation() {
	case OpDay:
		return Request{
			Operation: OpDay,
			Method:    http.MethodGet,
			Path:      w.prefix + "/runs/" + w.pick(w.cfg.Runs),
		}
	case OpWindow:
		q := url.Values{}
		q.Set("days_ahead", strconv.Itoa(w.faker.Number(0, w.cfg.MaxDaysAhead)))
		return Request{
			Operation: OpWindow,
			Method:    http.MethodGet,
			Path:      w.prefix + "/upcoming?" + q.Encode(),
		}
	default:
		body, _ := json.Marshal(map[string]string{"coil_item_id": w.pick(w.cfg.CoilItems)})
		return Request{
			Operation:      OpCommit,
			Method:         http.MethodPost,
			Path:           fmt.Sprintf("%s/runs/%s/commit", w.prefix, w.pick(w.cfg.Runs)),
			Body:           body,
			IdempotencyKey: w.idempotencyKey(),
		}
	}
}

func (w *Workload) pickOperation() string {
	total := w.cfg.DayWeight + w.cfg.WindowWeight + w.cfg.CommitWeight
	n := w.faker.Number(1, total)
	switch {
	case n <= w.cfg.DayWeight:
		return OpDay
	case n <= w.cfg.DayWeight+w.cfg.WindowWeight:
		return OpWindow
	default:
		return OpCommit
	}
}

// idempotencyKey reuses an earlier key for RepeatCommitRatio of the commits
func (w *Workload) idempotencyKey() string {
	if len(w.usedKeys) > 0 && w.faker.Float64Range(0, 1) < w.cfg.RepeatCommitRatio {
		return w.pick(w.usedKeys)
	}
	key := "loadgen-" + w.faker.UUID()
	if len(w.usedKeys) < 1024 {
		w.usedKeys = append(w.usedKeys, key)
	}
	return key
}

func (w *Workload) pick(values []string) string {
	return values[w.faker.Number(0, len(values)-1)]
}
