// Package loadgen drives the expiry API with a weighted, rate-limited request mix.
package loadgen

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Errors returned by LoadConfig
var (
	ErrInvalidConfig  = errors.New("loadgen: invalid configuration")
	ErrConfigNotFound = errors.New("loadgen: configuration file not found")
)

// Config is the root of a loadgen YAML file
type Config struct {
	Name     string         `yaml:"name"`
	Target   TargetConfig   `yaml:"target"`
	Auth     AuthConfig     `yaml:"auth"`
	Duration time.Duration  `yaml:"duration"`
	QPS      float64        `yaml:"qps"`
	Burst    int            `yaml:"burst,omitempty"`
	Workers  int            `yaml:"workers,omitempty"`
	Workload WorkloadConfig `yaml:"workload"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	// Seed makes the request sequence reproducible; 0 picks a random seed
	Seed uint64 `yaml:"seed,omitempty"`
}

// TargetConfig locates the API under test
type TargetConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	APIVersion string        `yaml:"apiVersion,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// AuthConfig either carries a ready token or the signing settings to mint one
type AuthConfig struct {
	Token     string    `yaml:"token,omitempty"`
	Secret    string    `yaml:"secret,omitempty"`
	Issuer    string    `yaml:"issuer,omitempty"`
	CompanyID uuid.UUID `yaml:"companyID,omitempty"`
	UserID    uuid.UUID `yaml:"userID,omitempty"`
}

// WorkloadConfig weights the three operations and lists the records they target
type WorkloadConfig struct {
	DayWeight    int `yaml:"dayWeight"`
	WindowWeight int `yaml:"windowWeight"`
	CommitWeight int `yaml:"commitWeight"`
	// RepeatCommitRatio is the share of commits that resend an earlier Idempotency-Key
	RepeatCommitRatio float64  `yaml:"repeatCommitRatio,omitempty"`
	MaxDaysAhead      int      `yaml:"maxDaysAhead,omitempty"`
	Runs              []string `yaml:"runs"`
	CoilItems         []string `yaml:"coilItems"`
}

// MetricsConfig exposes the run's prometheus metrics
type MetricsConfig struct {
	// Listen is the address of the /metrics endpoint; empty disables it
	Listen string `yaml:"listen,omitempty"`
}

// LoadConfig reads, validates and defaults a YAML config file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes, validates and applies defaults
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Validate checks the required fields
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.Target.BaseURL == "" {
		return fmt.Errorf("%w: target.baseURL is required", ErrInvalidConfig)
	}
	if c.QPS <= 0 {
		return fmt.Errorf("%w: qps must be positive", ErrInvalidConfig)
	}
	if c.Auth.Token == "" && (c.Auth.Secret == "" || c.Auth.CompanyID == uuid.Nil || c.Auth.UserID == uuid.Nil) {
		return fmt.Errorf("%w: auth needs a token or secret, companyID and userID", ErrInvalidConfig)
	}

	w := c.Workload
	if w.DayWeight < 0 || w.WindowWeight < 0 || w.CommitWeight < 0 {
		return fmt.Errorf("%w: workload weights must not be negative", ErrInvalidConfig)
	}
	if w.DayWeight+w.WindowWeight+w.CommitWeight == 0 {
		return fmt.Errorf("%w: at least one workload weight must be positive", ErrInvalidConfig)
	}
	if (w.DayWeight > 0 || w.CommitWeight > 0) && len(w.Runs) == 0 {
		return fmt.Errorf("%w: workload.runs is required for day and commit requests", ErrInvalidConfig)
	}
	if w.CommitWeight > 0 && len(w.CoilItems) == 0 {
		return fmt.Errorf("%w: workload.coilItems is required for commit requests", ErrInvalidConfig)
	}
	if w.RepeatCommitRatio < 0 || w.RepeatCommitRatio > 1 {
		return fmt.Errorf("%w: workload.repeatCommitRatio must be within [0, 1]", ErrInvalidConfig)
	}
	for _, id := range append(append([]string{}, w.Runs...), w.CoilItems...) {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: %q is not a UUID", ErrInvalidConfig, id)
		}
	}
	return nil
}

// ApplyDefaults fills unset optional fields
func (c *Config) ApplyDefaults() {
	if c.Duration <= 0 {
		c.Duration = time.Minute
	}
	if c.Target.APIVersion == "" {
		c.Target.APIVersion = "v1"
	}
	if c.Target.Timeout <= 0 {
		c.Target.Timeout = 10 * time.Second
	}
	if c.Burst <= 0 {
		c.Burst = max(1, int(c.QPS))
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Workload.MaxDaysAhead <= 0 || c.Workload.MaxDaysAhead > 28 {
		c.Workload.MaxDaysAhead = 28
	}
}
