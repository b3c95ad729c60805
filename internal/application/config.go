// Package application orchestrates verification runs: it fans the
// evidence collectors out concurrently, joins their proofs into a
// verdict, drives the ledger-recording stage, and recomputes trust
// scores from recorded history.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/truthstream/verity/internal/domain"
)

// DefaultStageTimeout bounds every stage of a run when no override is
// configured. A stage that exceeds its timeout fails with
// ErrProviderTimeout instead of hanging the run.
const DefaultStageTimeout = 15 * time.Second

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config holds the orchestrator's tunables. All durations are expressed
// in seconds in YAML form, mirroring how deployments configure them.
type Config struct {
	// StageTimeoutSeconds is the per-stage timeout applied to every
	// stage that has no explicit override.
	StageTimeoutSeconds int `yaml:"stage_timeout_seconds" validate:"omitempty,min=1,max=3600"`

	// StageTimeoutOverrides maps a stage name to a timeout in seconds,
	// replacing the default for that stage only.
	StageTimeoutOverrides map[string]int `yaml:"stage_timeout_overrides" validate:"omitempty,dive,min=1,max=3600"`
}

// DefaultConfig returns a Config with the default 15s stage timeout and
// no overrides.
func DefaultConfig() Config {
	return Config{StageTimeoutSeconds: int(DefaultStageTimeout / time.Second)}
}

// LoadConfig reads and validates an orchestrator configuration from a
// YAML file. Missing fields fall back to defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration with struct tags plus the stage
// names used as override keys.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	for name := range c.StageTimeoutOverrides {
		if !knownStage(name) {
			return fmt.Errorf("configuration validation failed: unknown stage %q in overrides", name)
		}
	}
	return nil
}

// TimeoutFor resolves the effective timeout for a stage.
func (c Config) TimeoutFor(stage domain.Stage) time.Duration {
	if secs, ok := c.StageTimeoutOverrides[string(stage)]; ok {
		return time.Duration(secs) * time.Second
	}
	if c.StageTimeoutSeconds > 0 {
		return time.Duration(c.StageTimeoutSeconds) * time.Second
	}
	return DefaultStageTimeout
}

func knownStage(name string) bool {
	for _, stage := range domain.Stages {
		if string(stage) == name {
			return true
		}
	}
	return false
}
