package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

// Default timeouts, overridable per call site and via environment.
const (
	DefaultWorkflowTimeout = 60 * time.Second
	DefaultSetupTimeout    = 120 * time.Second
	DefaultTeardownTimeout = 600 * time.Second
	DefaultTestTimeout     = 600 * time.Second
)

// Config is the harness configuration.
type Config struct {
	// Region is the target cloud region.
	Region string `yaml:"region" validate:"required"`

	// DisableDestroy leaves stacks live after the test group finishes.
	// Useful for debugging a failed run against the real resources.
	DisableDestroy bool `yaml:"disable_destroy"`

	// Principal overrides the resolved caller identity in name derivation.
	Principal string `yaml:"principal"`

	// Timeouts bound the harness phases.
	Timeouts Timeouts `yaml:"timeouts"`

	// Snapshot configures the snapshot reference store.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Logging configures structured logging.
	Logging telemetry.LoggingConfig `yaml:"logging"`
}

// Timeouts bound the harness phases. All values must be positive.
type Timeouts struct {
	// Workflow bounds one workflow execution wait.
	Workflow time.Duration `yaml:"workflow" validate:"gt=0"`

	// Setup bounds deployment of one test group's stack.
	Setup time.Duration `yaml:"setup" validate:"gt=0"`

	// Teardown bounds destruction of one test group's stack.
	Teardown time.Duration `yaml:"teardown" validate:"gt=0"`

	// Test bounds one test body.
	Test time.Duration `yaml:"test" validate:"gt=0"`
}

// SnapshotConfig configures the snapshot reference store.
type SnapshotConfig struct {
	// Path is the SQLite database file holding snapshot references.
	Path string `yaml:"path"`

	// Update overwrites references instead of comparing against them.
	Update bool `yaml:"update"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Region: "us-east-1",
		Timeouts: Timeouts{
			Workflow: DefaultWorkflowTimeout,
			Setup:    DefaultSetupTimeout,
			Teardown: DefaultTeardownTimeout,
			Test:     DefaultTestTimeout,
		},
		Snapshot: SnapshotConfig{Path: ".stackprobe/snapshots.db"},
		Logging:  telemetry.LoggingConfig{Level: "info", Format: "console", Output: "stderr"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnv overlays STACKPROBE_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("STACKPROBE_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("STACKPROBE_NO_DESTROY"); v != "" {
		c.DisableDestroy = isTruthy(v)
	}
	if v := os.Getenv("STACKPROBE_PRINCIPAL"); v != "" {
		c.Principal = v
	}
	if v := os.Getenv("STACKPROBE_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = v
	}
	if v := os.Getenv("STACKPROBE_SNAPSHOT_UPDATE"); v != "" {
		c.Snapshot.Update = isTruthy(v)
	}
	if v := os.Getenv("STACKPROBE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STACKPROBE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	overrideTimeout(&c.Timeouts.Workflow, "STACKPROBE_TIMEOUT_WORKFLOW_MS")
	overrideTimeout(&c.Timeouts.Setup, "STACKPROBE_TIMEOUT_SETUP_MS")
	overrideTimeout(&c.Timeouts.Teardown, "STACKPROBE_TIMEOUT_TEARDOWN_MS")
	overrideTimeout(&c.Timeouts.Test, "STACKPROBE_TIMEOUT_TEST_MS")
}

func overrideTimeout(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return
	}
	*dst = time.Duration(ms) * time.Millisecond
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
