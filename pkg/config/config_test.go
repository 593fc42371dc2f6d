package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Region != "us-east-1" {
		t.Errorf("Region = %q, want us-east-1", cfg.Region)
	}
	if cfg.DisableDestroy {
		t.Error("destroy must be enabled by default")
	}
	if cfg.Timeouts.Workflow != 60*time.Second {
		t.Errorf("Workflow timeout = %v, want 60s", cfg.Timeouts.Workflow)
	}
	if cfg.Timeouts.Setup != 120*time.Second {
		t.Errorf("Setup timeout = %v, want 120s", cfg.Timeouts.Setup)
	}
	if cfg.Timeouts.Teardown != 600*time.Second {
		t.Errorf("Teardown timeout = %v, want 600s", cfg.Timeouts.Teardown)
	}
	if cfg.Timeouts.Test != 600*time.Second {
		t.Errorf("Test timeout = %v, want 600s", cfg.Timeouts.Test)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
region: eu-central-1
disable_destroy: true
timeouts:
  workflow: 30s
snapshot:
  path: /tmp/refs.db
  update: true
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Region != "eu-central-1" {
		t.Errorf("Region = %q", cfg.Region)
	}
	if !cfg.DisableDestroy {
		t.Error("disable_destroy not applied")
	}
	if cfg.Timeouts.Workflow != 30*time.Second {
		t.Errorf("Workflow timeout = %v, want 30s", cfg.Timeouts.Workflow)
	}
	// Unset file fields keep their defaults.
	if cfg.Timeouts.Teardown != 600*time.Second {
		t.Errorf("Teardown timeout = %v, want the default", cfg.Timeouts.Teardown)
	}
	if cfg.Snapshot.Path != "/tmp/refs.db" || !cfg.Snapshot.Update {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STACKPROBE_REGION", "ap-southeast-2")
	t.Setenv("STACKPROBE_NO_DESTROY", "true")
	t.Setenv("STACKPROBE_PRINCIPAL", "ci-bot")
	t.Setenv("STACKPROBE_SNAPSHOT_UPDATE", "1")
	t.Setenv("STACKPROBE_TIMEOUT_WORKFLOW_MS", "90000")
	t.Setenv("STACKPROBE_TIMEOUT_SETUP_MS", "300000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Region != "ap-southeast-2" {
		t.Errorf("Region = %q", cfg.Region)
	}
	if !cfg.DisableDestroy {
		t.Error("STACKPROBE_NO_DESTROY not applied")
	}
	if cfg.Principal != "ci-bot" {
		t.Errorf("Principal = %q", cfg.Principal)
	}
	if !cfg.Snapshot.Update {
		t.Error("STACKPROBE_SNAPSHOT_UPDATE not applied")
	}
	if cfg.Timeouts.Workflow != 90*time.Second {
		t.Errorf("Workflow timeout = %v, want 90s", cfg.Timeouts.Workflow)
	}
	if cfg.Timeouts.Setup != 300*time.Second {
		t.Errorf("Setup timeout = %v, want 300s", cfg.Timeouts.Setup)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("region: eu-west-1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STACKPROBE_REGION", "us-west-2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Region != "us-west-2" {
		t.Errorf("environment must win over the file, got %q", cfg.Region)
	}
}

func TestInvalidTimeoutOverrideIgnored(t *testing.T) {
	t.Setenv("STACKPROBE_TIMEOUT_WORKFLOW_MS", "not-a-number")
	t.Setenv("STACKPROBE_TIMEOUT_SETUP_MS", "-5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timeouts.Workflow != DefaultWorkflowTimeout {
		t.Errorf("Workflow timeout = %v, want the default", cfg.Timeouts.Workflow)
	}
	if cfg.Timeouts.Setup != DefaultSetupTimeout {
		t.Errorf("Setup timeout = %v, want the default", cfg.Timeouts.Setup)
	}
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	cfg := Default()
	cfg.Timeouts.Workflow = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error for a zero timeout")
	}
}

func TestValidateRejectsEmptyRegion(t *testing.T) {
	cfg := Default()
	cfg.Region = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error for an empty region")
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "on"} {
		if !isTruthy(v) {
			t.Errorf("isTruthy(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "false", "no", "off", ""} {
		if isTruthy(v) {
			t.Errorf("isTruthy(%q) = true", v)
		}
	}
}
