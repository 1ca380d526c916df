package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scanner.BaseURL != "http://localhost:8081" {
		t.Errorf("scanner default = %q", cfg.Scanner.BaseURL)
	}
	if cfg.Schedule.Timezone != "America/Chicago" {
		t.Errorf("timezone default = %q", cfg.Schedule.Timezone)
	}
	if cfg.Trading.CycleIntervalMinutes != 5 {
		t.Errorf("cycle interval default = %d", cfg.Trading.CycleIntervalMinutes)
	}
	if cfg.Schedule.CycleCron == "" || cfg.Schedule.PlanCron == "" {
		t.Error("cron defaults missing")
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
discord:
  webhook_url: https://discord.example/hook
broker:
  base_url: https://sandbox.example
  username: u
  password: p
  account_number: ACC1
oracle:
  base_url: https://oracle.example
trading:
  cycle_interval_minutes: 2
  categories:
    - name: NVDA
      kind: equity
      symbols: [NVDA]
      multiplier: 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BROKER_ACCOUNT_NUMBER", "ACC2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Broker.AccountNumber != "ACC2" {
		t.Errorf("env override lost, got %q", cfg.Broker.AccountNumber)
	}
	if cfg.Trading.CycleIntervalMinutes != 2 {
		t.Errorf("cycle interval = %d, want 2", cfg.Trading.CycleIntervalMinutes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for empty required fields")
	}
}
