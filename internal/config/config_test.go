package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.HeartbeatTimeout != 30*time.Second || cfg.SweepInterval != 10*time.Second {
		t.Fatalf("unexpected default timings: %s / %s", cfg.HeartbeatTimeout, cfg.SweepInterval)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != "console" {
		t.Fatalf("expected console sink by default, got %v", cfg.LogSinks)
	}
	if cfg.DatabasePath != "" {
		t.Fatalf("expected in-memory store by default, got %q", cfg.DatabasePath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NEXUS_ADDR", ":9090")
	t.Setenv("NEXUS_FLOOR_RADIUS", "8")
	t.Setenv("NEXUS_HEARTBEAT_TIMEOUT", "45s")
	t.Setenv("NEXUS_LOG_SINKS", "console,json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.FloorRadius != 8 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.HeartbeatTimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.HeartbeatTimeout)
	}
	if len(cfg.LogSinks) != 2 || cfg.LogSinks[1] != "json" {
		t.Fatalf("expected two sinks, got %v", cfg.LogSinks)
	}
}

func TestValidateRejectsBadTimings(t *testing.T) {
	t.Setenv("NEXUS_SWEEP_INTERVAL", "40s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected a sweep interval longer than the timeout to fail")
	}

	t.Setenv("NEXUS_SWEEP_INTERVAL", "10s")
	t.Setenv("NEXUS_FLOOR_RADIUS", "1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected a tiny floor radius to fail")
	}
}
