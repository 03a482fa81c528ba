// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"NEXUS_ADDR" envDefault:":8080"`
	// DatabasePath points at the sqlite session store. Empty keeps
	// sessions in memory only.
	DatabasePath string `env:"NEXUS_DB_PATH"`
	// BalancePath overrides the built-in class and ability tables.
	BalancePath string `env:"NEXUS_BALANCE_PATH"`
	// FloorRadius sets the hex radius of generated floors.
	FloorRadius int `env:"NEXUS_FLOOR_RADIUS" envDefault:"12"`
	// HeartbeatTimeout is how long a connection may stay silent before
	// the sweep evicts it.
	HeartbeatTimeout time.Duration `env:"NEXUS_HEARTBEAT_TIMEOUT" envDefault:"30s"`
	// SweepInterval is how often the registry scans for stale
	// connections.
	SweepInterval time.Duration `env:"NEXUS_SWEEP_INTERVAL" envDefault:"10s"`
	// LogSinks selects the logging outputs.
	LogSinks []string `env:"NEXUS_LOG_SINKS" envSeparator:"," envDefault:"console"`
	// LogJSONPath is where the json sink writes, when enabled.
	LogJSONPath string `env:"NEXUS_LOG_JSON_PATH" envDefault:"umbral-nexus.ndjson"`
	// ShutdownGrace bounds how long in-flight requests may run after a
	// termination signal.
	ShutdownGrace time.Duration `env:"NEXUS_SHUTDOWN_GRACE" envDefault:"10s"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.FloorRadius < 4 {
		return fmt.Errorf("floor radius %d is too small to crawl in", c.FloorRadius)
	}
	if c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("heartbeat timeout must be positive, got %s", c.HeartbeatTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.SweepInterval >= c.HeartbeatTimeout {
		return fmt.Errorf("sweep interval %s must be shorter than the heartbeat timeout %s", c.SweepInterval, c.HeartbeatTimeout)
	}
	return nil
}
