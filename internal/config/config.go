// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config decodes the qnsd daemon's own ambient HCL
// configuration: which slots and sessions to run, where to read the
// carrier-config/provisioning fixtures from, and the admin surfaces to
// start. Carrier-config data itself has its own, much smaller,
// hand-parsed mini-languages (internal/carrierconfig) and is not HCL;
// this package governs the daemon process, not the carrier's policy.
package config

import (
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/qns/internal/errors"
)

// Config is the root of qnsd's daemon configuration file.
type Config struct {
	LogLevel string `hcl:"log_level,optional"`
	LogJSON  bool   `hcl:"log_json,optional"`

	Engines []EngineConfig `hcl:"engine,block"`

	API *APIConfig `hcl:"api,block"`
	SSH *SSHConfig `hcl:"ssh,block"`

	Metrics *MetricsConfig `hcl:"metrics,block"`
}

// EngineConfig configures one (slot, session) ANE to start. Slot is
// declared as a string HCL label (block labels are always strings);
// Load keeps it as a string, and callers convert it with SlotNumber.
type EngineConfig struct {
	SlotLabel          string `hcl:"slot,label"`
	Session            string `hcl:"session,label"`
	ProvisioningPath   string `hcl:"provisioning_path,optional"`
	CarrierConfigPath  string `hcl:"carrier_config_path,optional"`
	IwlanPingGateway   string `hcl:"iwlan_ping_gateway,optional"`
	IwlanPingPeriodSec int    `hcl:"iwlan_ping_period_seconds,optional"`
}

// SlotNumber parses the engine's string slot label.
func (e EngineConfig) SlotNumber() (int, error) {
	n, err := strconv.Atoi(e.SlotLabel)
	if err != nil {
		return 0, errors.Wrapf(err, errors.KindValidation, "engine block has non-numeric slot label %q", e.SlotLabel)
	}
	return n, nil
}

// APIConfig configures the admin HTTP/websocket surface.
type APIConfig struct {
	Enabled       bool   `hcl:"enabled,optional"`
	ListenAddress string `hcl:"listen_address,optional"`
	Port          int    `hcl:"port,optional"`
}

// SSHConfig configures the live-dashboard SSH surface.
type SSHConfig struct {
	Enabled       bool   `hcl:"enabled,optional"`
	ListenAddress string `hcl:"listen_address,optional"`
	Port          int    `hcl:"port,optional"`
	HostKeyPath   string `hcl:"host_key_path,optional"`
	SharedSecret  string `hcl:"shared_secret,optional"`
}

// MetricsConfig configures the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled       bool   `hcl:"enabled,optional"`
	ListenAddress string `hcl:"listen_address,optional"`
	Port          int    `hcl:"port,optional"`
}

// Default returns the baseline configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		API:      &APIConfig{Enabled: true, ListenAddress: "127.0.0.1", Port: 8443},
		SSH:      &SSHConfig{Enabled: true, ListenAddress: "127.0.0.1", Port: 2323},
		Metrics:  &MetricsConfig{Enabled: true, ListenAddress: "127.0.0.1", Port: 9090},
	}
}

// Load decodes an HCL file at path into a Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, "failed to decode daemon config")
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.API == nil {
		cfg.API = &APIConfig{Enabled: true, ListenAddress: "127.0.0.1", Port: 8443}
	}
	if cfg.SSH == nil {
		cfg.SSH = &SSHConfig{Enabled: true, ListenAddress: "127.0.0.1", Port: 2323}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true, ListenAddress: "127.0.0.1", Port: 9090}
	}
}
