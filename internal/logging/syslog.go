// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"io"
	"log/syslog"
)

// SyslogConfig describes a remote syslog target for the Logger's output.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	Facility syslog.Priority
}

// DefaultSyslogConfig returns syslog forwarding disabled, with the
// conventional defaults applied once a caller enables it.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "flywall",
		Facility: 1,
	}
}

// NewSyslogWriter dials a remote syslog daemon and returns an io.Writer
// suitable as a Logger's Output. Host is required; Port, Protocol, and
// Tag fall back to DefaultSyslogConfig's values when left zero.
func NewSyslogWriter(cfg SyslogConfig) (io.Writer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("logging: syslog host is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 514
	}
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = "udp"
	}
	tag := cfg.Tag
	if tag == "" {
		tag = "flywall"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	w, err := syslog.Dial(protocol, addr, cfg.Facility, tag)
	if err != nil {
		return nil, fmt.Errorf("logging: dial syslog %s://%s: %w", protocol, addr, err)
	}
	return w, nil
}
