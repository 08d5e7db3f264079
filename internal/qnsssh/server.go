// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package qnsssh serves the qnstui dashboard over SSH, so an operator
// can watch live access-network decisions from a remote terminal
// without exposing the admin HTTP API.
package qnsssh

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	wishlog "github.com/charmbracelet/wish/logging"

	"grimm.is/qns/internal/logging"
	"grimm.is/qns/internal/qnstui"
)

// Config holds the qnsssh listener configuration.
type Config struct {
	ListenAddress string
	Port          int
	HostKeyPath   string
	// SharedSecret, if non-empty, is the single password every user must
	// supply. Empty disables password auth and accepts any connection,
	// appropriate only on an operator's own loopback/management network.
	SharedSecret string
}

// Server wraps the Wish SSH server hosting the dashboard.
type Server struct {
	srv    *ssh.Server
	addr   string
	logger *logging.Logger

	activeSessions int32
}

// NewServer builds a Server that serves backend's live snapshots to
// every connecting session via qnstui.
func NewServer(cfg Config, backend qnstui.Backend, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("qnsssh")

	addr := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.Port)
	if addr == ":0" {
		addr = ":2323"
	}

	s := &Server{addr: addr, logger: logger}

	handler := func(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
		return qnstui.NewModel(backend), []tea.ProgramOption{tea.WithAltScreen()}
	}

	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(handler),
			wishlog.MiddlewareWithLogger(newAdapter(logger)),
			s.measureMiddleware(),
		),
	}
	if cfg.SharedSecret != "" {
		opts = append(opts, wish.WithPasswordAuth(func(_ ssh.Context, password string) bool {
			return password == cfg.SharedSecret
		}))
	}

	ws, err := wish.NewServer(opts...)
	if err != nil {
		return nil, err
	}
	s.srv = ws
	return s, nil
}

// Start runs the SSH server in the background; it does not block.
func (s *Server) Start() {
	s.logger.Info("starting ssh dashboard", "addr", s.addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			s.logger.Error("ssh server error", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.logger.Info("stopping ssh dashboard")
	return s.srv.Close()
}

func (s *Server) measureMiddleware() wish.Middleware {
	return func(sh ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			atomic.AddInt32(&s.activeSessions, 1)
			defer atomic.AddInt32(&s.activeSessions, -1)
			sh(sess)
		}
	}
}

// ActiveSessions returns the number of sessions currently attached to the dashboard.
func (s *Server) ActiveSessions() int32 {
	return atomic.LoadInt32(&s.activeSessions)
}

type adapter struct{ logger *logging.Logger }

func newAdapter(logger *logging.Logger) *adapter { return &adapter{logger: logger} }

func (a *adapter) Printf(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

func (a *adapter) Write(p []byte) (int, error) {
	a.logger.Debug(string(p))
	return len(p), nil
}
