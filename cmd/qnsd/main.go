// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command qnsd runs the qualified-network-service decision engine as a
// standalone daemon: one AccessNetworkEvaluator per configured (slot,
// session) pair, fed by in-memory collaborator adapters, with the
// admin HTTP/websocket surface, the SSH dashboard, and a Prometheus
// /metrics endpoint all listening per the daemon's HCL configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/qns/internal/ane"
	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/collab"
	"grimm.is/qns/internal/config"
	"grimm.is/qns/internal/logging"
	"grimm.is/qns/internal/qnsapi"
	"grimm.is/qns/internal/qnsmetrics"
	"grimm.is/qns/internal/qnsssh"
	"grimm.is/qns/internal/qnstui"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/restriction"
)

func main() {
	configPath := flag.String("config", "", "Path to HCL daemon config file")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "qnsd: failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Component: "qnsd"})
	logging.SetDefault(logger)

	d, err := newDaemon(cfg, logger)
	if err != nil {
		logger.Error("failed to start daemon", "error", err)
		os.Exit(1)
	}
	d.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.Shutdown(ctx)
}

// engine bundles one running ANE with the collaborators and
// restriction ledger it was wired to, so shutdown can unwind it.
type engine struct {
	slot    int
	session qnstypes.SessionType
	ane     *ane.ANE
	mgr     *restriction.Manager
	telephony *collab.FakeTelephonyStatus
	iwlan     *collab.FakeIwlanStatus
	ims       *collab.FakeImsStatus
	dataConn  *collab.FakeDataConnectionStatus
	userSet   *collab.FakeUserSettings
	carrier   *collab.FakeCarrierConfigLoader
	ping      *collab.PingIwlanStatus
}

// daemon owns every running engine plus the admin HTTP, SSH, and
// metrics surfaces fed from them.
type daemon struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *qnsmetrics.Collector

	engines []*engine

	apiSrv *http.Server
	sshSrv *qnsssh.Server
}

func newDaemon(cfg *config.Config, logger *logging.Logger) (*daemon, error) {
	reg := prometheus.NewRegistry()
	collector := qnsmetrics.NewCollector(reg)

	registry := qnsapi.NewRegistry()
	var entries []qnstui.EngineEntry
	var engines []*engine

	for _, ec := range cfg.Engines {
		slot, err := ec.SlotNumber()
		if err != nil {
			return nil, err
		}
		session := qnstypes.SessionType(ec.Session)

		store := carrierconfig.NewStore(slot, logger)
		mgr := restriction.NewManager(store)

		cellular := collab.NewFakeQualityMonitor()
		wifi := collab.NewFakeQualityMonitor()

		a := ane.NewANE(slot, session, store, mgr, logger,
			ane.WithMetrics(collector),
			ane.WithQualityMonitors(cellular, wifi),
		)

		e := &engine{
			slot:      slot,
			session:   session,
			ane:       a,
			mgr:       mgr,
			telephony: collab.NewFakeTelephonyStatus(collab.TelephonyInfo{}),
			iwlan:     collab.NewFakeIwlanStatus(collab.IwlanInfo{}),
			ims:       collab.NewFakeImsStatus(),
			dataConn:  collab.NewFakeDataConnectionStatus(collab.DataConnectionInfo{}),
			userSet:   collab.NewFakeUserSettings(collab.UserSettingsInfo{}),
			carrier:   collab.NewFakeCarrierConfigLoader(),
		}

		if ec.IwlanPingGateway != "" {
			period := time.Duration(ec.IwlanPingPeriodSec) * time.Second
			if period <= 0 {
				period = 15 * time.Second
			}
			e.ping = collab.NewPingIwlanStatus(logger, ec.IwlanPingGateway, period)
		}

		if ec.ProvisioningPath != "" {
			if snapshot, err := collab.LoadProvisioningFixture(ec.ProvisioningPath); err != nil {
				logger.Warn("failed to load provisioning fixture", "path", ec.ProvisioningPath, "error", err)
			} else {
				a.Post(ane.Event{Kind: ane.EventProvisioningChanged, Provisioning: snapshot})
			}
		}

		registry.Register(qnsapi.EngineKey{Slot: slot, Session: session}, a)
		entries = append(entries, qnstui.EngineEntry{Slot: slot, Session: session, Engine: a, Manager: mgr})
		engines = append(engines, e)
	}

	d := &daemon{cfg: cfg, logger: logger, metrics: collector, engines: engines}

	if cfg.API != nil && cfg.API.Enabled {
		router := mux.NewRouter()
		apiServer := qnsapi.NewServer(qnsapi.ServerOptions{Registry: registry, Logger: logger})
		apiServer.RegisterRoutes(router)
		if cfg.Metrics != nil && cfg.Metrics.Enabled {
			router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		}
		d.apiSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.API.ListenAddress, cfg.API.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	if cfg.SSH != nil && cfg.SSH.Enabled {
		backend := qnstui.NewLiveBackend(entries)
		sshCfg := qnsssh.Config{
			ListenAddress: cfg.SSH.ListenAddress,
			Port:          cfg.SSH.Port,
			HostKeyPath:   cfg.SSH.HostKeyPath,
			SharedSecret:  cfg.SSH.SharedSecret,
		}
		sshSrv, err := qnsssh.NewServer(sshCfg, backend, logger)
		if err != nil {
			return nil, err
		}
		d.sshSrv = sshSrv
	}

	return d, nil
}

// Start launches every engine's event loop and the admin surfaces.
func (d *daemon) Start() {
	for _, e := range d.engines {
		go e.ane.Run()
		go forwardTelephony(e)
		go forwardIwlan(e)
		go forwardIms(e)
		go forwardDataConn(e)
		go forwardUserSettings(e)
		go forwardCarrierConfig(e)
		if e.ping != nil {
			e.ping.Start()
		}
		d.logger.Info("engine started", "slot", e.slot, "session", e.session)
	}

	if d.apiSrv != nil {
		d.logger.Info("starting admin api", "addr", d.apiSrv.Addr)
		go func() {
			if err := d.apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				d.logger.Error("admin api server error", "error", err)
			}
		}()
	}
	if d.sshSrv != nil {
		d.sshSrv.Start()
	}
}

// Shutdown stops every admin surface and engine, waiting up to ctx's deadline.
func (d *daemon) Shutdown(ctx context.Context) {
	if d.apiSrv != nil {
		if err := d.apiSrv.Shutdown(ctx); err != nil {
			d.logger.Error("admin api shutdown error", "error", err)
		}
	}
	if d.sshSrv != nil {
		if err := d.sshSrv.Stop(); err != nil {
			d.logger.Error("ssh server shutdown error", "error", err)
		}
	}
	for _, e := range d.engines {
		if e.ping != nil {
			e.ping.Stop()
		}
		e.ane.Close()
	}
}

func forwardTelephony(e *engine) {
	for info := range e.telephony.Subscribe() {
		e.ane.Post(ane.Event{Kind: ane.EventTelephonyChanged, Telephony: info})
	}
}

// forwardIwlan relays Wi-Fi availability into the engine. When a ping
// gateway is configured, the platform's fake broadcast only corroborates
// the probe (collab.PingIwlanStatus.SetPlatformAvailable); the probe's
// own, possibly-demoted, output is what actually reaches the ANE.
func forwardIwlan(e *engine) {
	if e.ping != nil {
		go func() {
			for info := range e.iwlan.Subscribe() {
				e.ping.SetPlatformAvailable(info)
			}
		}()
		for info := range e.ping.Subscribe() {
			e.ane.Post(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: info})
		}
		return
	}
	for info := range e.iwlan.Subscribe() {
		e.ane.Post(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: info})
	}
}

func forwardIms(e *engine) {
	for ev := range e.ims.Subscribe() {
		e.ane.Post(ane.Event{Kind: ane.EventImsRegistrationChanged, ImsEvent: ev})
	}
}

func forwardDataConn(e *engine) {
	for info := range e.dataConn.Subscribe() {
		e.ane.Post(ane.Event{Kind: ane.EventDataConnectionChanged, DataConn: info})
	}
}

func forwardUserSettings(e *engine) {
	for s := range e.userSet.Subscribe() {
		e.ane.Post(ane.Event{Kind: ane.EventWfcSettingsChanged, UserSettings: s})
	}
}

func forwardCarrierConfig(e *engine) {
	for update := range e.carrier.Subscribe() {
		e.ane.Post(ane.Event{Kind: ane.EventCarrierConfigChanged, CarrierConfig: update})
	}
}
