// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package collab

import (
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"grimm.is/qns/internal/logging"
)

// PingIwlanStatus is a concrete IwlanStatus that corroborates the
// platform's Wi-Fi-available broadcast with an ICMP probe of the
// default gateway, on the same ticker+stopCh shape as a route-monitoring
// service: a broadcast alone can lag a dead access
// point by several seconds, so a probe failure demotes Available
// to false even if the platform has not yet noticed.
type PingIwlanStatus struct {
	logger  *logging.Logger
	gateway string
	period  time.Duration

	mu            sync.RWMutex
	platformAvail IwlanInfo
	current       IwlanInfo
	subs          []chan IwlanInfo

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPingIwlanStatus creates a PingIwlanStatus probing gateway every period.
func NewPingIwlanStatus(logger *logging.Logger, gateway string, period time.Duration) *PingIwlanStatus {
	if logger == nil {
		logger = logging.Default()
	}
	return &PingIwlanStatus{
		logger:  logger.WithComponent("collab.iwlan_ping"),
		gateway: gateway,
		period:  period,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background probe loop.
func (p *PingIwlanStatus) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop halts the probe loop.
func (p *PingIwlanStatus) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

// SetPlatformAvailable feeds the platform's own Wi-Fi-available
// broadcast; the probe result can only demote it, never promote it,
// since the platform is authoritative on interface-up/down state.
func (p *PingIwlanStatus) SetPlatformAvailable(info IwlanInfo) {
	p.mu.Lock()
	p.platformAvail = info
	p.mu.Unlock()
	p.recompute()
}

func (p *PingIwlanStatus) Current() IwlanInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *PingIwlanStatus) Subscribe() <-chan IwlanInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan IwlanInfo, 8)
	p.subs = append(p.subs, ch)
	return ch
}

func (p *PingIwlanStatus) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.recompute()
		case <-p.stopCh:
			return
		}
	}
}

func (p *PingIwlanStatus) recompute() {
	p.mu.RLock()
	platform := p.platformAvail
	gateway := p.gateway
	p.mu.RUnlock()

	avail := platform.Available
	if avail && gateway != "" {
		if _, err := CheckPingFunc(gateway); err != nil {
			p.logger.Warn("iwlan gateway unreachable, demoting availability", "gateway", gateway, "error", err)
			avail = false
		}
	}

	next := IwlanInfo{Available: avail, InCrossSim: platform.InCrossSim}

	p.mu.Lock()
	changed := p.current != next
	p.current = next
	subs := append([]chan IwlanInfo{}, p.subs...)
	p.mu.Unlock()

	if !changed {
		return
	}
	for _, ch := range subs {
		ch <- next
	}
}

// CheckPingFunc is overridable in tests, a package-var seam matching
// other probe-based monitors in this codebase.
var CheckPingFunc = func(ip string) (time.Duration, error) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return 0, err
	}
	pinger.Count = 1
	pinger.Timeout = time.Second
	pinger.SetPrivileged(false)

	if err := pinger.Run(); err != nil {
		return 0, err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, errPacketLoss
	}
	return stats.AvgRtt, nil
}
