// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package restriction

import (
	"time"

	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/qnstypes"
)

// Manager binds a Ledger to the carrier-config durations and the small
// amount of per-call/per-transport counter state the restriction rules
// describe ("track a per-transport fail counter", "increment a
// per-(pair-of-transports) fallback counter", ...). It is owned by one
// ANE instance, matching the ledger's own single-writer contract.
type Manager struct {
	Ledger *Ledger
	store  *carrierconfig.Store
	slot   int

	rtpLowQualityIwlanCount int
	dataFailCount           map[qnstypes.Transport]int
	dataFailFallbackCount   int
	dataFailArmed           bool
}

// NewManager creates a Manager for one ANE instance.
func NewManager(store *carrierconfig.Store) *Manager {
	return &Manager{
		Ledger:        NewLedger(),
		store:         store,
		dataFailCount: map[qnstypes.Transport]int{},
		dataFailArmed: true,
	}
}

// OnHandoverSuccess implements §4.4.1's first rule: guard the side the
// device just left.
func (m *Manager) OnHandoverSuccess(to qnstypes.Transport, session qnstypes.SessionType, callType qnstypes.CallType, now time.Time) {
	other := to.Other()
	ms := m.store.GuardTimer(other, session, callType)
	m.Ledger.Add(other, qnstypes.Guarding, []qnstypes.ReleaseEvent{
		qnstypes.EventDisconnect, qnstypes.EventHandoverCompleteToOtherSide,
	}, ms, now)
}

// GuardingInitMs is the fixed hold-down applied to the source
// transport the instant a handover begins, before the destination side
// has confirmed success.
const GuardingInitMs = 2000

// OnHandoverStarted implements §4.4.1's second rule: guard the
// transport being left, in case the handover fails and the device
// immediately wants to bounce back.
func (m *Manager) OnHandoverStarted(from qnstypes.Transport, now time.Time) {
	m.Ledger.Add(from, qnstypes.Guarding, []qnstypes.ReleaseEvent{
		qnstypes.EventHandoverCompleteToOtherSide, qnstypes.EventDisconnect,
	}, GuardingInitMs, now)
}

// OnCallTypeChanged recomputes the guard deadline on transport for the
// new call type: the new deadline is max(remaining, guard_timer(new
// call type)); a new value of 0 releases the guard immediately.
func (m *Manager) OnCallTypeChanged(transport qnstypes.Transport, session qnstypes.SessionType, newCallType qnstypes.CallType, now time.Time) {
	if !m.Ledger.Has(transport, qnstypes.Guarding) {
		return
	}
	ms := m.store.GuardTimer(transport, session, newCallType)
	if ms == 0 {
		m.Ledger.Release(transport, qnstypes.Guarding)
		return
	}
	m.Ledger.Add(transport, qnstypes.Guarding, nil, ms, now)
}

// OnRtpLowQuality implements §4.4.2.
func (m *Manager) OnRtpLowQuality(activeTransport qnstypes.Transport, now time.Time) {
	ms := m.store.RTPLowQualityRestrictMs(activeTransport)
	m.Ledger.Add(activeTransport, qnstypes.RTPLowQuality, []qnstypes.ReleaseEvent{qnstypes.EventCallEnd}, ms, now)

	if activeTransport == qnstypes.WLAN {
		m.rtpLowQualityIwlanCount++
		if m.rtpLowQualityIwlanCount >= m.store.MaxIwlanHoDuringCall() {
			m.Ledger.Add(qnstypes.WLAN, qnstypes.RestrictIwlanInCall, []qnstypes.ReleaseEvent{qnstypes.EventCallEnd}, 0, now)
		}
	}
}

// OnCallEnd resets the per-call RTP-low-quality bounce counter; the
// ledger's own CALL_END release handles clearing the restrictions
// themselves.
func (m *Manager) OnCallEnd() {
	m.rtpLowQualityIwlanCount = 0
}

// OnDataConnectionFailed implements §4.4.3's counter/timer tracking.
func (m *Manager) OnDataConnectionFailed(transport qnstypes.Transport, now time.Time) {
	cfg := m.store.InitialDataConnFallback()
	if !cfg.Enabled || !m.dataFailArmed {
		return
	}

	m.dataFailCount[transport]++

	crossed := false
	if cfg.RetryCount > 0 {
		crossed = m.dataFailCount[transport] >= cfg.RetryCount
	} else {
		// RetryCount == 0: arm a timer instead. Each failure resets it by
		// re-adding with the full retry time; the ledger's never-shortens
		// rule only protects against accidental shrink, so we Release
		// first to let the new timer replace the old one outright.
		m.Ledger.Release(transport, qnstypes.FallbackOnDataConnectionFail)
		m.Ledger.Add(transport, qnstypes.FallbackOnDataConnectionFail, fallbackReleases(), cfg.RetryTimeMs, now)
		return
	}

	if crossed {
		m.Ledger.Add(transport, qnstypes.FallbackOnDataConnectionFail, fallbackReleases(), cfg.GuardTimeMs, now)
		m.dataFailFallbackCount++
		if m.dataFailFallbackCount >= cfg.MaxFallbacks {
			m.dataFailArmed = false
		}
	}
}

func fallbackReleases() []qnstypes.ReleaseEvent {
	return []qnstypes.ReleaseEvent{
		qnstypes.EventDataConnected, qnstypes.EventAirplaneOn, qnstypes.EventWfcOff, qnstypes.EventWifiOff,
		qnstypes.EventHomeCellularANNotAllowedForSession,
	}
}

// OnDataConnected implements the successful-reconnect clear in §4.4.3.
func (m *Manager) OnDataConnected(transport qnstypes.Transport) {
	m.dataFailCount[transport] = 0
	m.dataFailFallbackCount = 0
	m.dataFailArmed = true
	m.Ledger.ProcessReleaseEvent(qnstypes.WWAN, qnstypes.EventDataConnected)
	m.Ledger.ProcessReleaseEvent(qnstypes.WLAN, qnstypes.EventDataConnected)
}

// OnCellularANChangedImsDisallowed cancels the initial-PDN-fail
// fallback when the cellular AN moves somewhere IMS is not allowed for
// this session (also exercised by the unreg-fallback restriction scenario).
func (m *Manager) OnCellularANChangedImsDisallowed() {
	m.Ledger.ProcessReleaseEventAllTransports(qnstypes.EventHomeCellularANNotAllowedForSession)
}

// OnImsRegistrationChanged implements §4.4.4.
func (m *Manager) OnImsRegistrationChanged(state qnstypes.ImsRegState, transport qnstypes.Transport, reasonCode string, pref qnstypes.WfcPreference, now time.Time) {
	releases := []qnstypes.ReleaseEvent{qnstypes.EventImsRegistered, qnstypes.EventHomeCellularANNotAllowedForSession}
	switch state {
	case qnstypes.ImsUnregistered:
		ms := m.store.FallbackTime(reasonCode, pref, carrierconfig.FallbackUnreg)
		if ms > 0 {
			m.Ledger.Add(qnstypes.WLAN, qnstypes.FallbackToWwanImsRegiFail, releases, ms, now)
		}
	case qnstypes.ImsAccessNetworkChangeFailed:
		ms := m.store.FallbackTime(reasonCode, pref, carrierconfig.FallbackHoRegFail)
		if ms > 0 {
			m.Ledger.Add(transport, qnstypes.FallbackToWwanImsRegiFail, releases, ms, now)
		}
	}
}

// OnCSCallStarted implements the first rule of §4.4.5: an off-hook CS
// call while cellular is on a non-IMS-capable AN bans IWLAN.
func (m *Manager) OnCSCallStarted(imsAllowedOnCellularAN bool, now time.Time) {
	if imsAllowedOnCellularAN {
		return
	}
	m.Ledger.Add(qnstypes.WLAN, qnstypes.RestrictIwlanCSCall, []qnstypes.ReleaseEvent{qnstypes.EventCallEnd}, 0, now)
}

// OnSRVCCHandoverStarted implements the SRVCC half of §4.4.5.
func (m *Manager) OnSRVCCHandoverStarted(now time.Time) {
	m.Ledger.Add(qnstypes.WLAN, qnstypes.RestrictIwlanCSCall, []qnstypes.ReleaseEvent{qnstypes.EventCallEnd}, 0, now)
}

// OnSRVCCHandoverFailed releases the restriction the started-handover
// arm imposed, allowing fallback back to IMS over Wi-Fi.
func (m *Manager) OnSRVCCHandoverFailed() {
	m.Ledger.Release(qnstypes.WLAN, qnstypes.RestrictIwlanCSCall)
}

// OnNonPreferredTransportCooldown implements §4.4.6.
func (m *Manager) OnNonPreferredTransportCooldown(preferred qnstypes.Transport, now time.Time) {
	other := preferred.Other()
	ms := m.store.CooldownOnPowerOnMs(preferred)
	if ms <= 0 {
		return
	}
	m.Ledger.Add(other, qnstypes.NonPreferredTransport, []qnstypes.ReleaseEvent{qnstypes.EventDataConnected}, ms, now)
}
