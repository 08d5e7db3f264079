// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ane

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"grimm.is/qns/internal/anspmatch"
	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/clock"
	"grimm.is/qns/internal/collab"
	"grimm.is/qns/internal/logging"
	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnsmetrics"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/resultchannel"
	"grimm.is/qns/internal/restriction"
)

// ANE is one AccessNetworkEvaluator instance (C8): one per (slot,
// session). It owns a single event-processing path; nothing here is
// safe to call from two goroutines at once except Post, Subscribe and
// Close, which only enqueue work or tear down channels.
type ANE struct {
	instanceID string

	slot    int
	session qnstypes.SessionType

	store          *carrierconfig.Store
	restrictionMgr *restriction.Manager
	result         *resultchannel.Channel

	cellular collab.QualityMonitor
	wifi     collab.QualityMonitor

	clk     clock.Clock
	logger  *logging.Logger
	metrics *qnsmetrics.Collector

	inbox   chan Event
	closeCh chan struct{}
	closed  bool

	state State
}

// Option configures an ANE at construction time.
type Option func(*ANE)

// WithClock overrides the production clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(a *ANE) { a.clk = c }
}

// WithMetrics attaches a qnsmetrics.Collector; without it, metrics calls are no-ops.
func WithMetrics(m *qnsmetrics.Collector) Option {
	return func(a *ANE) { a.metrics = m }
}

// WithQualityMonitors wires the cellular and Wi-Fi measurement sources.
func WithQualityMonitors(cellular, wifi collab.QualityMonitor) Option {
	return func(a *ANE) {
		a.cellular = cellular
		a.wifi = wifi
	}
}

// NewANE constructs an ANE for one (slot, session) pair. store may be
// shared with other ANE instances on the same slot; restrictionMgr
// belongs to this ANE alone (its Ledger is single-writer).
func NewANE(slot int, session qnstypes.SessionType, store *carrierconfig.Store, restrictionMgr *restriction.Manager, logger *logging.Logger, opts ...Option) *ANE {
	if logger == nil {
		logger = logging.Default()
	}
	id := uuid.New().String()
	a := &ANE{
		instanceID:     id,
		slot:           slot,
		session:        session,
		store:          store,
		restrictionMgr: restrictionMgr,
		result:         resultchannel.NewChannel(),
		clk:            clock.System,
		logger:         logger.WithComponent("ane").With("slot", slot, "session", string(session), "instance", id),
		inbox:          make(chan Event, 64),
		closeCh:        make(chan struct{}),
		state:          newState(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// InstanceID returns this ANE's correlation id, stable for the process lifetime.
func (a *ANE) InstanceID() string { return a.instanceID }

// Subscribe registers a new consumer of this ANE's qualified-network publications.
func (a *ANE) Subscribe() *resultchannel.Subscription { return a.result.Subscribe() }

// Unsubscribe removes a previously registered consumer.
func (a *ANE) Unsubscribe(sub *resultchannel.Subscription) { a.result.Unsubscribe(sub) }

// LastNotified returns the last published qualified-network list, if any.
func (a *ANE) LastNotified() (resultchannel.QualifiedNetworksInfo, bool) { return a.result.LastNotified() }

// Post enqueues an event for processing on the ANE's own goroutine. It
// blocks if the inbox is full, applying backpressure to producers
// rather than dropping an event.
func (a *ANE) Post(e Event) {
	select {
	case a.inbox <- e:
	case <-a.closeCh:
	}
}

// Close stops Run and releases the inbox. Safe to call once.
func (a *ANE) Close() {
	if a.closed {
		return
	}
	a.closed = true
	close(a.closeCh)
}

// Run is the production event loop: a single real timer, armed from
// the restriction ledger's next deadline, races against the inbox.
// It blocks until Close.
func (a *ANE) Run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	a.rearm(timer)

	for {
		select {
		case <-a.closeCh:
			return
		case ev := <-a.inbox:
			a.dispatch(ev)
			a.rearm(timer)
		case <-timer.C:
			a.expireRestrictions()
			a.rearm(timer)
		}
	}
}

// rearm reprograms timer from the ledger's current NextDeadline, or
// parks it an hour out when nothing is pending; a stray fire an hour
// later is harmless since expireRestrictions is idempotent.
func (a *ANE) rearm(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	deadline, ok := a.restrictionMgr.Ledger.NextDeadline()
	if !ok {
		timer.Reset(time.Hour)
		return
	}
	d := deadline.Sub(a.clk.Now())
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}

func (a *ANE) expireRestrictions() {
	expired := a.restrictionMgr.Ledger.ExpireAt(a.clk.Now())
	if len(expired) == 0 {
		return
	}
	for _, e := range expired {
		a.logger.Debug("restriction expired", "transport", e.Transport.String(), "kind", e.Kind.String())
		if a.metrics != nil {
			a.metrics.RestrictionRemove.WithLabelValues(fmtSlot(a.slot), e.Transport.String(), e.Kind.String()).Inc()
		}
	}
	a.evaluate()
}

// Evaluate drives a test-seam synchronous dispatch without the Run
// goroutine: it applies ev directly (same code path dispatch uses),
// letting tests advance a MockClock and assert on published results
// deterministically.
func (a *ANE) Evaluate(ev Event) {
	a.dispatch(ev)
}

// ExpireForTest runs the same deadline-expiry pass Run's timer branch
// performs, for tests driving a MockClock instead of a real timer.
func (a *ANE) ExpireForTest() {
	a.expireRestrictions()
}

func (a *ANE) dispatch(ev Event) {
	now := a.clk.Now()
	switch ev.Kind {
	case EventIwlanChanged:
		a.state.IwlanAvailable = ev.Iwlan.Available
	case EventTelephonyChanged:
		a.applyTelephony(ev.Telephony)
	case EventRestrictInfoChanged:
		// no state mutation; restriction changes are read live off the ledger.
	case EventCallTypeChanged:
		prev := a.state.CallType
		a.state.CallType = ev.CallType
		a.restrictionMgr.OnCallTypeChanged(a.currentTransport(), a.session, ev.CallType, now)
		if prev != qnstypes.CallIdle && ev.CallType == qnstypes.CallIdle {
			a.restrictionMgr.OnCallEnd()
			a.restrictionMgr.Ledger.ProcessReleaseEventAllTransports(qnstypes.EventCallEnd)
		}
	case EventDataConnectionChanged:
		a.applyDataConnection(ev.DataConn, now)
	case EventEmergencyPreferredTransportChanged:
		a.state.EmergencyPreferredTransport = ev.EmergencyPref
	case EventProvisioningChanged:
		a.state.ProvisioningSnapshot = ev.Provisioning
	case EventWfcTryConnectionStateChanged:
		// no state is kept for this event; it only triggers a re-evaluation.
	case EventImsRegistrationChanged:
		a.applyImsRegistration(ev.ImsEvent, now)
	case EventWfcSettingsChanged:
		a.applyUserSettings(ev.UserSettings)
	case EventCarrierConfigChanged:
		a.store.Reload(ev.CarrierConfig.Bundle, carrierconfig.DefaultAssetDefaults())
		a.state.CarrierID = ev.CarrierConfig.CarrierID
	}
	a.evaluate()
}

func (a *ANE) applyTelephony(info collab.TelephonyInfo) {
	a.state.CellularAvailable = info.CellularAvailable
	a.state.PLMN = info.PLMN
	a.state.TelephonyCoverage = info.Coverage
	a.state.IsDomesticRoamingReading = info.RoamingType == "DOMESTIC_ROAMING"
	a.state.AirplaneModeOn = info.AirplaneModeOn
	a.state.VopsNormal = info.VopsNormal
	a.state.VopsEmergency = info.VopsEmergency
}

func (a *ANE) applyUserSettings(s collab.UserSettingsInfo) {
	a.state.CrossSimEnabled = s.CrossSimEnabled
	a.state.WifiEnabled = s.WifiEnabled
	a.state.WfcEnabled = s.WfcPlatformEnabled
	if a.state.Coverage == qnstypes.CoverageRoaming {
		a.state.WfcPreference = s.WfcModeRoaming
	} else {
		a.state.WfcPreference = s.WfcModeHome
	}
}

func (a *ANE) applyImsRegistration(ev collab.ImsEvent, now time.Time) {
	if a.state.ImsRegisteredPerTransport == nil {
		a.state.ImsRegisteredPerTransport = map[qnstypes.Transport]bool{}
	}
	a.state.ImsRegisteredPerTransport[ev.Transport] = ev.State == qnstypes.ImsRegistered
	if ev.State == qnstypes.ImsRegistered {
		a.restrictionMgr.Ledger.ProcessReleaseEventAllTransports(qnstypes.EventImsRegistered)
		return
	}
	a.restrictionMgr.OnImsRegistrationChanged(ev.State, ev.Transport, ev.ReasonCode, a.state.WfcPreference, now)
}

func (a *ANE) applyDataConnection(info collab.DataConnectionInfo, now time.Time) {
	prevTransport := a.state.LastTransportType

	a.state.DataConnectionPhase = info.Phase
	a.state.LastTransportType = info.Transport
	a.state.LastAN = transportLastAN(info.Transport, a.state.LastAN)
	a.state.LastApnSetting = info.LastApnSetting

	switch info.Event {
	case qnstypes.DataConnected:
		a.restrictionMgr.OnDataConnected(info.Transport)
		a.restrictionMgr.Ledger.ApplyPendingThrottle(info.Transport, now)
	case qnstypes.DataDisconnected:
		a.restrictionMgr.Ledger.ProcessReleaseEvent(info.Transport, qnstypes.EventDisconnect)
		a.restrictionMgr.Ledger.ApplyPendingThrottle(info.Transport, now)
	case qnstypes.DataFailed:
		a.restrictionMgr.OnDataConnectionFailed(info.Transport, now)
	case qnstypes.DataHandoverStarted:
		a.restrictionMgr.OnHandoverStarted(prevTransport, now)
	case qnstypes.DataHandoverSuccess:
		a.restrictionMgr.Ledger.ProcessReleaseEvent(prevTransport, qnstypes.EventHandoverCompleteToOtherSide)
		a.restrictionMgr.OnHandoverSuccess(info.Transport, a.session, a.state.CallType, now)
		if a.metrics != nil {
			a.metrics.Handovers.WithLabelValues(fmtSlot(a.slot), info.Transport.String()).Inc()
		}
	case qnstypes.DataHandoverFailed:
		// handled by the guard placed at DataHandoverStarted expiring naturally.
	}
}

func transportLastAN(t qnstypes.Transport, fallback qnstypes.AccessNetwork) qnstypes.AccessNetwork {
	if t == qnstypes.WLAN {
		return qnstypes.IWLAN
	}
	if fallback == qnstypes.IWLAN {
		return qnstypes.ANUnknown
	}
	return fallback
}

func (a *ANE) currentTransport() qnstypes.Transport {
	return a.state.LastTransportType
}

func (a *ANE) currentPreCondition() policy.PreCondition {
	return policy.Plain(a.state.CallType, a.state.WfcPreference, a.state.Coverage)
}

func (a *ANE) qualitySource() policy.QualitySource {
	return combinedQualitySource{cellular: a.cellular, wifi: a.wifi}
}

// evaluate implements the per-event decision pass.
func (a *ANE) evaluate() {
	a.state.Coverage = a.store.ResolveCoverage(a.state.TelephonyCoverage, a.state.PLMN, a.state.IsDomesticRoamingReading, a.session)

	if a.metrics != nil {
		a.metrics.Evaluations.WithLabelValues(fmtSlot(a.slot), string(a.session)).Inc()
		a.updateActiveRestrictionGauges()
	}

	wwanAllowed := a.isAllowed(qnstypes.WWAN) && !a.isBlockedByRestriction(qnstypes.WWAN)
	wlanAllowed := a.isAllowed(qnstypes.WLAN) && !a.isBlockedByRestriction(qnstypes.WLAN)

	// An emergency call overrides ordinary ANSP matching: the
	// emergency-preferred transport wins outright, even if a Wi-Fi ANSP
	// would otherwise match on pre-condition and thresholds.
	if a.state.CallType == qnstypes.CallEmergency && a.state.EmergencyPreferredTransport != qnstypes.TransportInvalid {
		if a.state.EmergencyPreferredTransport == qnstypes.WWAN {
			wlanAllowed = false
		} else {
			wwanAllowed = false
		}
	}

	if !wwanAllowed && !wlanAllowed {
		a.publish(nil)
		return
	}

	pc := a.currentPreCondition()
	matched := (anspmatch.Matcher{}).Match(a.store.PolicyMap(), pc)

	sort.SliceStable(matched, func(i, j int) bool {
		return transportRank(matched[i].TargetTransport) < transportRank(matched[j].TargetTransport)
	})

	qs := a.qualitySource()
	var wwanANs, wlanANs []qnstypes.AccessNetwork
	seen := map[qnstypes.AccessNetwork]bool{}

	for _, p := range matched {
		if p.TargetTransport == qnstypes.WWAN && !wwanAllowed {
			continue
		}
		if p.TargetTransport == qnstypes.WLAN && !wlanAllowed {
			continue
		}
		if !p.SatisfiedByAnyThresholdGroup(qs) {
			continue
		}
		for _, an := range a.candidateANsFor(p.TargetTransport) {
			if seen[an] {
				continue
			}
			if !a.store.IsAccessNetworkAllowed(a.session, an) {
				continue
			}
			if !a.moveTransportTypeAllowed(an) {
				continue
			}
			if !a.vopsSatisfied(an) {
				continue
			}
			seen[an] = true
			if an == qnstypes.IWLAN {
				wlanANs = append(wlanANs, an)
			} else {
				wwanANs = append(wwanANs, an)
			}
		}
	}

	final := append(append([]qnstypes.AccessNetwork{}, wwanANs...), wlanANs...)
	a.publish(final)
}

// candidateANsFor lists the access networks a target transport can
// resolve to; WWAN resolves to State.LastAN (EUTRAN when that is
// unknown or IWLAN), WLAN always resolves to IWLAN.
func (a *ANE) candidateANsFor(t qnstypes.Transport) []qnstypes.AccessNetwork {
	if t == qnstypes.WLAN {
		return []qnstypes.AccessNetwork{qnstypes.IWLAN}
	}
	an := a.state.LastAN
	if an == qnstypes.ANUnknown || an == qnstypes.IWLAN {
		an = qnstypes.EUTRAN
	}
	return []qnstypes.AccessNetwork{an}
}

func transportRank(t qnstypes.Transport) int {
	if t == qnstypes.WLAN {
		return 0
	}
	return 1
}

// isBlockedByRestriction reports whether transport is unusable given
// the ledger state, honoring the single-transport allow-list when the
// other transport is itself unusable.
func (a *ANE) isBlockedByRestriction(transport qnstypes.Transport) bool {
	l := a.restrictionMgr.Ledger
	if !l.IsRestricted(transport) {
		return false
	}
	other := transport.Other()
	otherUnusable := !a.isAllowed(other) || l.IsRestrictedExceptGuarding(other)
	if otherUnusable && l.AllowedOnSingleTransport(transport) {
		return false
	}
	return true
}

func (a *ANE) publish(list []qnstypes.AccessNetwork) {
	info := resultchannel.QualifiedNetworksInfo{Slot: a.slot, Session: a.session, AccessNetworks: list}
	before, hadBefore := a.result.LastNotified()
	a.result.Publish(info)
	if a.metrics != nil && (!hadBefore || !before.Equal(info)) {
		a.metrics.QualifiedListFlip.WithLabelValues(fmtSlot(a.slot), string(a.session)).Inc()
	}
	a.state.LastNotifiedList = list
}

func (a *ANE) updateActiveRestrictionGauges() {
	for _, t := range []qnstypes.Transport{qnstypes.WWAN, qnstypes.WLAN} {
		count := 0
		for k := qnstypes.Guarding; k <= qnstypes.FallbackOnDataConnectionFail; k++ {
			if a.restrictionMgr.Ledger.Has(t, k) {
				count++
			}
		}
		a.metrics.ActiveRestrictions.WithLabelValues(fmtSlot(a.slot), t.String()).Set(float64(count))
	}
}

func fmtSlot(slot int) string {
	return strconv.Itoa(slot)
}
