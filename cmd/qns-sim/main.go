// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command qns-sim replays the six scenarios (S1-S6) a qualified
// network decision must satisfy, driving an engine with a MockClock
// and the Evaluate/ExpireForTest synchronous test seam instead of a
// real platform, and prints the qualified-network list after each
// step for manual verification. Grounded on cmd/flywall-sim's
// replay-then-print shape, without the packet-capture machinery that
// has no analogue here.
package main

import (
	"flag"
	"fmt"
	"time"

	"grimm.is/qns/internal/ane"
	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/clock"
	"grimm.is/qns/internal/collab"
	"grimm.is/qns/internal/logging"
	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/restriction"
)

type scenario struct {
	name string
	run  func(p *printer)
}

func main() {
	only := flag.String("scenario", "", "run a single scenario by name (S1..S6); empty runs all")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "warn"})
	logging.SetDefault(logger)

	scenarios := []scenario{
		{"S1", runS1},
		{"S2", runS2},
		{"S3", runS3},
		{"S4", runS4},
		{"S5", runS5},
		{"S6", runS6},
	}

	for _, s := range scenarios {
		if *only != "" && *only != s.name {
			continue
		}
		p := &printer{name: s.name}
		p.header()
		s.run(p)
	}
}

// printer prints one labeled line per step of a scenario.
type printer struct{ name string }

func (p *printer) header() {
	fmt.Printf("=== %s ===\n", p.name)
}

func (p *printer) step(label string, a *ane.ANE) {
	info, ok := a.LastNotified()
	if !ok {
		fmt.Printf("%-28s -> (nothing published yet)\n", label)
		return
	}
	fmt.Printf("%-28s -> %v\n", label, info.AccessNetworks)
}

// newEngine wires a fresh ANE against bundle with a MockClock and
// two FakeQualityMonitors, returning the pieces a scenario needs to
// drive it synchronously.
func newEngine(bundle carrierconfig.RawBundle, session qnstypes.SessionType) (*ane.ANE, *clock.MockClock, *restriction.Manager, *collab.FakeQualityMonitor, *collab.FakeQualityMonitor) {
	store := carrierconfig.NewStore(0, logging.Default())
	store.Reload(bundle, carrierconfig.DefaultAssetDefaults())
	mgr := restriction.NewManager(store)
	mc := clock.NewMockClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	cellular := collab.NewFakeQualityMonitor()
	wifi := collab.NewFakeQualityMonitor()
	a := ane.NewANE(0, session, store, mgr, logging.Default(), ane.WithClock(mc), ane.WithQualityMonitors(cellular, wifi))
	return a, mc, mgr, cellular, wifi
}

func wifiGroup(available bool) policy.ThresholdGroup {
	op := qnstypes.OpAvailable
	if !available {
		op = qnstypes.OpUnavailable
	}
	return policy.ThresholdGroup{Members: []policy.Threshold{
		{AN: qnstypes.IWLAN, Measurement: qnstypes.AVAILABILITY, Operator: op, Value: 1},
	}}
}

func cellularGroup(available bool) policy.ThresholdGroup {
	op := qnstypes.OpAvailable
	if !available {
		op = qnstypes.OpUnavailable
	}
	return policy.ThresholdGroup{Members: []policy.Threshold{
		{AN: qnstypes.EUTRAN, Measurement: qnstypes.AVAILABILITY, Operator: op, Value: 1},
	}}
}

func imsWifiANSP() carrierconfig.ANSPSpec {
	return carrierconfig.ANSPSpec{
		Session:         qnstypes.SessionIMS,
		TargetTransport: qnstypes.WLAN,
		PreCondition:    policy.Plain(qnstypes.CallIdle, qnstypes.WfcWifiPreferred, qnstypes.CoverageHome),
		Groups:          []policy.ThresholdGroup{wifiGroup(true)},
	}
}

func emergencyWwanANSP() carrierconfig.ANSPSpec {
	return carrierconfig.ANSPSpec{
		Session:         qnstypes.SessionEmergency,
		TargetTransport: qnstypes.WWAN,
		PreCondition:    policy.Plain(qnstypes.CallEmergency, qnstypes.WfcDefault, qnstypes.CoverageHome),
		Groups:          []policy.ThresholdGroup{cellularGroup(true)},
	}
}

func baseBundle(anps ...carrierconfig.ANSPSpec) carrierconfig.RawBundle {
	return carrierconfig.RawBundle{
		ANSPs: anps,
		HandoverRules: []string{
			"source=EUTRAN|NGRAN, target=IWLAN, type=allowed",
			"source=IWLAN, target=EUTRAN|NGRAN, type=allowed",
		},
	}
}

// S1 Happy handover to IWLAN.
func runS1(p *printer) {
	a, _, _, _, wifi := newEngine(baseBundle(imsWifiANSP()), qnstypes.SessionIMS)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.AVAILABILITY, 1)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.RSSI, -60)
	a.Evaluate(ane.Event{Kind: ane.EventWfcSettingsChanged, UserSettings: collab.UserSettingsInfo{WfcModeHome: qnstypes.WfcWifiPreferred}})

	a.Evaluate(ane.Event{Kind: ane.EventTelephonyChanged, Telephony: collab.TelephonyInfo{
		CellularAvailable: true, DataNetworkType: qnstypes.EUTRAN, Coverage: qnstypes.CoverageHome,
	}})
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("wifi available, rssi -60", a)
}

// S2 Guard blocks bounce: a recent handover to WLAN guards WWAN, so a
// subsequent quality drop on Wi-Fi does not bounce the list back.
func runS2(p *printer) {
	bundle := baseBundle(imsWifiANSP())
	bundle.GuardTimer = carrierconfig.GuardTimerConfig{
		Enabled:  true,
		ValuesMs: map[qnstypes.Transport]map[qnstypes.CallType]int{qnstypes.WWAN: {qnstypes.CallIdle: 90_000}},
	}
	a, mc, mgr, _, wifi := newEngine(bundle, qnstypes.SessionIMS)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.AVAILABILITY, 1)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.RSSI, -60)
	a.Evaluate(ane.Event{Kind: ane.EventWfcSettingsChanged, UserSettings: collab.UserSettingsInfo{WfcModeHome: qnstypes.WfcWifiPreferred}})

	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("initial handover to iwlan", a)

	mgr.OnHandoverSuccess(qnstypes.WLAN, qnstypes.SessionIMS, qnstypes.CallIdle, mc.Now())
	mc.Advance(5 * time.Second)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.RSSI, -95)
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("wifi degrades, wwan guarded", a)
}

// S3 Emergency override: the emergency session's WWAN ANSP wins even
// though a Wi-Fi ANSP would otherwise match.
func runS3(p *printer) {
	a, _, _, cellular, wifi := newEngine(baseBundle(emergencyWwanANSP(), imsWifiANSP()), qnstypes.SessionEmergency)
	cellular.SetValue(qnstypes.EUTRAN, qnstypes.AVAILABILITY, 1)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.RSSI, -50)

	a.Evaluate(ane.Event{Kind: ane.EventCallTypeChanged, CallType: qnstypes.CallEmergency})
	a.Evaluate(ane.Event{Kind: ane.EventEmergencyPreferredTransportChanged, EmergencyPref: qnstypes.WWAN})
	a.Evaluate(ane.Event{Kind: ane.EventTelephonyChanged, Telephony: collab.TelephonyInfo{
		CellularAvailable: true, DataNetworkType: qnstypes.EUTRAN, Coverage: qnstypes.CoverageHome,
	}})
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("emergency preferred wwan", a)
}

// S4 Throttling defer: a throttling notification while data is active
// defers to disconnect before the restriction actually lands.
func runS4(p *printer) {
	a, mc, mgr, _, _ := newEngine(baseBundle(imsWifiANSP()), qnstypes.SessionIMS)

	mgr.Ledger.NotifyThrottling(true, mc.Now().Add(12*time.Second), qnstypes.WWAN, true, mc.Now())
	p.step("throttling notified while active", a)
	fmt.Printf("%-28s -> restricted=%v\n", "  wwan restricted?", mgr.Ledger.IsRestricted(qnstypes.WWAN))

	mc.Advance(5 * time.Second)
	mgr.Ledger.ApplyPendingThrottle(qnstypes.WWAN, mc.Now())
	a.ExpireForTest()
	fmt.Printf("%-28s -> restricted=%v\n", "  data disconnects 5s later", mgr.Ledger.IsRestricted(qnstypes.WWAN))
}

// S5 RTP low-quality -> IWLAN-in-call ban, lifted when the call ends.
func runS5(p *printer) {
	bundle := baseBundle(imsWifiANSP())
	bundle.MaxIwlanHoDuringCall = 2
	bundle.RTPLowQualityRestrictMs = map[qnstypes.Transport]int{qnstypes.WLAN: 30_000}
	a, mc, mgr, _, wifi := newEngine(bundle, qnstypes.SessionIMS)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.RSSI, -60)

	a.Evaluate(ane.Event{Kind: ane.EventCallTypeChanged, CallType: qnstypes.CallVoice})
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("in-call on wlan", a)

	for i := 0; i < 2; i++ {
		mgr.OnRtpLowQuality(qnstypes.WLAN, mc.Now())
	}
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("rtp low quality x2", a)

	mgr.OnCallEnd()
	a.Evaluate(ane.Event{Kind: ane.EventCallTypeChanged, CallType: qnstypes.CallIdle})
	p.step("call ends, restriction lifted", a)
}

// S6 Unreg-fallback cancelled once the cellular AN moves to one where
// IMS is disallowed for the session.
func runS6(p *printer) {
	bundle := baseBundle(imsWifiANSP())
	bundle.FallbackRulesUnreg = []string{"cause=REGISTRATION_ERROR,time=60000"}
	a, mc, mgr, _, wifi := newEngine(bundle, qnstypes.SessionIMS)
	wifi.SetValue(qnstypes.IWLAN, qnstypes.RSSI, -60)

	mgr.OnImsRegistrationChanged(qnstypes.ImsUnregistered, qnstypes.WLAN, "REGISTRATION_ERROR", qnstypes.WfcWifiPreferred, mc.Now())
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("fallback-to-wwan active", a)

	mgr.OnCellularANChangedImsDisallowed()
	a.Evaluate(ane.Event{Kind: ane.EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	p.step("cellular an disallows ims, restriction cleared", a)
}
