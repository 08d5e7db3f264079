// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ane

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/clock"
	"grimm.is/qns/internal/collab"
	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/restriction"
)

func wifiGroup(available bool, extra ...policy.Threshold) policy.ThresholdGroup {
	op := qnstypes.OpAvailable
	if !available {
		op = qnstypes.OpUnavailable
	}
	members := append([]policy.Threshold{{AN: qnstypes.IWLAN, Measurement: qnstypes.AVAILABILITY, Operator: op, Value: 1}}, extra...)
	return policy.ThresholdGroup{Members: members}
}

func newTestANE(t *testing.T, bundle carrierconfig.RawBundle) (*ANE, *clock.MockClock, *fakeQuality, *fakeQuality) {
	t.Helper()
	return newTestANEForSession(t, qnstypes.SessionIMS, bundle)
}

func newTestANEForSession(t *testing.T, session qnstypes.SessionType, bundle carrierconfig.RawBundle) (*ANE, *clock.MockClock, *fakeQuality, *fakeQuality) {
	t.Helper()
	store := carrierconfig.NewStore(0, nil)
	store.Reload(bundle, carrierconfig.DefaultAssetDefaults())
	mgr := restriction.NewManager(store)
	mc := clock.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cellular := &fakeQuality{}
	wifi := &fakeQuality{}
	a := NewANE(0, session, store, mgr, nil, WithClock(mc), WithQualityMonitors(cellular, wifi))
	return a, mc, cellular, wifi
}

type fakeQuality struct {
	values map[qnstypes.MeasurementKind]int
	has    map[qnstypes.MeasurementKind]bool
}

func (f *fakeQuality) CurrentValue(_ qnstypes.AccessNetwork, kind qnstypes.MeasurementKind) (int, bool) {
	if f.has == nil {
		return 0, false
	}
	return f.values[kind], f.has[kind]
}

func (f *fakeQuality) UpdateThresholds(qnstypes.AccessNetwork, qnstypes.MeasurementKind, []int) {}

func (f *fakeQuality) set(kind qnstypes.MeasurementKind, v int) {
	if f.values == nil {
		f.values = map[qnstypes.MeasurementKind]int{}
		f.has = map[qnstypes.MeasurementKind]bool{}
	}
	f.values[kind] = v
	f.has[kind] = true
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

func imsWifiPolicy() carrierconfig.ANSPSpec {
	return carrierconfig.ANSPSpec{
		Session:         qnstypes.SessionIMS,
		TargetTransport: qnstypes.WLAN,
		PreCondition:    policy.Plain(qnstypes.CallIdle, qnstypes.WfcDefault, qnstypes.CoverageHome),
		Groups:          []policy.ThresholdGroup{wifiGroup(true)},
	}
}

func cellularPolicy() carrierconfig.ANSPSpec {
	return carrierconfig.ANSPSpec{
		Session:         qnstypes.SessionEmergency,
		TargetTransport: qnstypes.WWAN,
		PreCondition:    policy.Plain(qnstypes.CallEmergency, qnstypes.WfcDefault, qnstypes.CoverageHome),
		Groups: []policy.ThresholdGroup{{Members: []policy.Threshold{
			{AN: qnstypes.EUTRAN, Measurement: qnstypes.AVAILABILITY, Operator: qnstypes.OpAvailable, Value: 1},
		}}},
	}
}

// S1-style scenario: Wi-Fi becomes available and qualifies IWLAN.
func TestEvaluateQualifiesIwlanWhenWifiAvailable(t *testing.T) {
	a, _, _, wifi := newTestANE(t, baseBundle(imsWifiPolicy()))
	wifi.set(qnstypes.AVAILABILITY, 1)

	a.Evaluate(Event{Kind: EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})

	info, ok := a.result.LastNotified()
	require.True(t, ok)
	assert.Contains(t, info.AccessNetworks, qnstypes.IWLAN)
}

// P1: identical publications are not repeated.
func TestEvaluateDoesNotRepublishIdenticalList(t *testing.T) {
	a, _, _, wifi := newTestANE(t, baseBundle(imsWifiPolicy()))
	wifi.set(qnstypes.AVAILABILITY, 1)

	sub := a.Subscribe()
	a.Evaluate(Event{Kind: EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})
	a.Evaluate(Event{Kind: EventTelephonyChanged, Telephony: collab.TelephonyInfo{CellularAvailable: true}})

	select {
	case <-sub.C():
	default:
		t.Fatal("expected at least one publication")
	}
	select {
	case v := <-sub.C():
		t.Fatalf("unexpected second publication: %+v", v)
	default:
	}
}

// P4-style: a handover to WLAN guards WWAN for the configured duration.
func TestHandoverToWlanGuardsWwan(t *testing.T) {
	bundle := baseBundle(imsWifiPolicy())
	bundle.GuardTimer = carrierconfig.GuardTimerConfig{
		Enabled: true,
		ValuesMs: map[qnstypes.Transport]map[qnstypes.CallType]int{
			qnstypes.WWAN: {qnstypes.CallIdle: 5000},
		},
	}
	a, mc, _, wifi := newTestANE(t, bundle)
	wifi.set(qnstypes.AVAILABILITY, 1)

	a.Evaluate(Event{Kind: EventDataConnectionChanged, DataConn: collab.DataConnectionInfo{
		Event: qnstypes.DataHandoverSuccess, Phase: qnstypes.PhaseConnected, Transport: qnstypes.WLAN,
	}})

	assert.True(t, a.restrictionMgr.Ledger.IsRestricted(qnstypes.WWAN))

	mc.Advance(6 * time.Second)
	a.ExpireForTest()
	assert.False(t, a.restrictionMgr.Ledger.IsRestricted(qnstypes.WWAN))
}

// S5-style: repeated RTP low quality on IWLAN during a call arms
// RESTRICT_IWLAN_IN_CALL once the configured bounce count is reached.
func TestRepeatedRtpLowQualityArmsIwlanBan(t *testing.T) {
	bundle := baseBundle(imsWifiPolicy())
	bundle.MaxIwlanHoDuringCall = 2
	bundle.RTPLowQualityRestrictMs = map[qnstypes.Transport]int{qnstypes.WLAN: 1000}
	a, _, _, _ := newTestANE(t, bundle)

	a.Evaluate(Event{Kind: EventCallTypeChanged, CallType: qnstypes.CallVoice})
	a.restrictionMgr.OnRtpLowQuality(qnstypes.WLAN, a.clk.Now())
	assert.False(t, a.restrictionMgr.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanInCall))

	a.restrictionMgr.OnRtpLowQuality(qnstypes.WLAN, a.clk.Now())
	assert.True(t, a.restrictionMgr.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanInCall))
}

// When no ANSP is satisfied, nothing qualifies and the publication is empty.
func TestEvaluatePublishesEmptyListWhenNothingSatisfied(t *testing.T) {
	a, _, _, wifi := newTestANE(t, baseBundle(imsWifiPolicy()))
	wifi.set(qnstypes.AVAILABILITY, 0)

	a.Evaluate(Event{Kind: EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: false}})

	info, ok := a.result.LastNotified()
	require.True(t, ok)
	assert.Empty(t, info.AccessNetworks)
}

// Airplane mode blocks WLAN qualification unless the carrier allows
// WFC on airplane mode.
func TestAirplaneModeBlocksWlanWithoutOverride(t *testing.T) {
	a, _, _, wifi := newTestANE(t, baseBundle(imsWifiPolicy()))
	wifi.set(qnstypes.AVAILABILITY, 1)

	a.Evaluate(Event{Kind: EventTelephonyChanged, Telephony: collab.TelephonyInfo{AirplaneModeOn: true}})

	info, ok := a.result.LastNotified()
	require.True(t, ok)
	assert.NotContains(t, info.AccessNetworks, qnstypes.IWLAN)
}

// S3-style: an emergency call's preferred transport wins outright even
// though a Wi-Fi ANSP would otherwise be satisfied.
func TestEvaluateEmergencyPreferredTransportOverridesWifiAnsp(t *testing.T) {
	a, _, cellular, wifi := newTestANEForSession(t, qnstypes.SessionEmergency, baseBundle(cellularPolicy(), imsWifiPolicy()))
	cellular.set(qnstypes.AVAILABILITY, 1)
	wifi.set(qnstypes.AVAILABILITY, 1)

	a.Evaluate(Event{Kind: EventCallTypeChanged, CallType: qnstypes.CallEmergency})
	a.Evaluate(Event{Kind: EventEmergencyPreferredTransportChanged, EmergencyPref: qnstypes.WWAN})
	a.Evaluate(Event{Kind: EventTelephonyChanged, Telephony: collab.TelephonyInfo{
		CellularAvailable: true, Coverage: qnstypes.CoverageHome,
	}})
	a.Evaluate(Event{Kind: EventIwlanChanged, Iwlan: collab.IwlanInfo{Available: true}})

	info, ok := a.result.LastNotified()
	require.True(t, ok)
	assert.Equal(t, []qnstypes.AccessNetwork{qnstypes.EUTRAN}, info.AccessNetworks)
}

// C5 end-to-end: a handover matrix parsed from real carrier-config rule
// text actually gates moveTransportTypeAllowed, rather than the check
// being vacuously true because no rule ever parsed.
func TestMoveTransportTypeAllowedUsesLoadedHandoverMatrix(t *testing.T) {
	a, _, _, _ := newTestANE(t, baseBundle(imsWifiPolicy()))
	a.state.LastTransportType = qnstypes.WLAN
	a.state.DataConnectionPhase = qnstypes.PhaseConnected
	a.state.LastAN = qnstypes.IWLAN

	assert.True(t, a.moveTransportTypeAllowed(qnstypes.EUTRAN))
	assert.False(t, a.moveTransportTypeAllowed(qnstypes.UTRAN))
}
