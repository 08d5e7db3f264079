// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package restriction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/qnstypes"
)

func newTestManager(t *testing.T) (*Manager, *carrierconfig.Store) {
	t.Helper()
	store := carrierconfig.NewStore(0, nil)
	store.Reload(carrierconfig.RawBundle{
		GuardTimer: carrierconfig.GuardTimerConfig{
			Enabled: true,
			ValuesMs: map[qnstypes.Transport]map[qnstypes.CallType]int{
				qnstypes.WWAN: {qnstypes.CallIdle: 90000, qnstypes.CallVoice: 90000},
			},
		},
		RTPLowQualityRestrictMs: map[qnstypes.Transport]int{qnstypes.WLAN: 30000},
		MaxIwlanHoDuringCall:    2,
		FallbackRulesUnreg:      []string{"cause=370, time=20000"},
	}, carrierconfig.DefaultAssetDefaults())
	return NewManager(store), store
}

func TestHandoverSuccessGuardsOtherSide(t *testing.T) {
	// P4: after HANDOVER_SUCCESS to T, is_restricted(other(T), GUARDING)
	// is true until the guard timer expires or data disconnects.
	now := time.Now()
	m, _ := newTestManager(t)
	m.OnHandoverSuccess(qnstypes.WLAN, qnstypes.SessionIMS, qnstypes.CallIdle, now)

	assert.True(t, m.Ledger.Has(qnstypes.WWAN, qnstypes.Guarding))

	expired := m.Ledger.ExpireAt(now.Add(91 * time.Second))
	require.Len(t, expired, 1)
	assert.False(t, m.Ledger.Has(qnstypes.WWAN, qnstypes.Guarding))
}

func TestHandoverSuccessGuardReleasedOnDisconnect(t *testing.T) {
	now := time.Now()
	m, _ := newTestManager(t)
	m.OnHandoverSuccess(qnstypes.WLAN, qnstypes.SessionIMS, qnstypes.CallIdle, now)

	m.Ledger.ProcessReleaseEvent(qnstypes.WWAN, qnstypes.EventDisconnect)
	assert.False(t, m.Ledger.Has(qnstypes.WWAN, qnstypes.Guarding))
}

func TestRtpLowQualityArmsIwlanInCallBan(t *testing.T) {
	// S5: N = max-count RTP low-quality events on IWLAN bans IWLAN in-call.
	now := time.Now()
	m, _ := newTestManager(t)

	m.OnRtpLowQuality(qnstypes.WLAN, now)
	assert.False(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanInCall))

	m.OnRtpLowQuality(qnstypes.WLAN, now)
	assert.True(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanInCall))

	m.Ledger.ProcessReleaseEvent(qnstypes.WLAN, qnstypes.EventCallEnd)
	assert.False(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanInCall))
	assert.False(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.RTPLowQuality))
}

func TestImsUnregFallbackCancelledOnCellularANDisallowed(t *testing.T) {
	// S6: while FALLBACK_TO_WWAN_IMS_REGI_FAIL is active on WLAN,
	// cellular AN changes to one where IMS is not allowed; restriction clears.
	now := time.Now()
	m, _ := newTestManager(t)

	m.OnImsRegistrationChanged(qnstypes.ImsUnregistered, qnstypes.WLAN, "370", qnstypes.WfcWifiPreferred, now)
	require.True(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.FallbackToWwanImsRegiFail))

	m.OnCellularANChangedImsDisallowed()
	assert.False(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.FallbackToWwanImsRegiFail))
}

func TestCallTypeChangeRecomputesGuardDeadline(t *testing.T) {
	now := time.Now()
	m, _ := newTestManager(t)
	m.OnHandoverSuccess(qnstypes.WLAN, qnstypes.SessionIMS, qnstypes.CallIdle, now)

	m.OnCallTypeChanged(qnstypes.WWAN, qnstypes.SessionIMS, qnstypes.CallVoice, now.Add(time.Second))
	deadline, ok := m.Ledger.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Second).Add(90*time.Second), deadline)
}

func TestCSCallBansIwlanWhenImsDisallowedOnCellularAN(t *testing.T) {
	now := time.Now()
	m, _ := newTestManager(t)
	m.OnCSCallStarted(false, now)
	assert.True(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanCSCall))

	m.Ledger.ProcessReleaseEvent(qnstypes.WLAN, qnstypes.EventCallEnd)
	assert.False(t, m.Ledger.Has(qnstypes.WLAN, qnstypes.RestrictIwlanCSCall))
}

func TestNonPreferredTransportCooldown(t *testing.T) {
	now := time.Now()
	store := carrierconfig.NewStore(0, nil)
	store.Reload(carrierconfig.RawBundle{
		CooldownOnPowerOnMs: map[qnstypes.Transport]int{qnstypes.WLAN: 15000},
	}, carrierconfig.DefaultAssetDefaults())
	m := NewManager(store)

	m.OnNonPreferredTransportCooldown(qnstypes.WLAN, now)
	assert.True(t, m.Ledger.Has(qnstypes.WWAN, qnstypes.NonPreferredTransport))
}
