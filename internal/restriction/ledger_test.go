// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package restriction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"grimm.is/qns/internal/qnstypes"
)

func TestAddDeadlineHonoured(t *testing.T) {
	// P2: present during [t_add, t_add+d), absent at/after t_add+d.
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLedger()
	l.Add(qnstypes.WWAN, qnstypes.Guarding, nil, 1000, start)

	assert.True(t, l.Has(qnstypes.WWAN, qnstypes.Guarding))

	almostExpired := start.Add(999 * time.Millisecond)
	expired := l.ExpireAt(almostExpired)
	assert.Empty(t, expired)
	assert.True(t, l.Has(qnstypes.WWAN, qnstypes.Guarding))

	atDeadline := start.Add(1000 * time.Millisecond)
	expired = l.ExpireAt(atDeadline)
	assert.Len(t, expired, 1)
	assert.False(t, l.Has(qnstypes.WWAN, qnstypes.Guarding))
}

func TestAddNeverShortens(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLedger()
	l.Add(qnstypes.WWAN, qnstypes.Guarding, nil, 5000, start)
	l.Add(qnstypes.WWAN, qnstypes.Guarding, nil, 1000, start.Add(time.Second))

	deadline, ok := l.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, start.Add(5*time.Second), deadline)
}

func TestAddUnionsReleaseMask(t *testing.T) {
	start := time.Now()
	l := NewLedger()
	l.Add(qnstypes.WLAN, qnstypes.FallbackToWwanImsRegiFail, []qnstypes.ReleaseEvent{qnstypes.EventImsRegistered}, 0, start)
	l.Add(qnstypes.WLAN, qnstypes.FallbackToWwanImsRegiFail, []qnstypes.ReleaseEvent{qnstypes.EventHomeCellularANNotAllowedForSession}, 0, start)

	l.ProcessReleaseEvent(qnstypes.WLAN, qnstypes.EventHomeCellularANNotAllowedForSession)
	assert.False(t, l.Has(qnstypes.WLAN, qnstypes.FallbackToWwanImsRegiFail))
}

func TestZeroDurationNoReleaseIsNoOp(t *testing.T) {
	l := NewLedger()
	l.Add(qnstypes.WWAN, qnstypes.Guarding, nil, 0, time.Now())
	assert.False(t, l.Has(qnstypes.WWAN, qnstypes.Guarding))
}

func TestProcessReleaseEventOnlyMatchingMask(t *testing.T) {
	// P7: after process_release_event(T, CALL_END), no restriction with
	// CALL_END in its mask remains.
	now := time.Now()
	l := NewLedger()
	l.Add(qnstypes.WLAN, qnstypes.RTPLowQuality, []qnstypes.ReleaseEvent{qnstypes.EventCallEnd}, 60000, now)
	l.Add(qnstypes.WLAN, qnstypes.Throttling, []qnstypes.ReleaseEvent{qnstypes.EventDisconnect}, 60000, now)

	l.ProcessReleaseEvent(qnstypes.WLAN, qnstypes.EventCallEnd)

	assert.False(t, l.Has(qnstypes.WLAN, qnstypes.RTPLowQuality))
	assert.True(t, l.Has(qnstypes.WLAN, qnstypes.Throttling))
}

func TestIsRestrictedExceptGuarding(t *testing.T) {
	now := time.Now()
	l := NewLedger()
	l.Add(qnstypes.WWAN, qnstypes.Guarding, nil, 60000, now)
	assert.True(t, l.IsRestricted(qnstypes.WWAN))
	assert.False(t, l.IsRestrictedExceptGuarding(qnstypes.WWAN))

	l.Add(qnstypes.WWAN, qnstypes.Throttling, []qnstypes.ReleaseEvent{qnstypes.EventDisconnect}, 60000, now)
	assert.True(t, l.IsRestrictedExceptGuarding(qnstypes.WWAN))
}

func TestAllowedOnSingleTransport(t *testing.T) {
	now := time.Now()
	l := NewLedger()
	l.Add(qnstypes.WLAN, qnstypes.RestrictIwlanInCall, []qnstypes.ReleaseEvent{qnstypes.EventCallEnd}, 0, now)
	assert.True(t, l.AllowedOnSingleTransport(qnstypes.WLAN))

	l.Add(qnstypes.WLAN, qnstypes.Guarding, nil, 60000, now)
	assert.False(t, l.AllowedOnSingleTransport(qnstypes.WLAN))
}

func TestNotifyThrottlingDefersWhileDataActive(t *testing.T) {
	// P5: notify_throttling(true, d, T) while active does not restrict
	// until disconnect; then remaining = max(0, d - (now - t_notify)).
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLedger()
	l.NotifyThrottling(true, start.Add(12*time.Second), qnstypes.WWAN, true, start)

	assert.False(t, l.Has(qnstypes.WWAN, qnstypes.Throttling))

	disconnectAt := start.Add(5 * time.Second)
	l.ApplyPendingThrottle(qnstypes.WWAN, disconnectAt)

	assert.True(t, l.Has(qnstypes.WWAN, qnstypes.Throttling))
	deadline, ok := l.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, start.Add(12*time.Second), deadline)
}

func TestNotifyThrottlingIgnoresPastDeadline(t *testing.T) {
	now := time.Now()
	l := NewLedger()
	l.NotifyThrottling(true, now.Add(-time.Second), qnstypes.WWAN, false, now)
	assert.False(t, l.Has(qnstypes.WWAN, qnstypes.Throttling))
}

func TestNextDeadlineAcrossTransports(t *testing.T) {
	now := time.Now()
	l := NewLedger()
	l.Add(qnstypes.WWAN, qnstypes.Guarding, nil, 5000, now)
	l.Add(qnstypes.WLAN, qnstypes.Throttling, []qnstypes.ReleaseEvent{qnstypes.EventDisconnect}, 2000, now)

	deadline, ok := l.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, now.Add(2*time.Second), deadline)
}
