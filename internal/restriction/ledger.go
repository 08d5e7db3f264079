// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package restriction implements the RestrictionLedger (C6): a
// per-transport set of active restrictions with independent release
// conditions and deadlines. The ledger itself owns no goroutine or
// real timer — timers are logical; the owning
// AccessNetworkEvaluator event loop asks NextDeadline for when to wake
// and calls ExpireAt on fire, keeping exactly one real timer per ANE.
package restriction

import (
	"time"

	"grimm.is/qns/internal/qnstypes"
)

// Entry is one active restriction on one transport.
type Entry struct {
	Kind     qnstypes.RestrictionKind
	Deadline time.Time // zero value means infinite (event-released only)
	Releases map[qnstypes.ReleaseEvent]bool
}

func (e Entry) hasFiniteDeadline() bool { return !e.Deadline.IsZero() }

// allowSingleTransportKinds lists the restriction kinds that still
// permit use of a transport when the *other* transport is itself
// unusable.
var allowSingleTransportKinds = map[qnstypes.RestrictionKind]bool{
	qnstypes.RestrictIwlanInCall:          true,
	qnstypes.FallbackToWwanImsRegiFail:    true,
	qnstypes.FallbackOnDataConnectionFail: true,
}

// pendingThrottle records a deferred notify_throttling deadline while a
// data connection is active on the target transport.
type pendingThrottle struct {
	deadline time.Time
	notifyAt time.Time
}

// Ledger is the C6 RestrictionLedger.
type Ledger struct {
	entries map[qnstypes.Transport]map[qnstypes.RestrictionKind]Entry
	pending map[qnstypes.Transport]pendingThrottle
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: map[qnstypes.Transport]map[qnstypes.RestrictionKind]Entry{
			qnstypes.WWAN: {},
			qnstypes.WLAN: {},
		},
		pending: map[qnstypes.Transport]pendingThrottle{},
	}
}

// Add upserts a restriction. durationMs = 0 means an infinite deadline,
// released only by an event in releases. If the kind is already
// present, the later of {existing deadline, now+duration} is kept
// (never shortens) and the releases mask is unioned. A zero-duration,
// zero-release call with no prior entry would be a permanent
// unreleasable restriction and is rejected as a no-op
// kind 6 (treated the same as a past deadline).
func (l *Ledger) Add(transport qnstypes.Transport, kind qnstypes.RestrictionKind, releases []qnstypes.ReleaseEvent, durationMs int, now time.Time) {
	if transport != qnstypes.WWAN && transport != qnstypes.WLAN {
		return
	}
	releaseMask := toReleaseMask(releases)

	var deadline time.Time // zero means infinite
	infinite := durationMs == 0
	if !infinite {
		deadline = now.Add(time.Duration(durationMs) * time.Millisecond)
	}

	byTransport := l.entries[transport]
	existing, had := byTransport[kind]
	if had {
		switch {
		case !existing.hasFiniteDeadline():
			// existing is already infinite; infinite is the latest
			// possible deadline, so it never shortens.
			infinite = true
		case infinite:
			// new call requests infinite; infinite is later than any
			// finite existing deadline.
		case existing.Deadline.After(deadline):
			deadline = existing.Deadline
		}
		for ev := range existing.Releases {
			releaseMask[ev] = true
		}
	}
	if infinite {
		deadline = time.Time{}
	}

	if infinite && len(releaseMask) == 0 {
		// An infinite deadline with no release event would be a
		// permanent, unreleasable restriction; treat as a no-op.
		return
	}

	byTransport[kind] = Entry{Kind: kind, Deadline: deadline, Releases: releaseMask}
}

// Release removes kind from transport unconditionally.
func (l *Ledger) Release(transport qnstypes.Transport, kind qnstypes.RestrictionKind) {
	delete(l.entries[transport], kind)
}

// ProcessReleaseEvent removes every entry on transport whose release
// mask contains event.
func (l *Ledger) ProcessReleaseEvent(transport qnstypes.Transport, event qnstypes.ReleaseEvent) {
	for kind, e := range l.entries[transport] {
		if e.Releases[event] {
			delete(l.entries[transport], kind)
		}
	}
}

// ProcessReleaseEventAllTransports applies event to both transports,
// matching events (CALL_END, AIRPLANE_ON, WFC_OFF, WIFI_OFF) that are
// not transport-scoped.
func (l *Ledger) ProcessReleaseEventAllTransports(event qnstypes.ReleaseEvent) {
	l.ProcessReleaseEvent(qnstypes.WWAN, event)
	l.ProcessReleaseEvent(qnstypes.WLAN, event)
}

// IsRestricted reports whether any entry is present on transport.
func (l *Ledger) IsRestricted(transport qnstypes.Transport) bool {
	return len(l.entries[transport]) > 0
}

// IsRestrictedExceptGuarding reports whether any non-GUARDING entry is present.
func (l *Ledger) IsRestrictedExceptGuarding(transport qnstypes.Transport) bool {
	for kind := range l.entries[transport] {
		if kind != qnstypes.Guarding {
			return true
		}
	}
	return false
}

// Has reports whether transport carries an entry of kind.
func (l *Ledger) Has(transport qnstypes.Transport, kind qnstypes.RestrictionKind) bool {
	_, ok := l.entries[transport][kind]
	return ok
}

// AllowedOnSingleTransport reports whether transport is still usable
// despite having restrictions, because every one of them is in the
// single-transport allow-list and the other transport is itself
// unusable (its caller is expected to have already checked that).
func (l *Ledger) AllowedOnSingleTransport(transport qnstypes.Transport) bool {
	for kind := range l.entries[transport] {
		if !allowSingleTransportKinds[kind] {
			return false
		}
	}
	return true
}

// NotifyThrottling implements the C6 throttling back-channel.
// If dataActive is true, the restriction is deferred: the
// deadline is recorded and only applied once the connection later
// disconnects (ApplyPendingThrottle), clamped to the remaining time at
// that point. A deadline at or before now is ignored outright.
func (l *Ledger) NotifyThrottling(on bool, deadline time.Time, transport qnstypes.Transport, dataActive bool, now time.Time) {
	if !on {
		l.Release(transport, qnstypes.Throttling)
		delete(l.pending, transport)
		return
	}
	if !deadline.After(now) {
		return
	}
	if dataActive {
		l.pending[transport] = pendingThrottle{deadline: deadline, notifyAt: now}
		return
	}
	ms := int(deadline.Sub(now) / time.Millisecond)
	l.Add(transport, qnstypes.Throttling, []qnstypes.ReleaseEvent{}, ms, now)
}

// ApplyPendingThrottle applies a deferred NotifyThrottling deadline
// once the data connection on transport disconnects. If the clamped
// remaining time is <= 0, no restriction is added.
func (l *Ledger) ApplyPendingThrottle(transport qnstypes.Transport, now time.Time) {
	p, ok := l.pending[transport]
	if !ok {
		return
	}
	delete(l.pending, transport)
	remaining := p.deadline.Sub(now)
	if remaining <= 0 {
		return
	}
	l.Add(transport, qnstypes.Throttling, nil, int(remaining/time.Millisecond), now)
}

// ExpireAt removes every entry whose finite deadline has passed and
// returns the (transport, kind) pairs that were removed, for the
// caller to translate into a restrict-info-changed inbox event.
func (l *Ledger) ExpireAt(now time.Time) []ExpiredRestriction {
	var expired []ExpiredRestriction
	for transport, byKind := range l.entries {
		for kind, e := range byKind {
			if e.hasFiniteDeadline() && !e.Deadline.After(now) {
				delete(byKind, kind)
				expired = append(expired, ExpiredRestriction{Transport: transport, Kind: kind})
			}
		}
	}
	return expired
}

// ExpiredRestriction names one restriction removed by ExpireAt.
type ExpiredRestriction struct {
	Transport qnstypes.Transport
	Kind      qnstypes.RestrictionKind
}

// NextDeadline returns the earliest finite deadline across all
// transports, for the caller to arm its single real timer.
func (l *Ledger) NextDeadline() (time.Time, bool) {
	var best time.Time
	found := false
	for _, byKind := range l.entries {
		for _, e := range byKind {
			if !e.hasFiniteDeadline() {
				continue
			}
			if !found || e.Deadline.Before(best) {
				best = e.Deadline
				found = true
			}
		}
	}
	return best, found
}

func toReleaseMask(releases []qnstypes.ReleaseEvent) map[qnstypes.ReleaseEvent]bool {
	mask := make(map[qnstypes.ReleaseEvent]bool, len(releases))
	for _, r := range releases {
		mask[r] = true
	}
	return mask
}
