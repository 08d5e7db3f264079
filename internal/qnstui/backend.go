// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package qnstui

import (
	"sort"

	"grimm.is/qns/internal/ane"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/restriction"
)

// EngineEntry pairs one running ANE with the restriction.Manager it
// shares a slot with, so the dashboard can show restriction state
// alongside the published qualified-network list.
type EngineEntry struct {
	Slot    int
	Session qnstypes.SessionType
	Engine  *ane.ANE
	Manager *restriction.Manager
}

// LiveBackend adapts a static set of running engines to the Backend
// interface Model polls.
type LiveBackend struct {
	entries []EngineEntry
}

// NewLiveBackend wraps entries for qnstui consumption.
func NewLiveBackend(entries []EngineEntry) *LiveBackend {
	sorted := append([]EngineEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Slot != sorted[j].Slot {
			return sorted[i].Slot < sorted[j].Slot
		}
		return sorted[i].Session < sorted[j].Session
	})
	return &LiveBackend{entries: sorted}
}

// Snapshots implements Backend.
func (b *LiveBackend) Snapshots() []EngineSnapshot {
	out := make([]EngineSnapshot, 0, len(b.entries))
	for _, e := range b.entries {
		info, published := e.Engine.LastNotified()
		out = append(out, EngineSnapshot{
			Slot:           e.Slot,
			Session:        e.Session,
			Published:      published,
			AccessNetworks: info.AccessNetworks,
			RestrictedWwan: e.Manager.Ledger.IsRestricted(qnstypes.WWAN),
			RestrictedWlan: e.Manager.Ledger.IsRestricted(qnstypes.WLAN),
		})
	}
	return out
}
