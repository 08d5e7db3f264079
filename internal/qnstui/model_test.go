// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package qnstui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"grimm.is/qns/internal/qnstypes"
)

type fakeBackend struct {
	snaps []EngineSnapshot
}

func (f fakeBackend) Snapshots() []EngineSnapshot { return f.snaps }

func TestModelRendersQualifiedNetworks(t *testing.T) {
	m := NewModel(fakeBackend{snaps: []EngineSnapshot{
		{Slot: 0, Session: qnstypes.SessionIMS, Published: true, AccessNetworks: []qnstypes.AccessNetwork{qnstypes.IWLAN}},
	}})

	updated, _ := m.Update(m.Backend.Snapshots())
	view := updated.View()

	assert.Contains(t, view, "slot 0")
	assert.Contains(t, view, "IWLAN")
}

func TestModelQuitsOnQ(t *testing.T) {
	m := NewModel(fakeBackend{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}

func TestModelShowsNoQualifiedNetworkWhenEmpty(t *testing.T) {
	m := NewModel(fakeBackend{snaps: []EngineSnapshot{
		{Slot: 1, Session: qnstypes.SessionEmergency, Published: true},
	}})
	updated, _ := m.Update(m.Backend.Snapshots())
	assert.Contains(t, updated.View(), "no qualified network")
}
