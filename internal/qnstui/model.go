// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package qnstui

import (
	"fmt"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/qns/internal/qnstypes"
)

// EngineSnapshot is one (slot, session) row's displayed state.
type EngineSnapshot struct {
	Slot              int
	Session           qnstypes.SessionType
	Published         bool
	AccessNetworks    []qnstypes.AccessNetwork
	RestrictedWwan    bool
	RestrictedWlan    bool
	LastTransitionAgo time.Duration
}

// Backend is the data source the dashboard polls; qnsd's daemon wires
// this to a LiveBackend over its running ANEs.
type Backend interface {
	Snapshots() []EngineSnapshot
}

type tickMsg time.Time

// Model is the qnstui root Bubbletea model.
type Model struct {
	Backend Backend

	Snapshots []EngineSnapshot
	Width     int
	Height    int
	Err       error
}

// NewModel builds a Model polling backend.
func NewModel(backend Backend) Model {
	return Model{Backend: backend}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return m.Backend.Snapshots()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case []EngineSnapshot:
		snaps := append([]EngineSnapshot{}, msg...)
		sort.Slice(snaps, func(i, j int) bool {
			if snaps[i].Slot != snaps[j].Slot {
				return snaps[i].Slot < snaps[j].Slot
			}
			return snaps[i].Session < snaps[j].Session
		})
		m.Snapshots = snaps
	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.Snapshots) == 0 {
		return StyleApp.Render(StyleSubtitle.Render("Waiting for engine snapshots..."))
	}

	var cards []string
	for _, s := range m.Snapshots {
		cards = append(cards, renderCard(s))
	}

	title := StyleTitle.Render("QUALIFIED NETWORK SERVICE    [q] Quit")
	body := lipgloss.JoinVertical(lipgloss.Left, cards...)
	return StyleApp.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func renderCard(s EngineSnapshot) string {
	header := fmt.Sprintf("slot %d · %s", s.Slot, s.Session)

	status := StyleStatusWarn.Render("no decision yet")
	if s.Published {
		if len(s.AccessNetworks) == 0 {
			status = StyleStatusBad.Render("no qualified network")
		} else {
			var pills []string
			for _, an := range s.AccessNetworks {
				pills = append(pills, StyleAccessNetwork.Render(an.String()))
			}
			status = lipgloss.JoinHorizontal(lipgloss.Top, pills...)
		}
	}

	restrictions := restrictionLine(s)

	return StyleCard.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render(header),
		status,
		restrictions,
	))
}

func restrictionLine(s EngineSnapshot) string {
	if !s.RestrictedWwan && !s.RestrictedWlan {
		return StyleSubtitle.Render("no active restrictions")
	}
	var parts []string
	if s.RestrictedWwan {
		parts = append(parts, "WWAN restricted")
	}
	if s.RestrictedWlan {
		parts = append(parts, "WLAN restricted")
	}
	return StyleStatusWarn.Render(fmt.Sprintf("%v", parts))
}
