// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import "grimm.is/qns/internal/qnstypes"

// ANSP is an AccessNetworkSelectionPolicy (C4): a session type, the
// transport it advocates moving to when it fires, the PreCondition it
// is bound to, and a disjunction of ThresholdGroups.
type ANSP struct {
	Session         qnstypes.SessionType
	TargetTransport qnstypes.Transport
	PreCondition    PreCondition
	Groups          []ThresholdGroup
}

// SatisfiesPreCondition reports whether pc matches the ANSP's own
// PreCondition, honoring the emergency-matching relaxation: an ANSP
// bound to session EMERGENCY whose PreCondition carries CallType VOICE
// also matches an incoming CallType EMERGENCY. The relaxation never
// applies in the other direction (an IMS-session ANSP with CallType
// VOICE does not match an EMERGENCY call).
func (a ANSP) SatisfiesPreCondition(pc PreCondition) bool {
	if a.PreCondition.Equal(pc) {
		return true
	}
	if a.Session == qnstypes.SessionEmergency &&
		a.PreCondition.CallType == qnstypes.CallVoice &&
		pc.CallType == qnstypes.CallEmergency {
		relaxed := a.PreCondition
		relaxed.CallType = qnstypes.CallEmergency
		return relaxed.Equal(pc)
	}
	return false
}

// SatisfiedByAnyThresholdGroup reports whether at least one ThresholdGroup
// is satisfied. A nil QualitySource forces false.
func (a ANSP) SatisfiedByAnyThresholdGroup(qs QualitySource) bool {
	if qs == nil {
		return false
	}
	for _, g := range a.Groups {
		if g.Satisfied(qs) {
			return true
		}
	}
	return false
}

// UnmatchedThresholds returns, for the best group (the one with the
// fewest unsatisfied members, ties broken by group order), the list of
// its unsatisfied members. Used by the ANE to program quality-monitor
// edge alerts.
func (a ANSP) UnmatchedThresholds(qs QualitySource) []Threshold {
	var best []Threshold
	bestLen := -1
	for _, g := range a.Groups {
		unsat := g.UnsatisfiedMembers(qs)
		if bestLen == -1 || len(unsat) < bestLen {
			best = unsat
			bestLen = len(unsat)
		}
	}
	return best
}

// HasWifiThresholdWithoutCellularCondition reports whether any group
// satisfies the PostCondition helper.
func (a ANSP) HasWifiThresholdWithoutCellularCondition() bool {
	for _, g := range a.Groups {
		if g.HasWifiThresholdWithoutCellularCondition() {
			return true
		}
	}
	return false
}
