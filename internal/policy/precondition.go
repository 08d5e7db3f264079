// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package policy implements the ANSP evaluation trio: Threshold (C1),
// ThresholdGroup (C2), PreCondition (C3), and AccessNetworkSelectionPolicy
// (C4). None of these types hold mutable state; policies are rebuilt
// wholesale on every carrier-config reload and swapped in atomically by
// internal/carrierconfig.
package policy

import "grimm.is/qns/internal/qnstypes"

// PreCondition is a tagged variant: a Plain tuple of
// (call-type, wfc-preference, coverage), optionally a Guarded variant
// that additionally carries a guarding direction. Equality is
// structural; Guarded only ever equals another Guarded precondition
// with the same direction.
type PreCondition struct {
	CallType      qnstypes.CallType
	WfcPreference qnstypes.WfcPreference
	Coverage      qnstypes.Coverage
	Guarded       bool
	Direction     qnstypes.GuardDirection
}

// Plain builds an unguarded PreCondition.
func Plain(ct qnstypes.CallType, pref qnstypes.WfcPreference, cov qnstypes.Coverage) PreCondition {
	return PreCondition{CallType: ct, WfcPreference: pref, Coverage: cov}
}

// Guarding builds a guarded PreCondition discriminated by direction.
func Guarding(ct qnstypes.CallType, pref qnstypes.WfcPreference, cov qnstypes.Coverage, dir qnstypes.GuardDirection) PreCondition {
	return PreCondition{CallType: ct, WfcPreference: pref, Coverage: cov, Guarded: true, Direction: dir}
}

// Equal reports structural equality, honoring the emergency-matching
// relaxation: a PreCondition bound to session EMERGENCY with CallType
// VOICE also matches an incoming CallType EMERGENCY. The relaxation is
// asymmetric — it only applies when evaluating an EMERGENCY-session
// ANSP against an incoming EMERGENCY call, never the reverse, and is
// applied by the caller (ANSP.SatisfiesPreCondition), not here, since
// this type has no notion of session.
func (p PreCondition) Equal(o PreCondition) bool {
	if p.Guarded != o.Guarded {
		return false
	}
	if p.Guarded && p.Direction != o.Direction {
		return false
	}
	return p.CallType == o.CallType && p.WfcPreference == o.WfcPreference && p.Coverage == o.Coverage
}
