// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package anspmatch implements the ANSPMatcher (C7): given the ANE's
// cached PreCondition, it returns the ANSPs whose PreCondition matches.
package anspmatch

import "grimm.is/qns/internal/policy"

// PolicyMap is the matcher's input, built once per carrier-config
// reload and shared lock-free across every ANE on the slot.
type PolicyMap struct {
	all []policy.ANSP
}

// NewPolicyMap wraps a flat ANSP list. Carrier-config compilation
// produces this list; the matcher itself does no keying beyond a
// linear SatisfiesPreCondition scan, since the policy set per slot is
// small (tens of entries, not thousands).
func NewPolicyMap(anps []policy.ANSP) PolicyMap {
	return PolicyMap{all: anps}
}

// Matcher is the C7 ANSPMatcher.
type Matcher struct{}

// Match returns the subset of m whose PreCondition is satisfied by pc.
func (Matcher) Match(m PolicyMap, pc policy.PreCondition) []policy.ANSP {
	var out []policy.ANSP
	for _, a := range m.all {
		if a.SatisfiesPreCondition(pc) {
			out = append(out, a)
		}
	}
	return out
}
