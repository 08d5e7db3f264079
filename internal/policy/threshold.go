// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import "grimm.is/qns/internal/qnstypes"

// QualitySource is the synchronous, non-blocking lookup a Threshold
// evaluates against. It is satisfied by a collab.QualityMonitor
// snapshot; a nil QualitySource must make every ThresholdGroup
// unsatisfied.
type QualitySource interface {
	// CurrentValue returns the last sampled value for (an, kind) and
	// whether a sample exists at all.
	CurrentValue(an qnstypes.AccessNetwork, kind qnstypes.MeasurementKind) (value int, ok bool)
}

// Threshold is an immutable predicate over one (access-network,
// measurement-kind) pair (C1).
type Threshold struct {
	AN              qnstypes.AccessNetwork
	Measurement     qnstypes.MeasurementKind
	Operator        qnstypes.ThresholdOperator
	Value           int
	BackhaulGraceMs int
}

// Satisfied evaluates the threshold against qs. A missing sample, or a
// nil QualitySource, is unsatisfied rather than an error.
func (t Threshold) Satisfied(qs QualitySource) bool {
	if qs == nil {
		return false
	}
	value, ok := qs.CurrentValue(t.AN, t.Measurement)
	if !ok {
		return false
	}
	switch t.Operator {
	case qnstypes.OpAvailable:
		return value != 0
	case qnstypes.OpUnavailable:
		return value == 0
	case qnstypes.OpGTE:
		return value >= t.Value
	case qnstypes.OpLTE:
		return value <= t.Value
	default:
		return false
	}
}

// ThresholdGroup is a non-empty conjunction of Thresholds (C2). The
// carrier-config loader drops an empty group from an ANSP at compile
// time; a zero-value ThresholdGroup here is never satisfied.
type ThresholdGroup struct {
	Members []Threshold
}

// NewThresholdGroup builds a group, returning an error if members is empty.
func NewThresholdGroup(members []Threshold) (ThresholdGroup, error) {
	if len(members) == 0 {
		return ThresholdGroup{}, errEmptyThresholdGroup
	}
	return ThresholdGroup{Members: members}, nil
}

// Satisfied reports whether every member threshold is satisfied.
func (g ThresholdGroup) Satisfied(qs QualitySource) bool {
	if len(g.Members) == 0 {
		return false
	}
	for _, m := range g.Members {
		if !m.Satisfied(qs) {
			return false
		}
	}
	return true
}

// UnsatisfiedMembers returns the members of g that are not currently satisfied.
func (g ThresholdGroup) UnsatisfiedMembers(qs QualitySource) []Threshold {
	var out []Threshold
	for _, m := range g.Members {
		if !m.Satisfied(qs) {
			out = append(out, m)
		}
	}
	return out
}

// HasWifiThresholdWithoutCellularCondition reports whether g contains an
// IWLAN threshold alongside a cellular-AN AVAILABILITY=UNAVAILABLE
// threshold PostCondition helper.
func (g ThresholdGroup) HasWifiThresholdWithoutCellularCondition() bool {
	hasWifi := false
	hasCellularUnavailable := false
	for _, m := range g.Members {
		if m.AN == qnstypes.IWLAN {
			hasWifi = true
		}
		if m.AN != qnstypes.IWLAN && m.Measurement == qnstypes.AVAILABILITY && m.Operator == qnstypes.OpUnavailable {
			hasCellularUnavailable = true
		}
	}
	return hasWifi && hasCellularUnavailable
}
