// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package carrierconfig implements the CarrierPolicyStore (C5): the
// parsed carrier rule set (handover allow/deny matrix, VoPS/MMTEL
// requirements, threshold tables, fallback tables, rat preference,
// guard timers, ...) and its reload semantics. The compiled snapshot is
// built off-store and swapped in atomically.
package carrierconfig

import "grimm.is/qns/internal/qnstypes"

// Capability is a bitmask of handover-rule capability tokens.
type Capability uint32

const (
	CapNone  Capability = 0
	CapVoPS  Capability = 1 << iota
	CapMMTel
	CapCrossSim
)

// HandoverRuleType is the allowed/disallowed verdict a matching rule carries.
type HandoverRuleType int

const (
	RuleDisallowed HandoverRuleType = iota
	RuleAllowed
)

// HandoverRule is one row of the handover allow/deny matrix (text
// format: "source=<AN>[|<AN>...], target=<AN>[|<AN>...],
// [roaming=true|false,] type=<allowed|disallowed>, capabilities=<CAP>[|<CAP>...]").
type HandoverRule struct {
	Sources      []qnstypes.AccessNetwork
	Targets      []qnstypes.AccessNetwork
	RoamingOnly  *bool // nil matches either coverage
	Type         HandoverRuleType
	Capabilities Capability
	Raw          string
}

func (r HandoverRule) matchesAN(list []qnstypes.AccessNetwork, an qnstypes.AccessNetwork) bool {
	for _, v := range list {
		if v == an {
			return true
		}
	}
	return false
}

// Matches reports whether r governs the (from, to, coverage) transition.
// Capability matching is satisfied whenever r.Capabilities is a subset
// of have (a rule that requires no capabilities always matches).
func (r HandoverRule) Matches(from, to qnstypes.AccessNetwork, coverage qnstypes.Coverage, have Capability) bool {
	if !r.matchesAN(r.Sources, from) || !r.matchesAN(r.Targets, to) {
		return false
	}
	if r.RoamingOnly != nil {
		isRoaming := coverage == qnstypes.CoverageRoaming
		if *r.RoamingOnly != isRoaming {
			return false
		}
	}
	return r.Capabilities&^have == 0
}

// FallbackPreference restricts a FallbackRule to one side, or both when empty.
type FallbackPreference int

const (
	FallbackAny FallbackPreference = iota
	FallbackCell
	FallbackWifi
)

// FallbackRule is one row of the unreg / ho-reg-fail fallback tables
// (text format: "cause=<code>[~<code>][|<code>...],
// time=<ms>[, preference=<cell|wifi>]").
type FallbackRule struct {
	CauseCodes []string
	TimeMs     int
	Preference FallbackPreference
	Raw        string
}

// Matches reports whether rule applies to the given cause code and the
// current WFC preference bucket (cellular-leaning vs wifi-leaning).
func (f FallbackRule) Matches(cause string, wifiLeaning bool) bool {
	found := false
	for _, c := range f.CauseCodes {
		if c == cause || c == "*" {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	switch f.Preference {
	case FallbackCell:
		return !wifiLeaning
	case FallbackWifi:
		return wifiLeaning
	default:
		return true
	}
}

// ThresholdTriplet is the carrier-configured {good, bad, worst} trio for
// one (AN, call-type, measurement-kind) combination. Valid=false (as in
// InvalidThreshold) marks "not applicable".
type ThresholdTriplet struct {
	Good, Bad, Worst int
	Valid            bool
}

// InvalidThreshold is the sentinel triplet returned for unconfigured keys.
var InvalidThreshold = ThresholdTriplet{Valid: false}

type thresholdKey struct {
	AN            qnstypes.AccessNetwork
	CallType      qnstypes.CallType
	Measurement   qnstypes.MeasurementKind
	WfcPreference qnstypes.WfcPreference
}

type handoverAllowKey struct {
	Session  qnstypes.SessionType
	From, To qnstypes.AccessNetwork
	Coverage qnstypes.Coverage
}

type accessAllowedKey struct {
	Session qnstypes.SessionType
	AN      qnstypes.AccessNetwork
}

// GuardTimerConfig is the per-transport, per-call-type guard hysteresis table.
type GuardTimerConfig struct {
	Enabled                    bool
	HysteresisOnPreferenceSupp bool
	// ValuesMs[transport][callType] -> ms, 0 disables.
	ValuesMs map[qnstypes.Transport]map[qnstypes.CallType]int
}

// InitialDataConnFallback is the §3 "initial-data-connection-failure
// fallback tuple" — {enable, max-count, retry-timer, guard-timer}.
type InitialDataConnFallback struct {
	Enabled       bool
	RetryCount    int
	RetryTimeMs   int
	MaxFallbacks  int
	GuardTimeMs   int
}
