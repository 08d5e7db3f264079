// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"fmt"
	"sync/atomic"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/qns/internal/anspmatch"
	"grimm.is/qns/internal/logging"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/validation"
)

// Store is the CarrierPolicyStore (C5): shared across every ANE on a
// slot. Reads are lock-free snapshot reads against an atomic pointer;
// Reload builds the new snapshot off-store and swaps it in, so a
// reader never observes a half-loaded config (P8).
type Store struct {
	slot    int
	logger  *logging.Logger
	current atomic.Pointer[compiled]
}

// NewStore creates an empty Store for the given slot, compiled from
// defaults only until the first Reload.
func NewStore(slot int, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{slot: slot, logger: logger.WithComponent("carrierconfig")}
	initial := compile(RawBundle{}, DefaultAssetDefaults())
	s.current.Store(&initial)
	return s
}

// ReloadResult reports what changed in a Reload call.
type ReloadResult struct {
	HandoverRulesChanged bool
	ThresholdsChanged    bool
	Diagnostics          []Diagnostic
}

// Reload atomically parses a new configuration and swaps it in. It
// never fails: malformed bundles degrade to documented defaults and
// per-rule diagnostics.
func (s *Store) Reload(raw RawBundle, defaults AssetDefaults) ReloadResult {
	next := compile(raw, defaults)
	prev := s.current.Load()

	result := ReloadResult{Diagnostics: next.diagnostics}
	if prev != nil {
		result.HandoverRulesChanged = !sameHandoverRules(prev.handoverRulesHome, next.handoverRulesHome) ||
			!sameHandoverRules(prev.handoverRulesRoaming, next.handoverRulesRoaming)
		result.ThresholdsChanged = !sameThresholds(prev.thresholds, next.thresholds)
		if result.HandoverRulesChanged || result.ThresholdsChanged {
			s.logDiff(prev, &next)
		}
	}

	s.current.Store(&next)
	for _, d := range next.diagnostics {
		s.logger.Warn("carrier config rule dropped", "slot", s.slot, "rule", validation.SanitizeString(d.Rule), "reason", d.Message)
	}
	return result
}

func (s *Store) logDiff(prev, next *compiled) {
	prevLines := rulesAsLines(prev)
	nextLines := rulesAsLines(next)
	diff := difflib.UnifiedDiff{
		A:        prevLines,
		B:        nextLines,
		FromFile: "previous",
		ToFile:   "reloaded",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		s.logger.Warn("carrier config reload diff failed", "slot", s.slot, "error", err)
		return
	}
	s.logger.Info("carrier config reload changed rules", "slot", s.slot, "diff", text)
}

func rulesAsLines(c *compiled) []string {
	var lines []string
	for _, r := range c.handoverRulesHome {
		lines = append(lines, "home: "+r.Raw)
	}
	for _, r := range c.handoverRulesRoaming {
		lines = append(lines, "roaming: "+r.Raw)
	}
	for k, v := range c.thresholds {
		lines = append(lines, fmt.Sprintf("threshold %v/%v/%v/%v = %+v", k.AN, k.CallType, k.Measurement, k.WfcPreference, v))
	}
	return lines
}

func sameHandoverRules(a, b []HandoverRule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Raw != b[i].Raw {
			return false
		}
	}
	return true
}

func sameThresholds(a, b map[thresholdKey]ThresholdTriplet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func (s *Store) snapshot() *compiled { return s.current.Load() }

// PolicyMap returns the ANSPMatcher's input for the current snapshot,
// built once per Reload.
func (s *Store) PolicyMap() anspmatch.PolicyMap {
	return anspmatch.NewPolicyMap(s.snapshot().anps)
}

// IsHandoverAllowed implements C5's is_handover_allowed: first rule
// whose (source, target, coverage, capability) matches wins; if none
// match, the unmatched default is false.
func (s *Store) IsHandoverAllowed(session qnstypes.SessionType, fromAN, toAN qnstypes.AccessNetwork, coverage qnstypes.Coverage) bool {
	c := s.snapshot()
	rules := c.handoverRulesHome
	if coverage == qnstypes.CoverageRoaming && len(c.handoverRulesRoaming) > 0 {
		rules = c.handoverRulesRoaming
	}
	for _, r := range rules {
		if r.Matches(fromAN, toAN, coverage, CapNone) {
			return r.Type == RuleAllowed
		}
	}
	_ = session // session is reserved for future per-session overrides; the matrix is currently slot-global.
	return false
}

// Threshold implements C5's threshold lookup with WFC-preference
// override: an exact (AN, callType, measurement, preference) match wins;
// otherwise the WfcDefault-keyed entry is used.
func (s *Store) Threshold(an qnstypes.AccessNetwork, callType qnstypes.CallType, kind qnstypes.MeasurementKind, pref qnstypes.WfcPreference) ThresholdTriplet {
	c := s.snapshot()
	if t, ok := c.thresholds[thresholdKey{AN: an, CallType: callType, Measurement: kind, WfcPreference: pref}]; ok {
		return t
	}
	if t, ok := c.thresholds[thresholdKey{AN: an, CallType: callType, Measurement: kind, WfcPreference: qnstypes.WfcDefault}]; ok {
		return t
	}
	return InvalidThreshold
}

// FallbackTime implements C5's fallback_time lookup; 0 means "no fallback".
func (s *Store) FallbackTime(cause string, pref qnstypes.WfcPreference, kind FallbackKind) int {
	c := s.snapshot()
	rules := c.fallbackUnreg
	if kind == FallbackHoRegFail {
		rules = c.fallbackHoFail
	}
	wifiLeaning := pref == qnstypes.WfcWifiOnly || pref == qnstypes.WfcWifiPreferred
	for _, r := range rules {
		if r.Matches(cause, wifiLeaning) {
			return r.TimeMs
		}
	}
	return 0
}

// FallbackKind selects which fallback table FallbackTime consults.
type FallbackKind int

const (
	FallbackUnreg FallbackKind = iota
	FallbackHoRegFail
)

// IsMMTelRequired implements C5's is_mmtel_required.
func (s *Store) IsMMTelRequired(coverage qnstypes.Coverage) bool {
	return s.snapshot().mmtelRequired[coverage]
}

// IsVoPSRequired reports whether the coverage mask requires VoPS.
func (s *Store) IsVoPSRequired(coverage qnstypes.Coverage) bool {
	return s.snapshot().vopsRequired[coverage]
}

// IsAccessNetworkAllowed implements C5's is_access_network_allowed.
// Absent entries default to allowed, since the matrix only lists
// exceptions in the documented default policy.
func (s *Store) IsAccessNetworkAllowed(session qnstypes.SessionType, an qnstypes.AccessNetwork) bool {
	c := s.snapshot()
	if allowed, ok := c.accessAllowed[accessAllowedKey{Session: session, AN: an}]; ok {
		return allowed
	}
	return true
}

// RatPreference implements C5's rat_preference, falling back to the
// asset default when the session has no explicit carrier entry.
func (s *Store) RatPreference(session qnstypes.SessionType) qnstypes.RatPreference {
	c := s.snapshot()
	if pref, ok := c.ratPreference[session]; ok {
		return pref
	}
	return c.defaults.RatPreference
}

// IsGuardTimerHysteresisOnPreferenceSupported implements C5's accessor of the same name.
func (s *Store) IsGuardTimerHysteresisOnPreferenceSupported() bool {
	return s.snapshot().guardTimer.HysteresisOnPreferenceSupp
}

// GuardTimer implements C5's guard_timer(transport, session, call_type); 0 disables.
func (s *Store) GuardTimer(transport qnstypes.Transport, _ qnstypes.SessionType, callType qnstypes.CallType) int {
	c := s.snapshot()
	if !c.guardTimer.Enabled {
		return 0
	}
	byCallType, ok := c.guardTimer.ValuesMs[transport]
	if !ok {
		return c.defaults.GuardTimerMs
	}
	if ms, ok := byCallType[callType]; ok {
		return ms
	}
	return c.defaults.GuardTimerMs
}

// RTPLowQualityRestrictMs returns the low-RTP-quality restriction
// duration configured for transport.
func (s *Store) RTPLowQualityRestrictMs(transport qnstypes.Transport) int {
	return s.snapshot().rtpLowQualityRestrictMs[transport]
}

// MaxIwlanHoDuringCall returns the configured bounce count before
// RESTRICT_IWLAN_IN_CALL is armed.
func (s *Store) MaxIwlanHoDuringCall() int {
	return s.snapshot().maxIwlanHoDuringCall
}

// InitialDataConnFallback returns the initial-PDN-fail fallback tuple.
func (s *Store) InitialDataConnFallback() InitialDataConnFallback {
	return s.snapshot().initialDataConnFallback
}

// CooldownOnPowerOnMs returns the non-preferred-transport cooldown for transport.
func (s *Store) CooldownOnPowerOnMs(transport qnstypes.Transport) int {
	return s.snapshot().cooldownOnPowerOnMs[transport]
}

// BlockIwlanInInternationalRoamWithoutWwan implements the §4.5.4 flag accessor.
func (s *Store) BlockIwlanInInternationalRoamWithoutWwan() bool {
	return s.snapshot().blockIwlanInInternationalRoamWithoutWwan
}

// AllowWFCOnAirplaneModeOn implements the §4.5.4 flag accessor.
func (s *Store) AllowWFCOnAirplaneModeOn() bool {
	return s.snapshot().allowWFCOnAirplaneModeOn
}

// InCallHoWlanToWwanWithoutVopsCondition implements the §4.5.2 flag accessor.
func (s *Store) InCallHoWlanToWwanWithoutVopsCondition() bool {
	return s.snapshot().inCallHoWlanToWwanWithoutVopsCondition
}

// ResolveCoverage implements C8's coverage() per §4.5.3: promote/demote
// the telephony reading using the configured domestic/international
// PLMN lists for this session.
func (s *Store) ResolveCoverage(telephonyCoverage qnstypes.Coverage, plmn string, isDomesticRoamingReading bool, session qnstypes.SessionType) qnstypes.Coverage {
	c := s.snapshot()
	cov := telephonyCoverage
	if c.checkInternationalRoaming[session] && cov == qnstypes.CoverageRoaming && c.domesticRoamingPLMNs[plmn] {
		cov = qnstypes.CoverageHome
	}
	if isDomesticRoamingReading && c.internationalRoamingPLMNs[plmn] {
		cov = qnstypes.CoverageRoaming
	}
	return cov
}
