// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnstypes"
)

// ANSPSpec is the bundle's own representation of an
// AccessNetworkSelectionPolicy row (C4): the policy map the matcher
// consumes is itself part of "the parsed carrier rule set",
// so ANSPs are authored alongside the handover/threshold tables rather
// than synthesized from them at evaluate() time.
type ANSPSpec struct {
	Session         qnstypes.SessionType
	TargetTransport qnstypes.Transport
	PreCondition    policy.PreCondition
	Groups          []policy.ThresholdGroup
}

// ThresholdRaw is one row of the raw per-AN/call-type/measurement
// threshold table, keyed by an optional WFC-preference override.
type ThresholdRaw struct {
	AN            qnstypes.AccessNetwork
	CallType      qnstypes.CallType
	Measurement   qnstypes.MeasurementKind
	WfcPreference qnstypes.WfcPreference // zero value (WfcDefault) means "applies to all preferences"
	Triplet       ThresholdTriplet
}

// RawBundle is the unparsed carrier-config bundle as delivered by
// collab.CarrierConfigLoader: semantic key/value groups, matching the
// documented configuration-keys table. Provisioning values
// (ProvisioningSnapshot) are not merged into this shape: nothing in the
// repository combines them with a RawBundle before Reload.
type RawBundle struct {
	CarrierID int

	HandoverRules         []string
	HandoverRulesRoaming  []string
	FallbackRulesUnreg    []string
	FallbackRulesHoFail   []string

	VopsRequiredCoverage  []qnstypes.Coverage
	MmtelRequiredCoverage []qnstypes.Coverage

	RatPreference map[qnstypes.SessionType]qnstypes.RatPreference

	AccessAllowed []struct {
		Session qnstypes.SessionType
		AN      qnstypes.AccessNetwork
		Allowed bool
	}

	Thresholds []ThresholdRaw

	ANSPs []ANSPSpec

	GuardTimer GuardTimerConfig

	RTPLowQualityRestrictMs map[qnstypes.Transport]int
	MaxIwlanHoDuringCall    int

	InternationalRoamingPLMNs []string
	DomesticRoamingPLMNs      []string
	CheckInternationalRoaming map[qnstypes.SessionType]bool

	BlockIwlanInInternationalRoamWithoutWwan bool
	AllowWFCOnAirplaneModeOn                 bool
	InCallHoWlanToWwanWithoutVopsCondition   bool

	InitialDataConnFallback InitialDataConnFallback

	CooldownOnPowerOnMs map[qnstypes.Transport]int
}

// AssetDefaults supplies the documented fallback values applied when
// RawBundle omits a key entirely: absent keys yield documented defaults.
type AssetDefaults struct {
	RatPreference qnstypes.RatPreference
	GuardTimerMs  int
}

// DefaultAssetDefaults returns the conservative, maximally-compatible
// defaults: no rat-preference restriction and a short guard timer.
func DefaultAssetDefaults() AssetDefaults {
	return AssetDefaults{
		RatPreference: qnstypes.RatDefault,
		GuardTimerMs:  2000,
	}
}
