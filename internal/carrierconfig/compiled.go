// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnstypes"
)

// compiled is the immutable, fully-parsed configuration snapshot. A
// new one is built off-store by compile() and swapped in atomically by
// Store.Reload.
type compiled struct {
	carrierID int

	handoverRulesHome    []HandoverRule
	handoverRulesRoaming []HandoverRule
	fallbackUnreg        []FallbackRule
	fallbackHoFail       []FallbackRule

	vopsRequired  map[qnstypes.Coverage]bool
	mmtelRequired map[qnstypes.Coverage]bool

	ratPreference map[qnstypes.SessionType]qnstypes.RatPreference
	accessAllowed map[accessAllowedKey]bool
	thresholds    map[thresholdKey]ThresholdTriplet

	guardTimer GuardTimerConfig

	rtpLowQualityRestrictMs map[qnstypes.Transport]int
	maxIwlanHoDuringCall    int

	internationalRoamingPLMNs map[string]bool
	domesticRoamingPLMNs      map[string]bool
	checkInternationalRoaming map[qnstypes.SessionType]bool

	blockIwlanInInternationalRoamWithoutWwan bool
	allowWFCOnAirplaneModeOn                 bool
	inCallHoWlanToWwanWithoutVopsCondition   bool

	initialDataConnFallback InitialDataConnFallback
	cooldownOnPowerOnMs     map[qnstypes.Transport]int

	defaults AssetDefaults
	anps     []policy.ANSP

	diagnostics []Diagnostic
}

func compile(raw RawBundle, defaults AssetDefaults) compiled {
	c := compiled{
		carrierID:                 raw.CarrierID,
		vopsRequired:              map[qnstypes.Coverage]bool{},
		mmtelRequired:             map[qnstypes.Coverage]bool{},
		ratPreference:             map[qnstypes.SessionType]qnstypes.RatPreference{},
		accessAllowed:             map[accessAllowedKey]bool{},
		thresholds:                map[thresholdKey]ThresholdTriplet{},
		rtpLowQualityRestrictMs:   map[qnstypes.Transport]int{},
		internationalRoamingPLMNs: map[string]bool{},
		domesticRoamingPLMNs:      map[string]bool{},
		checkInternationalRoaming: map[qnstypes.SessionType]bool{},
		cooldownOnPowerOnMs:       map[qnstypes.Transport]int{},
		guardTimer:                raw.GuardTimer,
		maxIwlanHoDuringCall:      raw.MaxIwlanHoDuringCall,
		blockIwlanInInternationalRoamWithoutWwan: raw.BlockIwlanInInternationalRoamWithoutWwan,
		allowWFCOnAirplaneModeOn:                 raw.AllowWFCOnAirplaneModeOn,
		inCallHoWlanToWwanWithoutVopsCondition:   raw.InCallHoWlanToWwanWithoutVopsCondition,
		initialDataConnFallback:                 raw.InitialDataConnFallback,
		defaults:                                defaults,
	}

	for _, s := range raw.HandoverRules {
		if rule, diag, ok := ParseHandoverRule(s); ok {
			c.handoverRulesHome = append(c.handoverRulesHome, rule)
		} else {
			c.diagnostics = append(c.diagnostics, diag)
		}
	}
	for _, s := range raw.HandoverRulesRoaming {
		if rule, diag, ok := ParseHandoverRule(s); ok {
			c.handoverRulesRoaming = append(c.handoverRulesRoaming, rule)
		} else {
			c.diagnostics = append(c.diagnostics, diag)
		}
	}
	for _, s := range raw.FallbackRulesUnreg {
		if rule, diag, ok := ParseFallbackRule(s); ok {
			c.fallbackUnreg = append(c.fallbackUnreg, rule)
		} else {
			c.diagnostics = append(c.diagnostics, diag)
		}
	}
	for _, s := range raw.FallbackRulesHoFail {
		if rule, diag, ok := ParseFallbackRule(s); ok {
			c.fallbackHoFail = append(c.fallbackHoFail, rule)
		} else {
			c.diagnostics = append(c.diagnostics, diag)
		}
	}

	for _, cov := range raw.VopsRequiredCoverage {
		c.vopsRequired[cov] = true
	}
	for _, cov := range raw.MmtelRequiredCoverage {
		c.mmtelRequired[cov] = true
	}
	for session, pref := range raw.RatPreference {
		c.ratPreference[session] = pref
	}
	for _, a := range raw.AccessAllowed {
		c.accessAllowed[accessAllowedKey{Session: a.Session, AN: a.AN}] = a.Allowed
	}
	for _, t := range raw.Thresholds {
		key := thresholdKey{AN: t.AN, CallType: t.CallType, Measurement: t.Measurement, WfcPreference: t.WfcPreference}
		triplet := t.Triplet
		triplet.Valid = true
		c.thresholds[key] = triplet
	}
	for transport, ms := range raw.RTPLowQualityRestrictMs {
		c.rtpLowQualityRestrictMs[transport] = ms
	}
	for _, plmn := range raw.InternationalRoamingPLMNs {
		c.internationalRoamingPLMNs[plmn] = true
	}
	for _, plmn := range raw.DomesticRoamingPLMNs {
		c.domesticRoamingPLMNs[plmn] = true
	}
	for session, check := range raw.CheckInternationalRoaming {
		c.checkInternationalRoaming[session] = check
	}
	for transport, ms := range raw.CooldownOnPowerOnMs {
		c.cooldownOnPowerOnMs[transport] = ms
	}
	for _, spec := range raw.ANSPs {
		var groups []policy.ThresholdGroup
		for _, g := range spec.Groups {
			if _, err := policy.NewThresholdGroup(g.Members); err != nil {
				c.diagnostics = append(c.diagnostics, Diagnostic{Rule: string(spec.Session), Message: err.Error()})
				continue
			}
			groups = append(groups, g)
		}
		c.anps = append(c.anps, policy.ANSP{
			Session:         spec.Session,
			TargetTransport: spec.TargetTransport,
			PreCondition:    spec.PreCondition,
			Groups:          groups,
		})
	}

	return c
}
