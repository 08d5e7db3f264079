// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"strconv"
	"strings"

	"grimm.is/qns/internal/qnstypes"
)

// Diagnostic is a parse warning attached to a reload result. Individual
// malformed rule strings are dropped with a Diagnostic; the store
// itself never fails to load.
type Diagnostic struct {
	Rule    string
	Message string
}

func parseAN(tok string) (qnstypes.AccessNetwork, bool) {
	switch strings.ToUpper(strings.TrimSpace(tok)) {
	case "EUTRAN":
		return qnstypes.EUTRAN, true
	case "NGRAN":
		return qnstypes.NGRAN, true
	case "UTRAN":
		return qnstypes.UTRAN, true
	case "GERAN":
		return qnstypes.GERAN, true
	case "IWLAN":
		return qnstypes.IWLAN, true
	default:
		return qnstypes.ANUnknown, false
	}
}

func parseANList(csv string) ([]qnstypes.AccessNetwork, bool) {
	parts := strings.Split(csv, "|")
	out := make([]qnstypes.AccessNetwork, 0, len(parts))
	for _, p := range parts {
		an, ok := parseAN(p)
		if !ok {
			return nil, false
		}
		out = append(out, an)
	}
	return out, true
}

func parseCapabilities(csv string) (Capability, bool) {
	if strings.TrimSpace(csv) == "" {
		return CapNone, true
	}
	var caps Capability
	for _, tok := range strings.Split(csv, "|") {
		switch strings.ToUpper(strings.TrimSpace(tok)) {
		case "VOPS":
			caps |= CapVoPS
		case "MMTEL":
			caps |= CapMMTel
		case "CROSS_SIM":
			caps |= CapCrossSim
		default:
			return 0, false
		}
	}
	return caps, true
}

// splitTokens parses "key=value, key=value, ..." into a case-preserved
// map keyed by lower-cased key; the carrier text format is documented
// as case-insensitive on tokens.
func splitTokens(rule string) map[string]string {
	out := make(map[string]string)
	for _, field := range strings.Split(rule, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
	}
	return out
}

// ParseHandoverRule parses one handover-rule row. On malformed input it
// returns a Diagnostic and ok=false; the caller drops the rule and keeps
// parsing the rest of the array (per-rule rejection, not whole-array).
func ParseHandoverRule(raw string) (HandoverRule, Diagnostic, bool) {
	tokens := splitTokens(raw)

	typeTok := strings.ToLower(tokens["type"])
	hasAllowed := strings.Contains(strings.ReplaceAll(typeTok, "disallowed", ""), "allowed")
	hasDisallowed := strings.Contains(typeTok, "disallowed")
	if hasAllowed && hasDisallowed {
		return HandoverRule{}, Diagnostic{Rule: raw, Message: "rule contains both allowed and disallowed"}, false
	}

	sources, ok := parseANList(tokens["source"])
	if !ok {
		return HandoverRule{}, Diagnostic{Rule: raw, Message: "invalid source list"}, false
	}
	targets, ok := parseANList(tokens["target"])
	if !ok {
		return HandoverRule{}, Diagnostic{Rule: raw, Message: "invalid target list"}, false
	}
	caps, ok := parseCapabilities(tokens["capabilities"])
	if !ok {
		return HandoverRule{}, Diagnostic{Rule: raw, Message: "unknown capability token"}, false
	}

	var roamingOnly *bool
	if v, present := tokens["roaming"]; present {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return HandoverRule{}, Diagnostic{Rule: raw, Message: "invalid roaming flag"}, false
		}
		roamingOnly = &b
	}

	ruleType := RuleDisallowed
	if hasAllowed {
		ruleType = RuleAllowed
	} else if !hasDisallowed {
		return HandoverRule{}, Diagnostic{Rule: raw, Message: "missing type token"}, false
	}

	return HandoverRule{
		Sources:      sources,
		Targets:      targets,
		RoamingOnly:  roamingOnly,
		Type:         ruleType,
		Capabilities: caps,
		Raw:          raw,
	}, Diagnostic{}, true
}

// ParseFallbackRule parses one fallback-rule row ("cause=<code>[~<code>]
// [|<code>...], time=<ms>[, preference=<cell|wifi>]"). A tilde-joined
// cause token is expanded to its two endpoints verbatim (a numeric
// range is not assumed — the source format uses '~' to pair a primary
// and secondary cause code, per the original carrier-config convention).
func ParseFallbackRule(raw string) (FallbackRule, Diagnostic, bool) {
	tokens := splitTokens(raw)

	causeTok, ok := tokens["cause"]
	if !ok || causeTok == "" {
		return FallbackRule{}, Diagnostic{Rule: raw, Message: "missing cause token"}, false
	}
	var causes []string
	for _, group := range strings.Split(causeTok, "|") {
		for _, c := range strings.Split(group, "~") {
			c = strings.TrimSpace(c)
			if c != "" {
				causes = append(causes, c)
			}
		}
	}

	timeMs, err := strconv.Atoi(strings.TrimSpace(tokens["time"]))
	if err != nil {
		return FallbackRule{}, Diagnostic{Rule: raw, Message: "invalid time value"}, false
	}

	pref := FallbackAny
	switch strings.ToLower(tokens["preference"]) {
	case "cell":
		pref = FallbackCell
	case "wifi":
		pref = FallbackWifi
	case "":
	default:
		return FallbackRule{}, Diagnostic{Rule: raw, Message: "unknown preference token"}, false
	}

	return FallbackRule{CauseCodes: causes, TimeMs: timeMs, Preference: pref, Raw: raw}, Diagnostic{}, true
}
