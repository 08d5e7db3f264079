// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/qns/internal/qnstypes"
)

func TestParseHandoverRuleBasic(t *testing.T) {
	rule, _, ok := ParseHandoverRule("source=EUTRAN, target=IWLAN, type=allowed, capabilities=VOPS")
	require.True(t, ok)
	assert.Equal(t, []qnstypes.AccessNetwork{qnstypes.EUTRAN}, rule.Sources)
	assert.Equal(t, []qnstypes.AccessNetwork{qnstypes.IWLAN}, rule.Targets)
	assert.Equal(t, RuleAllowed, rule.Type)
	assert.Equal(t, CapVoPS, rule.Capabilities)
}

func TestParseHandoverRuleRejectsBothTypes(t *testing.T) {
	_, diag, ok := ParseHandoverRule("source=EUTRAN, target=IWLAN, type=allowed|disallowed")
	require.False(t, ok)
	assert.Contains(t, diag.Message, "both")
}

func TestParseHandoverRuleUnknownCapability(t *testing.T) {
	_, _, ok := ParseHandoverRule("source=EUTRAN, target=IWLAN, type=allowed, capabilities=BOGUS")
	assert.False(t, ok)
}

func TestParseHandoverRuleCaseInsensitive(t *testing.T) {
	rule, _, ok := ParseHandoverRule("SOURCE=eutran, TARGET=iwlan, TYPE=ALLOWED")
	require.True(t, ok)
	assert.Equal(t, []qnstypes.AccessNetwork{qnstypes.EUTRAN}, rule.Sources)
}

func TestParseFallbackRule(t *testing.T) {
	rule, _, ok := ParseFallbackRule("cause=380~381|382, time=20000, preference=wifi")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"380", "381", "382"}, rule.CauseCodes)
	assert.Equal(t, 20000, rule.TimeMs)
	assert.Equal(t, FallbackWifi, rule.Preference)
}

func TestParseFallbackRuleMissingCause(t *testing.T) {
	_, _, ok := ParseFallbackRule("time=1000")
	assert.False(t, ok)
}

func TestHandoverRuleMatchesCapabilitySubset(t *testing.T) {
	rule := HandoverRule{
		Sources:      []qnstypes.AccessNetwork{qnstypes.EUTRAN},
		Targets:      []qnstypes.AccessNetwork{qnstypes.IWLAN},
		Type:         RuleAllowed,
		Capabilities: CapVoPS,
	}
	assert.True(t, rule.Matches(qnstypes.EUTRAN, qnstypes.IWLAN, qnstypes.CoverageHome, CapVoPS|CapMMTel))
	assert.False(t, rule.Matches(qnstypes.EUTRAN, qnstypes.IWLAN, qnstypes.CoverageHome, CapNone))
}
