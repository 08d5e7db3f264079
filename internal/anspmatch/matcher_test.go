// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package anspmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnstypes"
)

func TestMatcherFiltersByPreCondition(t *testing.T) {
	imsIdle := policy.ANSP{
		Session:      qnstypes.SessionIMS,
		PreCondition: policy.Plain(qnstypes.CallIdle, qnstypes.WfcWifiPreferred, qnstypes.CoverageHome),
	}
	imsVoice := policy.ANSP{
		Session:      qnstypes.SessionIMS,
		PreCondition: policy.Plain(qnstypes.CallVoice, qnstypes.WfcWifiPreferred, qnstypes.CoverageHome),
	}
	pm := NewPolicyMap([]policy.ANSP{imsIdle, imsVoice})

	matched := Matcher{}.Match(pm, policy.Plain(qnstypes.CallIdle, qnstypes.WfcWifiPreferred, qnstypes.CoverageHome))
	assert.Len(t, matched, 1)
	assert.Equal(t, imsIdle, matched[0])
}

func TestMatcherEmergencyRelaxation(t *testing.T) {
	emergencyVoice := policy.ANSP{
		Session:      qnstypes.SessionEmergency,
		PreCondition: policy.Plain(qnstypes.CallVoice, qnstypes.WfcWifiPreferred, qnstypes.CoverageHome),
	}
	pm := NewPolicyMap([]policy.ANSP{emergencyVoice})

	matched := Matcher{}.Match(pm, policy.Plain(qnstypes.CallEmergency, qnstypes.WfcWifiPreferred, qnstypes.CoverageHome))
	assert.Len(t, matched, 1)
}
