// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ane

import (
	"grimm.is/qns/internal/collab"
	"grimm.is/qns/internal/policy"
	"grimm.is/qns/internal/qnstypes"
)

// combinedQualitySource routes a threshold lookup to the cellular or
// Wi-Fi QualityMonitor depending on the referenced access network
// (cellular and Wi-Fi are separate collaborators sharing one contract).
// A nil monitor on either side yields "no sample",
// which policy.Threshold.Satisfied already treats as unsatisfied
//.
type combinedQualitySource struct {
	cellular collab.QualityMonitor
	wifi     collab.QualityMonitor
}

func (c combinedQualitySource) CurrentValue(an qnstypes.AccessNetwork, kind qnstypes.MeasurementKind) (int, bool) {
	monitor := c.cellular
	if an == qnstypes.IWLAN {
		monitor = c.wifi
	}
	if monitor == nil {
		return 0, false
	}
	return monitor.CurrentValue(an, kind)
}

var _ policy.QualitySource = combinedQualitySource{}
