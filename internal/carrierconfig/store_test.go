// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grimm.is/qns/internal/qnstypes"
)

func TestStoreHandoverAllowedFirstMatchWins(t *testing.T) {
	s := NewStore(0, nil)
	s.Reload(RawBundle{
		HandoverRules: []string{
			"source=EUTRAN, target=IWLAN, type=disallowed",
			"source=EUTRAN, target=IWLAN, type=allowed",
		},
	}, DefaultAssetDefaults())

	assert.False(t, s.IsHandoverAllowed(qnstypes.SessionIMS, qnstypes.EUTRAN, qnstypes.IWLAN, qnstypes.CoverageHome))
}

func TestStoreHandoverAllowedDefaultFalse(t *testing.T) {
	s := NewStore(0, nil)
	s.Reload(RawBundle{}, DefaultAssetDefaults())
	assert.False(t, s.IsHandoverAllowed(qnstypes.SessionIMS, qnstypes.EUTRAN, qnstypes.IWLAN, qnstypes.CoverageHome))
}

func TestStoreDropsBadRuleKeepsRest(t *testing.T) {
	s := NewStore(0, nil)
	result := s.Reload(RawBundle{
		HandoverRules: []string{
			"source=EUTRAN, target=IWLAN, type=allowed|disallowed",
			"source=EUTRAN, target=IWLAN, type=allowed",
		},
	}, DefaultAssetDefaults())

	assert.Len(t, result.Diagnostics, 1)
	assert.True(t, s.IsHandoverAllowed(qnstypes.SessionIMS, qnstypes.EUTRAN, qnstypes.IWLAN, qnstypes.CoverageHome))
}

func TestStoreThresholdWfcOverride(t *testing.T) {
	s := NewStore(0, nil)
	s.Reload(RawBundle{
		Thresholds: []ThresholdRaw{
			{AN: qnstypes.IWLAN, CallType: qnstypes.CallIdle, Measurement: qnstypes.RSSI, Triplet: ThresholdTriplet{Good: -60, Bad: -80, Worst: -95}},
			{AN: qnstypes.IWLAN, CallType: qnstypes.CallIdle, Measurement: qnstypes.RSSI, WfcPreference: qnstypes.WfcWifiOnly, Triplet: ThresholdTriplet{Good: -70, Bad: -85, Worst: -99}},
		},
	}, DefaultAssetDefaults())

	def := s.Threshold(qnstypes.IWLAN, qnstypes.CallIdle, qnstypes.RSSI, qnstypes.WfcCellularPreferred)
	assert.Equal(t, -60, def.Good)

	override := s.Threshold(qnstypes.IWLAN, qnstypes.CallIdle, qnstypes.RSSI, qnstypes.WfcWifiOnly)
	assert.Equal(t, -70, override.Good)

	missing := s.Threshold(qnstypes.EUTRAN, qnstypes.CallVoice, qnstypes.RSRP, qnstypes.WfcDefault)
	assert.False(t, missing.Valid)
}

func TestStoreRatPreferenceFallsBackToDefault(t *testing.T) {
	s := NewStore(0, nil)
	s.Reload(RawBundle{
		RatPreference: map[qnstypes.SessionType]qnstypes.RatPreference{
			qnstypes.SessionIMS: qnstypes.RatWifiWhenNoCellular,
		},
	}, DefaultAssetDefaults())

	assert.Equal(t, qnstypes.RatWifiWhenNoCellular, s.RatPreference(qnstypes.SessionIMS))
	assert.Equal(t, qnstypes.RatDefault, s.RatPreference(qnstypes.SessionMMS))
}

func TestStoreResolveCoverageDomesticDemotion(t *testing.T) {
	s := NewStore(0, nil)
	s.Reload(RawBundle{
		DomesticRoamingPLMNs:      []string{"310260"},
		CheckInternationalRoaming: map[qnstypes.SessionType]bool{qnstypes.SessionIMS: true},
	}, DefaultAssetDefaults())

	cov := s.ResolveCoverage(qnstypes.CoverageRoaming, "310260", false, qnstypes.SessionIMS)
	assert.Equal(t, qnstypes.CoverageHome, cov)
}

func TestStoreIsAccessNetworkAllowedDefaultsTrue(t *testing.T) {
	s := NewStore(0, nil)
	s.Reload(RawBundle{}, DefaultAssetDefaults())
	assert.True(t, s.IsAccessNetworkAllowed(qnstypes.SessionIMS, qnstypes.UTRAN))
}
