// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package collab

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProvisioningFixture reads a flat integer-map YAML fixture (keys
// like LTE_THRESHOLD_1, WIFI_EPDG_TIMER_SEC) for use as a
// ProvisioningSnapshot seed in tests and cmd/qns-sim.
func LoadProvisioningFixture(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]int
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
