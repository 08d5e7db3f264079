// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package testutil

import (
	"os"
	"testing"
)

// RequireNetwork skips the test if the QNS_NETWORK_TEST environment
// variable is not set. Use this to gate tests that need a real ICMP
// round trip (collab.PingIwlanStatus's default CheckPingFunc), which
// most CI sandboxes cannot perform.
func RequireNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("QNS_NETWORK_TEST") == "" {
		t.Skip("Skipping test: requires QNS_NETWORK_TEST environment")
	}
}
