// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ane implements the AccessNetworkEvaluator (C8): one instance
// per (slot, session type), driving the single-threaded cooperative
// loop that consumes status events, calls into the CarrierPolicyStore,
// the ANSPMatcher and the RestrictionLedger, and emits qualified-network
// lists on its ResultChannel.
package ane

import "grimm.is/qns/internal/qnstypes"

// State is the ANE's cached world model.
// Mutation happens only on the single event-processing task.
type State struct {
	LastNotifiedList []qnstypes.AccessNetwork

	IwlanAvailable    bool
	CellularAvailable bool

	Coverage      qnstypes.Coverage
	CallType      qnstypes.CallType
	WfcPreference qnstypes.WfcPreference

	DataConnectionPhase qnstypes.DataConnectionPhase
	LastTransportType   qnstypes.Transport
	LastAN              qnstypes.AccessNetwork
	LastApnSetting      string

	ImsRegisteredPerTransport map[qnstypes.Transport]bool
	ProvisioningSnapshot      map[string]int

	PLMN                     string
	TelephonyCoverage        qnstypes.Coverage
	IsDomesticRoamingReading bool

	AirplaneModeOn              bool
	EmergencyPreferredTransport qnstypes.Transport

	VopsNormal    bool
	VopsEmergency bool

	CrossSimEnabled bool
	WifiEnabled     bool
	WfcEnabled      bool

	CarrierID int
}

// newState returns the zero-value initial state for a freshly
// constructed ANE: nothing available, airplane mode off, default preference.
func newState() State {
	return State{
		ImsRegisteredPerTransport: map[qnstypes.Transport]bool{},
		LastTransportType:         qnstypes.WWAN,
	}
}
