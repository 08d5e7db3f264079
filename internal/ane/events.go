// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ane

import (
	"grimm.is/qns/internal/collab"
	"grimm.is/qns/internal/qnstypes"
)

// EventKind enumerates the inbox event kinds, in the same order spec
// §4.5 dispatches them when several arrive in the same batch.
type EventKind int

const (
	EventIwlanChanged EventKind = iota
	EventTelephonyChanged
	EventRestrictInfoChanged
	EventCallTypeChanged
	EventDataConnectionChanged
	EventEmergencyPreferredTransportChanged
	EventProvisioningChanged
	EventWfcTryConnectionStateChanged
	EventImsRegistrationChanged
	EventWfcSettingsChanged
	EventCarrierConfigChanged
)

// Event is the ANE inbox's single tagged-event type: an explicit inbox
// of tagged events in place of scattered coroutines and callbacks.
type Event struct {
	Kind EventKind

	Iwlan         collab.IwlanInfo
	Telephony     collab.TelephonyInfo
	CallType      qnstypes.CallType
	DataConn      collab.DataConnectionInfo
	EmergencyPref qnstypes.Transport
	Provisioning  map[string]int
	ImsEvent      collab.ImsEvent
	UserSettings  collab.UserSettingsInfo
	CarrierConfig collab.CarrierConfigUpdate
}
