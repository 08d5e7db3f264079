// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package collab defines the typed collaborator interfaces the core
// consumes, plus one in-memory / test-friendly implementation
// of each. The platform-side measurement sources, telephony feeds, and
// config loaders themselves are out of scope; these adapters
// are the seam a real platform integration, or cmd/qns-sim, plugs into.
package collab

import (
	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/qnstypes"
)

// TelephonyInfo is one snapshot of the TelephonyStatus feed.
type TelephonyInfo struct {
	DataRegState     string
	DataNetworkType  qnstypes.AccessNetwork
	VoiceNetworkType qnstypes.AccessNetwork
	PLMN             string
	RoamingType      string // "HOME", "DOMESTIC_ROAMING", "INTERNATIONAL_ROAMING"
	Coverage         qnstypes.Coverage
	CellularAvailable bool
	VopsEmergency    bool
	VopsNormal       bool
	VoiceBarring     bool
	EmergencyBarring bool
	AirplaneModeOn   bool
}

// CallStateEvent is one transition on the TelephonyStatus call-state stream.
type CallStateEvent int

const (
	CallStateIdle CallStateEvent = iota
	CallStateRinging
	CallStateOffhook
)

// TelephonyStatus is the registration/roaming/VoPS/barring event feed.
type TelephonyStatus interface {
	Current() TelephonyInfo
	Subscribe() <-chan TelephonyInfo
	SubscribeCallState() <-chan CallStateEvent
}

// ImsEvent is one ImsStatus transition.
type ImsEvent struct {
	Transport  qnstypes.Transport
	State      qnstypes.ImsRegState
	ReasonCode string
}

// ImsStatus is the IMS registration event feed.
type ImsStatus interface {
	Subscribe() <-chan ImsEvent
}

// IwlanInfo is one IwlanStatus snapshot.
type IwlanInfo struct {
	Available  bool
	InCrossSim bool
}

// IwlanStatus reports Wi-Fi/IWLAN availability.
type IwlanStatus interface {
	Current() IwlanInfo
	Subscribe() <-chan IwlanInfo
}

// NoValue is the QualityMonitor sentinel for "no current sample".
const NoValue = 0

// QualityMonitor is the quality-monitor contract shared by the cellular
// and Wi-Fi measurement sources; it also satisfies
// policy.QualitySource.
type QualityMonitor interface {
	CurrentValue(an qnstypes.AccessNetwork, kind qnstypes.MeasurementKind) (value int, ok bool)
	UpdateThresholds(an qnstypes.AccessNetwork, kind qnstypes.MeasurementKind, edges []int)
}

// DataConnectionInfo is one DataConnectionStatus snapshot.
type DataConnectionInfo struct {
	Event          qnstypes.DataConnectionEvent
	Phase          qnstypes.DataConnectionPhase
	Transport      qnstypes.Transport
	LastApnSetting string
}

// DataConnectionStatus is the data-call status event feed.
type DataConnectionStatus interface {
	Current() DataConnectionInfo
	Subscribe() <-chan DataConnectionInfo
}

// CarrierConfigUpdate pairs a (slot, carrierID) key with the bundle
// delivered for it. CarrierID UNKNOWN is delivered too, as a distinct event.
type CarrierConfigUpdate struct {
	Slot      int
	CarrierID int
	Bundle    carrierconfig.RawBundle
}

// UnknownCarrierID is delivered as its own, distinct CarrierConfigUpdate event.
const UnknownCarrierID = -1

// CarrierConfigLoader delivers an immutable bundle on change.
type CarrierConfigLoader interface {
	Subscribe() <-chan CarrierConfigUpdate
}

// UserSettingsInfo is one UserSettings snapshot.
type UserSettingsInfo struct {
	WfcEnabledHome     bool
	WfcEnabledRoaming  bool
	WfcModeHome        qnstypes.WfcPreference
	WfcModeRoaming     qnstypes.WfcPreference
	WfcPlatformEnabled bool
	CrossSimEnabled    bool
	WifiEnabled        bool
}

// UserSettings is the persistent user-settings value-holder.
type UserSettings interface {
	Current() UserSettingsInfo
	Subscribe() <-chan UserSettingsInfo
}

// ProvisioningSnapshot is the raw provisioning integer map. The ANE
// records the latest map in its State; it is not merged into the
// CarrierPolicyStore's values.
type ProvisioningSnapshot interface {
	Current() map[string]int
	Subscribe() <-chan map[string]int
}
