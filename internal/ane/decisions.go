// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ane

import "grimm.is/qns/internal/qnstypes"

// isAllowed implements §4.5.4's rat-preference filter for one transport.
func (a *ANE) isAllowed(transport qnstypes.Transport) bool {
	s := a.state
	pref := a.store.RatPreference(a.session)

	if transport == qnstypes.WLAN {
		if s.AirplaneModeOn && !a.store.AllowWFCOnAirplaneModeOn() {
			return false
		}
		if s.TelephonyCoverage == qnstypes.CoverageRoaming && !s.CellularAvailable &&
			a.store.BlockIwlanInInternationalRoamWithoutWwan() {
			return false
		}
	}

	switch pref {
	case qnstypes.RatWifiOnly:
		if transport == qnstypes.WWAN {
			return false
		}
		return true
	case qnstypes.RatWifiWhenWfcAvailable:
		imsOverWlan := s.ImsRegisteredPerTransport[qnstypes.WLAN]
		if transport == qnstypes.WLAN {
			return imsOverWlan
		}
		return !imsOverWlan
	case qnstypes.RatWifiWhenNoCellular:
		if transport == qnstypes.WLAN {
			return !s.CellularAvailable
		}
		return true
	case qnstypes.RatWifiWhenHomeIsNotAvailable:
		homeAvailable := s.CellularAvailable && s.Coverage == qnstypes.CoverageHome
		if transport == qnstypes.WWAN {
			return homeAvailable
		}
		return !homeAvailable
	default: // RatDefault
		return true
	}
}

// needHandoverPolicyCheck reports whether the last transport is WLAN
// and the data connection is active, meaning a move back to WWAN (or
// elsewhere) is an in-place handover governed by the carrier's
// handover matrix rather than a fresh bearer bring-up.
func (a *ANE) needHandoverPolicyCheck() bool {
	return a.state.LastTransportType == qnstypes.WLAN && a.state.DataConnectionPhase == qnstypes.PhaseConnected
}

// moveTransportTypeAllowed implements §4.5.1: it returns the carrier
// handover matrix's verdict for (session, lastAN, targetAN, coverage);
// the first matching rule decides, and no matching rule means not
// allowed. The matrix is consulted only when needHandoverPolicyCheck
// holds and targetAN lies on the other transport; otherwise the move is
// always allowed, since the matrix only governs actual bearer handovers.
func (a *ANE) moveTransportTypeAllowed(targetAN qnstypes.AccessNetwork) bool {
	if !a.needHandoverPolicyCheck() || qnstypes.TransportOf(targetAN) == a.state.LastTransportType {
		return true
	}
	return a.store.IsHandoverAllowed(a.session, a.state.LastAN, targetAN, a.state.Coverage)
}

// vopsCheckRequired implements §4.5.2.
func (a *ANE) vopsCheckRequired(an qnstypes.AccessNetwork) bool {
	if a.state.LastTransportType == qnstypes.WLAN &&
		a.store.InCallHoWlanToWwanWithoutVopsCondition() &&
		a.state.CallType != qnstypes.CallIdle {
		return false
	}
	if !a.store.IsMMTelRequired(a.state.Coverage) {
		return false
	}
	return an == qnstypes.EUTRAN || an == qnstypes.NGRAN
}

// vopsSatisfied implements the second half of §4.5.2: when checked,
// cellular is only usable if the telephony feed reports VoPS support
// at this AN & coverage.
func (a *ANE) vopsSatisfied(an qnstypes.AccessNetwork) bool {
	if !a.vopsCheckRequired(an) {
		return true
	}
	if a.session == qnstypes.SessionEmergency {
		return a.state.VopsEmergency
	}
	return a.state.VopsNormal
}
