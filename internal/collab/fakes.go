// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package collab

import (
	"sync"

	"grimm.is/qns/internal/qnstypes"
)

// FakeTelephonyStatus is an in-memory, test/sim-driven TelephonyStatus.
type FakeTelephonyStatus struct {
	mu        sync.Mutex
	current   TelephonyInfo
	subs      []chan TelephonyInfo
	callSubs  []chan CallStateEvent
}

// NewFakeTelephonyStatus returns a FakeTelephonyStatus seeded with initial.
func NewFakeTelephonyStatus(initial TelephonyInfo) *FakeTelephonyStatus {
	return &FakeTelephonyStatus{current: initial}
}

func (f *FakeTelephonyStatus) Current() TelephonyInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeTelephonyStatus) Subscribe() <-chan TelephonyInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan TelephonyInfo, 8)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeTelephonyStatus) SubscribeCallState() <-chan CallStateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan CallStateEvent, 8)
	f.callSubs = append(f.callSubs, ch)
	return ch
}

// Publish updates the snapshot and fans it out to subscribers.
func (f *FakeTelephonyStatus) Publish(info TelephonyInfo) {
	f.mu.Lock()
	f.current = info
	subs := append([]chan TelephonyInfo{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- info
	}
}

// PublishCallState fans a call-state transition out to subscribers.
func (f *FakeTelephonyStatus) PublishCallState(ev CallStateEvent) {
	f.mu.Lock()
	subs := append([]chan CallStateEvent{}, f.callSubs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- ev
	}
}

// FakeImsStatus is an in-memory ImsStatus.
type FakeImsStatus struct {
	mu   sync.Mutex
	subs []chan ImsEvent
}

func NewFakeImsStatus() *FakeImsStatus { return &FakeImsStatus{} }

func (f *FakeImsStatus) Subscribe() <-chan ImsEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan ImsEvent, 8)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeImsStatus) Publish(ev ImsEvent) {
	f.mu.Lock()
	subs := append([]chan ImsEvent{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- ev
	}
}

// FakeIwlanStatus is an in-memory IwlanStatus.
type FakeIwlanStatus struct {
	mu      sync.Mutex
	current IwlanInfo
	subs    []chan IwlanInfo
}

func NewFakeIwlanStatus(initial IwlanInfo) *FakeIwlanStatus {
	return &FakeIwlanStatus{current: initial}
}

func (f *FakeIwlanStatus) Current() IwlanInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeIwlanStatus) Subscribe() <-chan IwlanInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan IwlanInfo, 8)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeIwlanStatus) Publish(info IwlanInfo) {
	f.mu.Lock()
	f.current = info
	subs := append([]chan IwlanInfo{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- info
	}
}

// FakeQualityMonitor is an in-memory QualityMonitor.
type FakeQualityMonitor struct {
	mu     sync.Mutex
	values map[qnstypes.AccessNetwork]map[qnstypes.MeasurementKind]int
}

func NewFakeQualityMonitor() *FakeQualityMonitor {
	return &FakeQualityMonitor{values: map[qnstypes.AccessNetwork]map[qnstypes.MeasurementKind]int{}}
}

func (f *FakeQualityMonitor) CurrentValue(an qnstypes.AccessNetwork, kind qnstypes.MeasurementKind) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byKind, ok := f.values[an]
	if !ok {
		return 0, false
	}
	v, ok := byKind[kind]
	return v, ok
}

// UpdateThresholds is a no-op on the fake: edge alerting is a
// platform-measurement-source concern (out of scope); the
// fake only ever serves SetValue-injected samples for tests.
func (f *FakeQualityMonitor) UpdateThresholds(qnstypes.AccessNetwork, qnstypes.MeasurementKind, []int) {}

// SetValue injects a sample for (an, kind), as a real platform monitor would.
func (f *FakeQualityMonitor) SetValue(an qnstypes.AccessNetwork, kind qnstypes.MeasurementKind, value int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[an] == nil {
		f.values[an] = map[qnstypes.MeasurementKind]int{}
	}
	f.values[an][kind] = value
}

// FakeDataConnectionStatus is an in-memory DataConnectionStatus.
type FakeDataConnectionStatus struct {
	mu      sync.Mutex
	current DataConnectionInfo
	subs    []chan DataConnectionInfo
}

func NewFakeDataConnectionStatus(initial DataConnectionInfo) *FakeDataConnectionStatus {
	return &FakeDataConnectionStatus{current: initial}
}

func (f *FakeDataConnectionStatus) Current() DataConnectionInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeDataConnectionStatus) Subscribe() <-chan DataConnectionInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan DataConnectionInfo, 8)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeDataConnectionStatus) Publish(info DataConnectionInfo) {
	f.mu.Lock()
	f.current = info
	subs := append([]chan DataConnectionInfo{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- info
	}
}

// FakeCarrierConfigLoader is an in-memory CarrierConfigLoader.
type FakeCarrierConfigLoader struct {
	mu   sync.Mutex
	subs []chan CarrierConfigUpdate
}

func NewFakeCarrierConfigLoader() *FakeCarrierConfigLoader { return &FakeCarrierConfigLoader{} }

func (f *FakeCarrierConfigLoader) Subscribe() <-chan CarrierConfigUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan CarrierConfigUpdate, 4)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeCarrierConfigLoader) Publish(update CarrierConfigUpdate) {
	f.mu.Lock()
	subs := append([]chan CarrierConfigUpdate{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- update
	}
}

// FakeUserSettings is an in-memory UserSettings.
type FakeUserSettings struct {
	mu      sync.Mutex
	current UserSettingsInfo
	subs    []chan UserSettingsInfo
}

func NewFakeUserSettings(initial UserSettingsInfo) *FakeUserSettings {
	return &FakeUserSettings{current: initial}
}

func (f *FakeUserSettings) Current() UserSettingsInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeUserSettings) Subscribe() <-chan UserSettingsInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan UserSettingsInfo, 4)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeUserSettings) Publish(info UserSettingsInfo) {
	f.mu.Lock()
	f.current = info
	subs := append([]chan UserSettingsInfo{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- info
	}
}

// FakeProvisioningSnapshot is an in-memory ProvisioningSnapshot.
type FakeProvisioningSnapshot struct {
	mu      sync.Mutex
	current map[string]int
	subs    []chan map[string]int
}

func NewFakeProvisioningSnapshot(initial map[string]int) *FakeProvisioningSnapshot {
	return &FakeProvisioningSnapshot{current: initial}
}

func (f *FakeProvisioningSnapshot) Current() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeProvisioningSnapshot) Subscribe() <-chan map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan map[string]int, 4)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *FakeProvisioningSnapshot) Publish(snapshot map[string]int) {
	f.mu.Lock()
	f.current = snapshot
	subs := append([]chan map[string]int{}, f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- snapshot
	}
}
