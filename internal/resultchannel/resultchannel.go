// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package resultchannel implements the ResultChannel (C9): it
// multicasts QualifiedNetworksInfo updates to registered consumers,
// de-duplicating by value equality (P1).
package resultchannel

import (
	"sync"

	"grimm.is/qns/internal/qnstypes"
)

// QualifiedNetworksInfo is the per-evaluation published result.
type QualifiedNetworksInfo struct {
	Slot           int
	Session        qnstypes.SessionType
	AccessNetworks []qnstypes.AccessNetwork
}

// Equal reports value equality, used for the publish-dedup check.
func (q QualifiedNetworksInfo) Equal(o QualifiedNetworksInfo) bool {
	if q.Slot != o.Slot || q.Session != o.Session || len(q.AccessNetworks) != len(o.AccessNetworks) {
		return false
	}
	for i := range q.AccessNetworks {
		if q.AccessNetworks[i] != o.AccessNetworks[i] {
			return false
		}
	}
	return true
}

// Subscription is a registered consumer's handle, used to unregister.
type Subscription struct {
	id int
	ch chan QualifiedNetworksInfo
}

// C returns the subscriber's channel.
func (s *Subscription) C() <-chan QualifiedNetworksInfo { return s.ch }

// Channel is the C9 ResultChannel for one ANE instance.
type Channel struct {
	mu           sync.Mutex
	subs         map[int]*Subscription
	nextID       int
	lastNotified QualifiedNetworksInfo
	hasPublished bool
}

// NewChannel returns an empty Channel.
func NewChannel() *Channel {
	return &Channel{subs: map[int]*Subscription{}}
}

// Subscribe registers a new consumer; it does not receive historical
// publications, only updates from this point on. Safe to call
// concurrently with Publish and Unsubscribe.
func (c *Channel) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	sub := &Subscription{id: c.nextID, ch: make(chan QualifiedNetworksInfo, 16)}
	c.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a consumer and closes its channel.
func (c *Channel) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[sub.id]; !ok {
		return
	}
	delete(c.subs, sub.id)
	close(sub.ch)
}

// Publish fans info out to every current subscriber, unless info equals
// the last published value (P1 monotonic-notify: identical lists are
// never published twice). Each subscriber receives publications in the
// order Publish is called; the order in which subscribers are served
// within one Publish is not defined.
func (c *Channel) Publish(info QualifiedNetworksInfo) {
	c.mu.Lock()
	if c.hasPublished && c.lastNotified.Equal(info) {
		c.mu.Unlock()
		return
	}
	c.lastNotified = info
	c.hasPublished = true
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		s.ch <- info
	}
}

// LastNotified returns the last published value and whether anything
// has been published yet.
func (c *Channel) LastNotified() (QualifiedNetworksInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastNotified, c.hasPublished
}
