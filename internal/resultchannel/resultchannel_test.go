// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package resultchannel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/qns/internal/qnstypes"
)

func TestPublishDeduplicatesIdenticalLists(t *testing.T) {
	c := NewChannel()
	sub := c.Subscribe()

	info := QualifiedNetworksInfo{Slot: 0, Session: qnstypes.SessionIMS, AccessNetworks: []qnstypes.AccessNetwork{qnstypes.IWLAN}}
	c.Publish(info)
	c.Publish(info)

	select {
	case got := <-sub.C():
		assert.True(t, got.Equal(info))
	case <-time.After(time.Second):
		t.Fatal("expected first publish")
	}

	select {
	case <-sub.C():
		t.Fatal("did not expect a second identical publish")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDifferentListIsDelivered(t *testing.T) {
	c := NewChannel()
	sub := c.Subscribe()

	c.Publish(QualifiedNetworksInfo{AccessNetworks: []qnstypes.AccessNetwork{qnstypes.IWLAN}})
	c.Publish(QualifiedNetworksInfo{AccessNetworks: []qnstypes.AccessNetwork{qnstypes.EUTRAN}})

	first := <-sub.C()
	second := <-sub.C()
	assert.NotEqual(t, first.AccessNetworks, second.AccessNetworks)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := NewChannel()
	sub := c.Subscribe()
	c.Unsubscribe(sub)

	c.Publish(QualifiedNetworksInfo{AccessNetworks: []qnstypes.AccessNetwork{qnstypes.IWLAN}})

	_, ok := <-sub.C()
	require.False(t, ok)
}
