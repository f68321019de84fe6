package events

import (
	"testing"

	"github.com/dmt-mods/placement/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_HoverDeliveredInOrder(t *testing.T) {
	h := NewHub()

	var got []string
	h.SubscribeHover(func(p *core.Plot) { got = append(got, "first") })
	h.SubscribeHover(func(p *core.Plot) { got = append(got, "second") })

	h.PublishHover(&core.Plot{X: 1, Y: 2})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestHub_OffMapHoverIsNil(t *testing.T) {
	h := NewHub()

	var got *core.Plot
	called := false
	h.SubscribeHover(func(p *core.Plot) { called = true; got = p })
	h.PublishHover(nil)

	assert.True(t, called)
	assert.Nil(t, got)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()

	count := 0
	cancel := h.SubscribeModeChanged(func(string) { count++ })
	h.PublishModeChanged("A")

	cancel()
	cancel()
	h.PublishModeChanged("B")

	assert.Equal(t, 1, count)
	_, mode := h.Subscribers()
	assert.Equal(t, 0, mode)
}

func TestHub_UnsubscribeKeepsOthers(t *testing.T) {
	h := NewHub()

	var got []int
	h.SubscribeHover(func(*core.Plot) { got = append(got, 1) })
	cancel := h.SubscribeHover(func(*core.Plot) { got = append(got, 2) })
	h.SubscribeHover(func(*core.Plot) { got = append(got, 3) })

	cancel()
	h.PublishHover(&core.Plot{})

	assert.Equal(t, []int{1, 3}, got)
}

func TestHub_SubscriberMayCancelDuringPublish(t *testing.T) {
	h := NewHub()

	var cancel func()
	calls := 0
	cancel = h.SubscribeModeChanged(func(string) {
		calls++
		cancel()
	})

	require.NotPanics(t, func() {
		h.PublishModeChanged("A")
		h.PublishModeChanged("B")
	})
	assert.Equal(t, 1, calls)
}
