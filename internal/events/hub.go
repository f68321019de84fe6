// Package events delivers host-originated hover and mode-change
// notifications to whoever subscribed during their lifecycle.
package events

import (
	"sync"

	"github.com/dmt-mods/placement/pkg/core"
)

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

type topic[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

func (t *topic[T]) subscribe(fn func(T)) func() {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, s := range t.subs {
				if s.id == id {
					t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// publish calls subscribers in subscription order, outside the lock so a
// subscriber may unsubscribe itself or publish again.
func (t *topic[T]) publish(v T) {
	t.mu.Lock()
	subs := make([]subscriber[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

func (t *topic[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Hub fans out hover and mode-change events.
type Hub struct {
	hover topic[*core.Plot]
	mode  topic[string]
}

func NewHub() *Hub {
	return &Hub{}
}

// SubscribeHover registers fn for cursor movement. A nil plot means the
// cursor left the map. The returned func cancels the subscription and is
// safe to call more than once.
func (h *Hub) SubscribeHover(fn func(*core.Plot)) func() {
	return h.hover.subscribe(fn)
}

// SubscribeModeChanged registers fn for interface mode changes.
func (h *Hub) SubscribeModeChanged(fn func(string)) func() {
	return h.mode.subscribe(fn)
}

func (h *Hub) PublishHover(plot *core.Plot) {
	h.hover.publish(plot)
}

func (h *Hub) PublishModeChanged(mode string) {
	h.mode.publish(mode)
}

// Subscribers reports current hover and mode-change subscriber counts.
func (h *Hub) Subscribers() (hover, mode int) {
	return h.hover.len(), h.mode.len()
}
