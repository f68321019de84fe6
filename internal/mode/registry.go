// Package mode tracks which interface mode is current and routes lifecycle
// and input events to the handler registered for it.
package mode

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmt-mods/placement/pkg/core"
)

// Handler is an interface mode's lifecycle.
type Handler interface {
	Activate(ctx core.ModeContext)
	Deactivate()
	// HandleInput returns true when the input was not consumed.
	HandleInput(ev *core.InputEvent) bool
}

var ErrDuplicateMode = errors.New("mode already registered")

// Registry owns the current mode. Modes without a registered handler, such
// as the host's chooser screen, are valid switch targets.
type Registry struct {
	logger *slog.Logger

	mu        sync.Mutex
	handlers  map[string]Handler
	current   string
	listeners []func(string)
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register binds name to h. Each name may be registered once.
func (r *Registry) Register(name string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMode, name)
	}
	r.handlers[name] = h
	return nil
}

// OnChange adds a listener called after every switch with the new mode name.
func (r *Registry) OnChange(fn func(string)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// SwitchTo deactivates the current mode's handler, activates the handler
// for name and notifies listeners. Switching to the current mode is a no-op.
func (r *Registry) SwitchTo(name string, ctx core.ModeContext) error {
	if name == "" {
		return errors.New("empty mode name")
	}

	r.mu.Lock()
	if name == r.current {
		r.mu.Unlock()
		return nil
	}
	prev := r.handlers[r.current]
	next := r.handlers[name]
	prevName := r.current
	r.current = name
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	// Handlers run unlocked: an accepted placement switches modes from
	// inside its own input path.
	if prev != nil {
		prev.Deactivate()
	}
	if next != nil {
		next.Activate(ctx)
	}

	r.logger.Debug("Interface mode changed", "from", prevName, "to", name, "itemType", ctx.Type)

	for _, fn := range listeners {
		fn(name)
	}
	return nil
}

// Current returns the current mode name, empty before the first switch.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// HandleInput forwards ev to the current handler. Inputs pass through
// when no handler owns the current mode.
func (r *Registry) HandleInput(ev *core.InputEvent) bool {
	r.mu.Lock()
	h := r.handlers[r.current]
	r.mu.Unlock()
	if h == nil {
		return true
	}
	return h.HandleInput(ev)
}
