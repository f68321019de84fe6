package core

// InputStatus is the lifecycle phase of an input action.
type InputStatus string

const (
	InputStatusStart  InputStatus = "start"
	InputStatusUpdate InputStatus = "update"
	InputStatusFinish InputStatus = "finish"
)

// InputNameSysMenu is the action name of the system menu input.
const InputNameSysMenu = "sys-menu"

// InputContext selects which input space receives focus.
type InputContext string

const (
	InputContextWorld InputContext = "World"
	InputContextShell InputContext = "Shell"
)

// InputEvent is an input action forwarded by the host.
type InputEvent struct {
	Name   string
	Status InputStatus
	Cancel bool

	stopped   bool
	prevented bool
}

// IsCancelInput reports whether the host classified the action as a cancel.
func (e *InputEvent) IsCancelInput() bool {
	return e.Cancel
}

// StopPropagation marks the event as not to be forwarded further.
func (e *InputEvent) StopPropagation() {
	e.stopped = true
}

// PreventDefault marks the event's default handling as suppressed.
func (e *InputEvent) PreventDefault() {
	e.prevented = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *InputEvent) PropagationStopped() bool {
	return e.stopped
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *InputEvent) DefaultPrevented() bool {
	return e.prevented
}
