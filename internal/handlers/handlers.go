// Package handlers binds the host's inbound commands to the placement
// services.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmt-mods/placement/internal/dispatcher"
	"github.com/dmt-mods/placement/internal/events"
	"github.com/dmt-mods/placement/internal/mode"
	"github.com/dmt-mods/placement/internal/placement"
	"github.com/dmt-mods/placement/internal/registry"
	"github.com/dmt-mods/placement/internal/util"
	"github.com/dmt-mods/placement/pkg/core"
)

// Inbound command names.
const (
	CmdVersion    = ":VERSION:"
	CmdModeSwitch = ":MODE:SWITCH:"
	CmdPlotCursor = ":PLOT:CURSOR:"
	CmdInput      = ":INPUT:"
	CmdSelectPlot = ":SELECT:PLOT:"
	CmdListTacks  = ":MAPTACKS:LIST:"
	CmdSave       = ":SAVE:"
)

var inputStatuses = []string{
	string(core.InputStatusStart),
	string(core.InputStatusUpdate),
	string(core.InputStatusFinish),
}

// Flusher is anything :SAVE: pushes to durable storage.
type Flusher interface {
	Flush() error
}

// FlushFunc adapts a plain function to Flusher.
type FlushFunc func() error

func (f FlushFunc) Flush() error { return f() }

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Hub      *events.Hub
	Modes    *mode.Registry
	Machine  *placement.Machine
	Registry *registry.Service
	// Flushers run on :SAVE: after the registry.
	Flushers []Flusher
	Logger   *slog.Logger

	ExtensionVersion string
	BuildDate        string
}

// Service provides the command handlers.
type Service struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger.With("component", "handlers")}
}

// Register binds every command to d. Commands that touch the placement
// machine are serialized so host order is kept.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdVersion, s.handleVersion)
	d.Register(CmdModeSwitch, s.handleModeSwitch, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CmdPlotCursor, s.handlePlotCursor, dispatcher.Serialized())
	d.Register(CmdInput, s.handleInput, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CmdSelectPlot, s.handleSelectPlot, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CmdListTacks, s.handleListTacks, dispatcher.Logged())
	d.Register(CmdSave, s.handleSave, dispatcher.Logged())
}

func (s *Service) handleVersion(dispatcher.Event) (any, error) {
	return []string{s.deps.ExtensionVersion, s.deps.BuildDate}, nil
}

// handleModeSwitch expects the target mode and an optional JSON context.
func (s *Service) handleModeSwitch(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("expected mode name, got %d args", len(e.Args))
	}
	name := util.CleanArg(e.Args[0])
	if name == "" {
		return nil, errors.New("empty mode name")
	}

	var ctx core.ModeContext
	if len(e.Args) > 1 {
		raw := util.CleanArg(e.Args[1])
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
				return nil, fmt.Errorf("invalid mode context: %w", err)
			}
		}
	}

	if err := s.deps.Modes.SwitchTo(name, ctx); err != nil {
		return nil, fmt.Errorf("switch to %s: %w", name, err)
	}
	return name, nil
}

// handlePlotCursor publishes the hovered plot. No args, or a first arg of
// "none", means the cursor left the map.
func (s *Service) handlePlotCursor(e dispatcher.Event) (any, error) {
	if offMap(e.Args) {
		s.deps.Hub.PublishHover(nil)
		return nil, nil
	}
	plot, err := parsePlot(e.Args)
	if err != nil {
		return nil, err
	}
	s.deps.Hub.PublishHover(&plot)
	return nil, nil
}

func offMap(args []string) bool {
	if len(args) == 0 {
		return true
	}
	first := strings.ToLower(util.CleanArg(args[0]))
	return first == "" || first == "none" || first == "nil"
}

// handleInput routes the action to the current mode. The reply tells the
// host whether to run its default handling.
func (s *Service) handleInput(e dispatcher.Event) (any, error) {
	if len(e.Args) < 2 {
		return nil, fmt.Errorf("expected name and status, got %d args", len(e.Args))
	}
	status := strings.ToLower(util.CleanArg(e.Args[1]))
	if !util.Contains(inputStatuses, status) {
		return nil, fmt.Errorf("unknown input status: %q", status)
	}

	ev := &core.InputEvent{
		Name:   util.CleanArg(e.Args[0]),
		Status: core.InputStatus(status),
	}
	if len(e.Args) > 2 {
		cancel, err := util.ParseBoolArg(e.Args[2])
		if err != nil {
			return nil, fmt.Errorf("isCancel: %w", err)
		}
		ev.Cancel = cancel
	}

	unconsumed := s.deps.Modes.HandleInput(ev)
	return map[string]bool{
		"handled":          !unconsumed,
		"stopPropagation":  ev.PropagationStopped(),
		"defaultPrevented": ev.DefaultPrevented(),
	}, nil
}

func (s *Service) handleSelectPlot(e dispatcher.Event) (any, error) {
	plot, err := parsePlot(e.Args)
	if err != nil {
		return nil, err
	}
	accepted, err := s.deps.Machine.Propose(plot)
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

func (s *Service) handleListTacks(dispatcher.Event) (any, error) {
	tacks, err := s.deps.Registry.List()
	if err != nil {
		return nil, fmt.Errorf("list map tacks: %w", err)
	}
	out, err := json.Marshal(tacks)
	if err != nil {
		return nil, fmt.Errorf("encode map tacks: %w", err)
	}
	return string(out), nil
}

// handleSave flushes everything and reports every failure, not just the first.
func (s *Service) handleSave(dispatcher.Event) (any, error) {
	var errs []error
	if err := s.deps.Registry.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("registry: %w", err))
	}
	for _, f := range s.deps.Flushers {
		if err := f.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	s.logger.Info("Saved map tacks")
	return "ok", nil
}

func parsePlot(args []string) (core.Plot, error) {
	if len(args) < 2 {
		return core.Plot{}, fmt.Errorf("expected x and y, got %d args", len(args))
	}
	x, err := util.ParseIntArg(args[0])
	if err != nil {
		return core.Plot{}, fmt.Errorf("x: %w", err)
	}
	y, err := util.ParseIntArg(args[1])
	if err != nil {
		return core.Plot{}, fmt.Errorf("y: %w", err)
	}
	return core.Plot{X: x, Y: y}, nil
}
