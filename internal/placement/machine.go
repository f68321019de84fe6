// Package placement implements the map tack placement interface mode: it
// tracks the hovered plot, asks the oracles about it, keeps cursor and
// overlay feedback in sync, and turns a confirmed selection into a map tack.
package placement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/pkg/core"
)

// NoTarget is the hover identity before the first evaluation. No real plot
// index equals it.
const NoTarget = -1

const overlayGroupName = "ClearCityCenterBorderOverlayGroup"

var clearBorderStyle = core.BorderStyle{
	Style:        "CommanderRadius",
	PrimaryColor: [4]float64{1, 1, 1, 1},
}

// ErrProposalInFlight means Propose was called while an earlier proposal
// had not been resolved. Confirm events must be serialized by the caller.
var ErrProposalInFlight = errors.New("a plot is already being proposed")

// ErrNotActive means Propose was called while the mode is not current.
var ErrNotActive = errors.New("placement mode is not active")

type State int

const (
	Inactive State = iota
	Active
	Proposing
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Proposing:
		return "proposing"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Machine is the placement mode handler. All methods are safe for
// concurrent use, but hover and confirm events are expected in host order.
type Machine struct {
	cfg    config.PlacementConfig
	deps   Dependencies
	logger *slog.Logger

	evaluations metric.Int64Counter
	proposals   metric.Int64Counter

	mu         sync.Mutex
	state      State
	itemType   core.ItemType
	cityCenter bool
	hover      int
	eval       evaluation
	proposing  bool
	group      OverlayGroup
	unsubHover func()
	unsubMode  func()
}

// New builds a Machine. Every dependency except Recorder is required.
func New(cfg config.PlacementConfig, deps Dependencies, logger *slog.Logger) (*Machine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Machine{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "placement"),
		hover:  NoTarget,
	}

	var err error
	mtr := meter()
	m.evaluations, err = mtr.Int64Counter(
		"placement.hover.evaluations",
		metric.WithDescription("Hover targets evaluated by the validity oracle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluations counter: %w", err)
	}
	m.proposals, err = mtr.Int64Counter(
		"placement.proposals",
		metric.WithDescription("Placement proposals by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating proposals counter: %w", err)
	}

	return m, nil
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the verdict and preview currently shown.
func (m *Machine) Snapshot() core.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eval.snapshot()
}

// Activate enters the mode for the item type in ctx.
func (m *Machine) Activate(ctx core.ModeContext) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Inactive {
		m.logger.Warn("Activate without Deactivate, releasing previous activation", "state", m.state)
		m.release()
	}

	m.itemType = ctx.Type
	m.cityCenter = m.deps.Classifier.IsCityCenter(ctx.Type)
	m.hover = NoTarget
	m.eval = evaluation{}
	m.proposing = false
	m.state = Active

	m.deps.Cursor.Lock(true)
	m.deps.Cursor.SetURL(m.cfg.PlaceCursor)

	m.unsubHover = m.deps.Events.SubscribeHover(m.OnHoverMoved)
	m.unsubMode = m.deps.Events.SubscribeModeChanged(m.onModeChanged)

	m.deps.Visibility.SetUnitVisibility(false)
	m.deps.Input.SetActiveContext(core.InputContextWorld)

	if m.cityCenter {
		for _, layer := range m.cfg.Layers {
			m.deps.Visibility.EnableLayer(layer)
		}
		if m.group == nil {
			m.group = m.deps.Overlay.CreateGroup(overlayGroupName, core.OverlayPriorityCultureBorder)
		}
	}

	m.logger.Debug("Placement mode activated", "itemType", m.itemType, "cityCenter", m.cityCenter)
}

// Deactivate leaves the mode. It runs its cleanup whatever the proposal
// state and disables every layer even if Activate never enabled them.
func (m *Machine) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
	m.logger.Debug("Placement mode deactivated", "itemType", m.itemType)
}

func (m *Machine) release() {
	if m.group != nil {
		m.group.ClearAll()
	}
	for _, layer := range m.cfg.Layers {
		m.deps.Visibility.DisableLayer(layer)
	}
	if m.unsubHover != nil {
		m.unsubHover()
		m.unsubHover = nil
	}
	if m.unsubMode != nil {
		m.unsubMode()
		m.unsubMode = nil
	}
	m.deps.Visibility.SetUnitVisibility(true)
	m.deps.Cursor.Lock(false)
	m.state = Inactive
}

func (m *Machine) onModeChanged(mode string) {
	if mode != m.cfg.ModeName {
		return
	}
	m.mu.Lock()
	itemType := m.itemType
	m.mu.Unlock()

	if err := m.deps.Presenter.OnModeChanged(itemType); err != nil {
		m.logger.Warn("Failed to attach placement panel", "error", err)
	}
}

// OnHoverMoved evaluates plot if it differs from the last evaluated one.
// A nil plot (cursor off the map) keeps the current feedback.
func (m *Machine) OnHoverMoved(plot *core.Plot) {
	if plot == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Inactive {
		return
	}

	idx := m.deps.Geometry.PlotIndex(plot.X, plot.Y)
	if idx == NoTarget || idx == m.hover {
		return
	}
	m.hover = idx

	c := core.PlacementCandidate{X: plot.X, Y: plot.Y, ItemType: m.itemType}
	verdict := m.deps.Validity.Evaluate(c.X, c.Y, c.ItemType)
	if verdict.PreventPlacement {
		m.deps.Cursor.SetURL(m.cfg.CantPlaceCursor)
		m.eval = prevented(c, verdict)
	} else {
		m.deps.Cursor.SetURL(m.cfg.PlaceCursor)
		m.eval = allowed(c, verdict, m.deps.Yield.Evaluate(c.X, c.Y, c.ItemType))
	}

	m.deps.Presenter.Push(m.eval.snapshot())

	if m.cityCenter {
		m.drawBorder(c)
	}

	m.evaluations.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("itemType", string(c.ItemType)),
		attribute.Bool("prevented", verdict.PreventPlacement),
	))
	if r := m.deps.Recorder; r != nil {
		r.RecordEvaluation(c.ItemType, c.X, c.Y, verdict.PreventPlacement)
	}
}

func (m *Machine) drawBorder(c core.PlacementCandidate) {
	if m.group == nil {
		return
	}
	m.group.ClearAll()
	plots := m.deps.Geometry.PlotsInRadius(c.X, c.Y, m.cfg.BorderRadius)
	m.group.AddBorderOverlay(clearBorderStyle).SetPlotGroups(plots, 0)
}

// Propose tries to place the tack at plot using the verdict from the last
// hover evaluation. It reports whether the placement was accepted. A
// rejection is not an error.
func (m *Machine) Propose(plot core.Plot) (bool, error) {
	m.mu.Lock()
	if m.state == Inactive {
		m.mu.Unlock()
		return false, ErrNotActive
	}
	if m.proposing {
		m.mu.Unlock()
		return false, ErrProposalInFlight
	}
	m.proposing = true
	m.state = Proposing

	itemType := m.itemType
	if m.eval.verdict.PreventPlacement {
		m.proposing = false
		m.state = Active
		m.mu.Unlock()
		m.recordProposal(itemType, plot, false)
		m.logger.Debug("Placement rejected", "x", plot.X, "y", plot.Y, "itemType", itemType)
		return false, nil
	}

	tack := m.commitRecord(plot)
	// The flag stays set: the mode switch below deactivates this machine.
	m.state = Committed
	m.mu.Unlock()

	m.deps.Commit.AddMapTack(tack)
	m.deps.Audio.Play(m.cfg.ConfirmSound, m.cfg.ConfirmSoundGroup)
	if err := m.deps.Modes.SwitchTo(m.cfg.ChooserModeName, core.ModeContext{}); err != nil {
		m.logger.Error("Failed to return to chooser", "mode", m.cfg.ChooserModeName, "error", err)
	}

	m.recordProposal(itemType, plot, true)
	m.logger.Debug("Placement accepted", "x", plot.X, "y", plot.Y, "itemType", itemType)
	return true, nil
}

// commitRecord builds the placement record. Callers hold mu.
func (m *Machine) commitRecord(plot core.Plot) core.MapTack {
	return core.MapTack{
		X:            plot.X,
		Y:            plot.Y,
		Type:         m.itemType,
		ClassType:    m.deps.Classifier.ClassTypeOf(m.itemType),
		ValidStatus:  m.eval.verdict,
		YieldDetails: m.eval.preview,
	}
}

func (m *Machine) recordProposal(itemType core.ItemType, plot core.Plot, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.proposals.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("itemType", string(itemType)),
		attribute.String("outcome", outcome),
	))
	if r := m.deps.Recorder; r != nil {
		r.RecordProposal(itemType, plot.X, plot.Y, accepted)
	}
}

// HandleInput consumes finished cancel and system menu inputs by returning
// to the chooser. It returns true for every input it leaves alone.
func (m *Machine) HandleInput(ev *core.InputEvent) bool {
	if ev.Status != core.InputStatusFinish {
		return true
	}
	if !ev.IsCancelInput() && ev.Name != core.InputNameSysMenu {
		return true
	}

	m.mu.Lock()
	prev := m.state
	if prev != Inactive {
		m.state = Cancelled
	}
	m.mu.Unlock()

	if err := m.deps.Modes.SwitchTo(m.cfg.ChooserModeName, core.ModeContext{}); err != nil {
		m.logger.Error("Failed to return to chooser", "mode", m.cfg.ChooserModeName, "error", err)
		// still in the mode, so keep taking hovers and proposals
		m.mu.Lock()
		if m.state == Cancelled {
			m.state = prev
		}
		m.mu.Unlock()
	}
	ev.StopPropagation()
	ev.PreventDefault()
	return false
}
