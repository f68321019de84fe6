package placement

import (
	"errors"

	"github.com/dmt-mods/placement/pkg/core"
)

// ValidityOracle decides whether an item may be placed at a plot.
type ValidityOracle interface {
	Evaluate(x, y int, itemType core.ItemType) core.ValidityVerdict
}

// YieldOracle projects the yields of placing an item at a plot.
type YieldOracle interface {
	Evaluate(x, y int, itemType core.ItemType) core.YieldPreview
}

// Classifier answers questions about item types.
type Classifier interface {
	IsCityCenter(itemType core.ItemType) bool
	ClassTypeOf(itemType core.ItemType) core.ClassType
}

// MapGeometry maps coordinates to plot indices.
type MapGeometry interface {
	// PlotIndex returns NoTarget when (x, y) is not on the map.
	PlotIndex(x, y int) int
	PlotsInRadius(x, y, radius int) []int
}

// EventSource delivers hover and mode-change notifications. Each subscribe
// returns a func that cancels the subscription.
type EventSource interface {
	SubscribeHover(fn func(*core.Plot)) func()
	SubscribeModeChanged(fn func(string)) func()
}

type Cursor interface {
	Lock(locked bool)
	SetURL(url string)
}

type Visibility interface {
	EnableLayer(name string)
	DisableLayer(name string)
	SetUnitVisibility(visible bool)
}

type InputFocus interface {
	SetActiveContext(ctx core.InputContext)
}

type OverlayRenderer interface {
	CreateGroup(name string, priority core.OverlayPriority) OverlayGroup
}

type OverlayGroup interface {
	ClearAll()
	AddBorderOverlay(style core.BorderStyle) BorderOverlay
}

type BorderOverlay interface {
	SetPlotGroups(plots []int, group int)
}

type Audio interface {
	Play(sound, group string)
}

// CommitSink receives accepted placements.
type CommitSink interface {
	AddMapTack(tack core.MapTack)
}

// ModeSwitcher requests a transition to another interface mode.
type ModeSwitcher interface {
	SwitchTo(mode string, ctx core.ModeContext) error
}

// Presenter shows the placement details panel.
type Presenter interface {
	OnModeChanged(itemType core.ItemType) error
	Push(snapshot core.Snapshot)
}

// Recorder receives placement outcomes for telemetry.
type Recorder interface {
	RecordEvaluation(itemType core.ItemType, x, y int, prevented bool)
	RecordProposal(itemType core.ItemType, x, y int, accepted bool)
}

// Dependencies are the collaborators a Machine drives. Recorder is optional.
type Dependencies struct {
	Validity   ValidityOracle
	Yield      YieldOracle
	Classifier Classifier
	Geometry   MapGeometry
	Events     EventSource
	Cursor     Cursor
	Visibility Visibility
	Input      InputFocus
	Overlay    OverlayRenderer
	Audio      Audio
	Commit     CommitSink
	Modes      ModeSwitcher
	Presenter  Presenter
	Recorder   Recorder
}

func (d Dependencies) validate() error {
	var errs []error
	check := func(name string, ok bool) {
		if !ok {
			errs = append(errs, errors.New("missing dependency: "+name))
		}
	}
	check("Validity", d.Validity != nil)
	check("Yield", d.Yield != nil)
	check("Classifier", d.Classifier != nil)
	check("Geometry", d.Geometry != nil)
	check("Events", d.Events != nil)
	check("Cursor", d.Cursor != nil)
	check("Visibility", d.Visibility != nil)
	check("Input", d.Input != nil)
	check("Overlay", d.Overlay != nil)
	check("Audio", d.Audio != nil)
	check("Commit", d.Commit != nil)
	check("Modes", d.Modes != nil)
	check("Presenter", d.Presenter != nil)
	return errors.Join(errs...)
}
