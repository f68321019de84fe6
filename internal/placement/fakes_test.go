package placement

import (
	"fmt"

	"github.com/dmt-mods/placement/pkg/core"
)

// fakeHost implements every collaborator and records what it was asked to do.
type fakeHost struct {
	verdicts map[core.Plot]core.ValidityVerdict
	yields   map[core.Plot]core.YieldPreview

	validityCalls []core.PlacementCandidate
	yieldCalls    []core.PlacementCandidate

	cityCenters map[core.ItemType]bool

	hoverSubs map[int]func(*core.Plot)
	modeSubs  map[int]func(string)
	nextSub   int

	cursorLocked bool
	cursorURLs   []string

	enabledLayers  []string
	disabledLayers []string
	unitsVisible   []bool
	inputContexts  []core.InputContext

	groups []*fakeGroup

	sounds   []string
	commits  []core.MapTack
	switches []string

	attachedFor []core.ItemType
	attachErr   error
	pushes      []core.Snapshot

	evaluations []string
	proposals   []string

	// onSwitch runs inside SwitchTo, e.g. to deactivate the machine.
	onSwitch  func(mode string)
	switchErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		verdicts:    map[core.Plot]core.ValidityVerdict{},
		yields:      map[core.Plot]core.YieldPreview{},
		cityCenters: map[core.ItemType]bool{"CITY_CENTER": true},
		hoverSubs:   map[int]func(*core.Plot){},
		modeSubs:    map[int]func(string){},
	}
}

var (
	_ ValidityOracle  = (*fakeValidity)(nil)
	_ YieldOracle     = (*fakeYield)(nil)
	_ Classifier      = (*fakeHost)(nil)
	_ MapGeometry     = (*fakeHost)(nil)
	_ EventSource     = (*fakeHost)(nil)
	_ Cursor          = (*fakeHost)(nil)
	_ Visibility      = (*fakeHost)(nil)
	_ InputFocus      = (*fakeHost)(nil)
	_ OverlayRenderer = (*fakeHost)(nil)
	_ Audio           = (*fakeHost)(nil)
	_ CommitSink      = (*fakeHost)(nil)
	_ ModeSwitcher    = (*fakeHost)(nil)
	_ Presenter       = (*fakeHost)(nil)
	_ Recorder        = (*fakeHost)(nil)
)

type fakeValidity struct{ h *fakeHost }

func (f fakeValidity) Evaluate(x, y int, itemType core.ItemType) core.ValidityVerdict {
	f.h.validityCalls = append(f.h.validityCalls, core.PlacementCandidate{X: x, Y: y, ItemType: itemType})
	return f.h.verdicts[core.Plot{X: x, Y: y}]
}

type fakeYield struct{ h *fakeHost }

func (f fakeYield) Evaluate(x, y int, itemType core.ItemType) core.YieldPreview {
	f.h.yieldCalls = append(f.h.yieldCalls, core.PlacementCandidate{X: x, Y: y, ItemType: itemType})
	if p, ok := f.h.yields[core.Plot{X: x, Y: y}]; ok {
		return p
	}
	return core.YieldPreview{"food": 2}
}

func (h *fakeHost) IsCityCenter(itemType core.ItemType) bool { return h.cityCenters[itemType] }

func (h *fakeHost) ClassTypeOf(itemType core.ItemType) core.ClassType {
	return core.ClassType("CLASS_" + string(itemType))
}

const mapWidth = 100

func (h *fakeHost) PlotIndex(x, y int) int {
	if x < 0 || y < 0 || x >= mapWidth {
		return NoTarget
	}
	return y*mapWidth + x
}

func (h *fakeHost) PlotsInRadius(x, y, radius int) []int {
	var out []int
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if idx := h.PlotIndex(x+dx, y+dy); idx != NoTarget {
				out = append(out, idx)
			}
		}
	}
	return out
}

func (h *fakeHost) SubscribeHover(fn func(*core.Plot)) func() {
	h.nextSub++
	id := h.nextSub
	h.hoverSubs[id] = fn
	return func() { delete(h.hoverSubs, id) }
}

func (h *fakeHost) SubscribeModeChanged(fn func(string)) func() {
	h.nextSub++
	id := h.nextSub
	h.modeSubs[id] = fn
	return func() { delete(h.modeSubs, id) }
}

func (h *fakeHost) hoverTo(p *core.Plot) {
	for _, fn := range h.hoverSubs {
		fn(p)
	}
}

func (h *fakeHost) modeChanged(mode string) {
	for _, fn := range h.modeSubs {
		fn(mode)
	}
}

func (h *fakeHost) Lock(locked bool)  { h.cursorLocked = locked }
func (h *fakeHost) SetURL(url string) { h.cursorURLs = append(h.cursorURLs, url) }

func (h *fakeHost) lastCursor() string {
	if len(h.cursorURLs) == 0 {
		return ""
	}
	return h.cursorURLs[len(h.cursorURLs)-1]
}

func (h *fakeHost) EnableLayer(name string)        { h.enabledLayers = append(h.enabledLayers, name) }
func (h *fakeHost) DisableLayer(name string)       { h.disabledLayers = append(h.disabledLayers, name) }
func (h *fakeHost) SetUnitVisibility(visible bool) { h.unitsVisible = append(h.unitsVisible, visible) }

func (h *fakeHost) SetActiveContext(ctx core.InputContext) {
	h.inputContexts = append(h.inputContexts, ctx)
}

type fakeGroup struct {
	name     string
	priority core.OverlayPriority
	clears   int
	borders  []*fakeBorder
}

type fakeBorder struct {
	style core.BorderStyle
	plots []int
	group int
}

func (g *fakeGroup) ClearAll() {
	g.clears++
	g.borders = nil
}

func (g *fakeGroup) AddBorderOverlay(style core.BorderStyle) BorderOverlay {
	b := &fakeBorder{style: style, group: -1}
	g.borders = append(g.borders, b)
	return b
}

func (b *fakeBorder) SetPlotGroups(plots []int, group int) {
	b.plots = plots
	b.group = group
}

func (h *fakeHost) CreateGroup(name string, priority core.OverlayPriority) OverlayGroup {
	g := &fakeGroup{name: name, priority: priority}
	h.groups = append(h.groups, g)
	return g
}

func (h *fakeHost) Play(sound, group string) { h.sounds = append(h.sounds, sound+"@"+group) }

func (h *fakeHost) AddMapTack(tack core.MapTack) { h.commits = append(h.commits, tack) }

func (h *fakeHost) SwitchTo(mode string, ctx core.ModeContext) error {
	h.switches = append(h.switches, mode)
	if h.switchErr != nil {
		return h.switchErr
	}
	if h.onSwitch != nil {
		h.onSwitch(mode)
	}
	return nil
}

func (h *fakeHost) OnModeChanged(itemType core.ItemType) error {
	h.attachedFor = append(h.attachedFor, itemType)
	return h.attachErr
}

func (h *fakeHost) Push(s core.Snapshot) { h.pushes = append(h.pushes, s) }

func (h *fakeHost) RecordEvaluation(itemType core.ItemType, x, y int, prevented bool) {
	h.evaluations = append(h.evaluations, fmt.Sprintf("%s(%d,%d)=%v", itemType, x, y, prevented))
}

func (h *fakeHost) RecordProposal(itemType core.ItemType, x, y int, accepted bool) {
	h.proposals = append(h.proposals, fmt.Sprintf("%s(%d,%d)=%v", itemType, x, y, accepted))
}

func (h *fakeHost) deps() Dependencies {
	return Dependencies{
		Validity:   fakeValidity{h},
		Yield:      fakeYield{h},
		Classifier: h,
		Geometry:   h,
		Events:     h,
		Cursor:     h,
		Visibility: h,
		Input:      h,
		Overlay:    h,
		Audio:      h,
		Commit:     h,
		Modes:      h,
		Presenter:  h,
		Recorder:   h,
	}
}
