// Package host turns placement effects into extension callbacks and
// answers UI tree lookups through host queries.
package host

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmt-mods/placement/internal/bridge"
	"github.com/dmt-mods/placement/internal/placement"
	"github.com/dmt-mods/placement/pkg/core"
)

// Callback and query function names.
const (
	FnCursorLock    = ":CURSOR:LOCK:"
	FnCursorSet     = ":CURSOR:SET:"
	FnLayerEnable   = ":LAYER:ENABLE:"
	FnLayerDisable  = ":LAYER:DISABLE:"
	FnUnitsVisible  = ":UNITS:VISIBLE:"
	FnInputContext  = ":INPUT:CONTEXT:"
	FnOverlayCreate = ":OVERLAY:CREATE:"
	FnOverlayClear  = ":OVERLAY:CLEAR:"
	FnOverlayBorder = ":OVERLAY:BORDER:"
	FnAudioPlay     = ":AUDIO:PLAY:"
	FnUICreate      = ":UI:CREATE:"
	FnUIAppend      = ":UI:APPEND:"
	FnUIAttr        = ":UI:ATTR:"
	FnModeChanged   = ":MODE:CHANGED:"

	QueryUISelect = ":UI:QUERY:"
	QueryUIParent = ":UI:PARENT:"
)

// Transport carries calls to the host.
type Transport interface {
	Call(function string, args ...any) error
	Query(function string, args ...any) (string, error)
}

// Client adapts a Transport to the placement and bridge collaborator
// interfaces. Effects cannot fail from the caller's point of view, so
// transport errors are logged.
type Client struct {
	t      Transport
	logger *slog.Logger
}

var (
	_ placement.Cursor          = (*Client)(nil)
	_ placement.Visibility      = (*Client)(nil)
	_ placement.InputFocus      = (*Client)(nil)
	_ placement.OverlayRenderer = (*Client)(nil)
	_ placement.Audio           = (*Client)(nil)
	_ bridge.Document           = (*Client)(nil)
)

func NewClient(t Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{t: t, logger: logger.With("component", "host")}
}

func (c *Client) call(function string, args ...any) {
	if err := c.t.Call(function, args...); err != nil {
		c.logger.Warn("Host callback failed", "function", function, "error", err)
	}
}

func (c *Client) Lock(locked bool)  { c.call(FnCursorLock, locked) }
func (c *Client) SetURL(url string) { c.call(FnCursorSet, url) }

func (c *Client) EnableLayer(name string)        { c.call(FnLayerEnable, name) }
func (c *Client) DisableLayer(name string)       { c.call(FnLayerDisable, name) }
func (c *Client) SetUnitVisibility(visible bool) { c.call(FnUnitsVisible, visible) }

func (c *Client) SetActiveContext(ctx core.InputContext) { c.call(FnInputContext, string(ctx)) }

func (c *Client) Play(sound, group string) { c.call(FnAudioPlay, sound, group) }

// NotifyModeChanged tells the host which interface mode is now current.
func (c *Client) NotifyModeChanged(mode string) { c.call(FnModeChanged, mode) }

// CreateGroup asks the host for a new overlay group, addressed by a
// generated handle from then on.
func (c *Client) CreateGroup(name string, priority core.OverlayPriority) placement.OverlayGroup {
	g := &overlayGroup{c: c, id: uuid.NewString()}
	c.call(FnOverlayCreate, g.id, name, string(priority))
	return g
}

type overlayGroup struct {
	c  *Client
	id string
}

func (g *overlayGroup) ClearAll() { g.c.call(FnOverlayClear, g.id) }

func (g *overlayGroup) AddBorderOverlay(style core.BorderStyle) placement.BorderOverlay {
	return &borderOverlay{g: g, id: uuid.NewString(), style: style}
}

type borderOverlay struct {
	g     *overlayGroup
	id    string
	style core.BorderStyle
}

// SetPlotGroups draws the border. The host creates the border lazily on
// the first draw since an undrawn border has no visible effect.
func (b *borderOverlay) SetPlotGroups(plots []int, group int) {
	if plots == nil {
		plots = []int{}
	}
	b.g.c.call(FnOverlayBorder, b.g.id, b.id, b.style, plots, group)
}

// QuerySelector looks up the first UI element matching selector.
func (c *Client) QuerySelector(selector string) (bridge.Node, bool) {
	h, err := c.queryHandle(QueryUISelect, selector)
	if err != nil {
		c.logger.Warn("UI query failed", "selector", selector, "error", err)
		return nil, false
	}
	if h == "" {
		return nil, false
	}
	return &node{c: c, handle: h}, true
}

// CreateElement creates a detached element the host will know by a new handle.
func (c *Client) CreateElement(tag string) bridge.Node {
	n := &node{c: c, handle: uuid.NewString()}
	c.call(FnUICreate, n.handle, tag)
	return n
}

// queryHandle decodes a reply that is a JSON string handle, or null/empty
// when nothing matched.
func (c *Client) queryHandle(function string, args ...any) (string, error) {
	reply, err := c.t.Query(function, args...)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", nil
	}
	var h *string
	if err := json.Unmarshal([]byte(reply), &h); err != nil {
		return "", fmt.Errorf("decoding %s reply %q: %w", function, reply, err)
	}
	if h == nil {
		return "", nil
	}
	return *h, nil
}

type node struct {
	c      *Client
	handle string
}

func (n *node) SetAttribute(name, value string) { n.c.call(FnUIAttr, n.handle, name, value) }

func (n *node) Parent() (bridge.Node, bool) {
	h, err := n.c.queryHandle(QueryUIParent, n.handle)
	if err != nil {
		n.c.logger.Warn("UI parent query failed", "handle", n.handle, "error", err)
		return nil, false
	}
	if h == "" {
		return nil, false
	}
	return &node{c: n.c, handle: h}, true
}

func (n *node) AppendChild(child bridge.Node) {
	cn, ok := child.(*node)
	if !ok {
		n.c.logger.Error("Cannot append foreign UI node", "parent", n.handle)
		return
	}
	n.c.call(FnUIAppend, n.handle, cn.handle)
}
