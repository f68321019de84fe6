// Package bridge keeps the placement details panel in the host UI tree in
// sync with the placement machine.
package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/pkg/core"
)

const (
	AttrItemType         = "item-type"
	AttrPlacementDetails = "placement-details"
)

// Document is the part of the host UI tree the bridge needs.
type Document interface {
	QuerySelector(selector string) (Node, bool)
	CreateElement(tag string) Node
}

type Node interface {
	SetAttribute(name, value string)
	Parent() (Node, bool)
	AppendChild(child Node)
}

// Bridge attaches the panel lazily and pushes snapshots to it.
type Bridge struct {
	cfg    config.PanelConfig
	doc    Document
	logger *slog.Logger

	mu    sync.Mutex
	panel Node
}

func New(cfg config.PanelConfig, doc Document, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{cfg: cfg, doc: doc, logger: logger}
}

// OnModeChanged finds or creates the panel and tags it with itemType.
// A new panel is appended to the parent of the configured anchor.
func (b *Bridge) OnModeChanged(itemType core.ItemType) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	panel, ok := b.doc.QuerySelector(b.cfg.Tag)
	if !ok {
		anchor, found := b.doc.QuerySelector(b.cfg.AnchorSelector)
		if !found {
			return fmt.Errorf("panel anchor %q not found", b.cfg.AnchorSelector)
		}
		parent, found := anchor.Parent()
		if !found {
			return fmt.Errorf("panel anchor %q has no parent", b.cfg.AnchorSelector)
		}
		panel = b.doc.CreateElement(b.cfg.Tag)
		parent.AppendChild(panel)
		b.logger.Debug("Placement panel created", "tag", b.cfg.Tag)
	}

	b.panel = panel
	panel.SetAttribute(AttrItemType, string(itemType))
	return nil
}

// Push writes s to the panel. Without a panel it does nothing.
func (b *Bridge) Push(s core.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.panel == nil {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		b.logger.Error("Failed to encode placement details", "error", err)
		return
	}
	b.panel.SetAttribute(AttrPlacementDetails, string(payload))
}

// Attached reports whether a panel has been found or created.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.panel != nil
}
