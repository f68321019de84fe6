package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/pkg/core"
)

// Backend keeps map tacks in memory and exports them to JSON on Flush and
// Close.
type Backend struct {
	cfg       config.MemoryConfig
	sessionID string
	startedAt time.Time

	tacks     []core.MapTack
	idCounter uint

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		startedAt: time.Now().UTC(),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports whatever was recorded. Without an output directory
// nothing is written.
func (b *Backend) Close() error {
	return b.Flush()
}

// SessionID identifies this backend's export file.
func (b *Backend) SessionID() string {
	return b.sessionID
}

// AddMapTack stores a copy of t under the next ID.
func (b *Backend) AddMapTack(t *core.MapTack) (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	record := *t
	record.ID = b.idCounter
	b.tacks = append(b.tacks, record)
	return record.ID, nil
}

// ListMapTacks returns a copy of every tack in ID order.
func (b *Backend) ListMapTacks() ([]core.MapTack, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.MapTack, len(b.tacks))
	copy(out, b.tacks)
	return out, nil
}

// Flush rewrites the export file with the current tacks. Without an
// output directory it does nothing.
func (b *Backend) Flush() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exportJSON()
}

// GetExportedFilePath returns the path of the last export, or "" if none.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
