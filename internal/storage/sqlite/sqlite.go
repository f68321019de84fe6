// Package sqlitestorage keeps map tacks in an in-memory SQLite database and
// periodically snapshots it to disk via VACUUM INTO. Row handling is the
// GORM backend's; this package only owns the database and the dumps.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dmt-mods/placement/internal/database"
	gormstorage "github.com/dmt-mods/placement/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
	SessionID    string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	logger   *slog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	dumpMu   sync.Mutex
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:        db,
			SessionID: cfg.SessionID,
			Logger:    logger,
		}),
		db:       db,
		cfg:      cfg,
		logger:   logger.With("component", "storage", "backend", "sqlite"),
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Flush writes queued rows and snapshots the database.
func (b *Backend) Flush() error {
	if err := b.Backend.Flush(); err != nil {
		return err
	}
	return b.dump()
}

// Close stops the dump goroutine, closes the GORM backend and takes a
// final snapshot.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.dump()
}

func (b *Backend) dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()

	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.logger.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk.
// VACUUM INTO takes a point-in-time snapshot, so writers are not paused.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.dump(); err != nil {
				b.logger.Error("Error dumping to disk", "error", err)
			}
		}
	}
}
