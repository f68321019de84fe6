// Package postgres stores map tacks in PostgreSQL/PostGIS through the GORM
// backend. The connection is opened lazily on Init.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/database"
	gormstorage "github.com/dmt-mods/placement/internal/storage/gorm"
	"github.com/dmt-mods/placement/pkg/core"
)

var errNotInitialized = errors.New("postgres backend not initialized")

// Backend is a storage.Backend on Postgres.
type Backend struct {
	cfg       config.DBConfig
	sessionID string
	logger    *slog.Logger

	inner *gormstorage.Backend
}

func New(cfg config.DBConfig, sessionID string, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, sessionID: sessionID, logger: logger}
}

// Init connects, migrates and starts the writer.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.inner = gormstorage.New(gormstorage.Dependencies{
		DB:        db,
		SessionID: b.sessionID,
		Logger:    b.logger,
	})
	if err := b.inner.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.logger.Info("Postgres storage ready", "host", b.cfg.Host, "database", b.cfg.Database)
	return nil
}

func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	return b.inner.Close()
}

func (b *Backend) AddMapTack(t *core.MapTack) (uint, error) {
	if b.inner == nil {
		return 0, errNotInitialized
	}
	return b.inner.AddMapTack(t)
}

func (b *Backend) ListMapTacks() ([]core.MapTack, error) {
	if b.inner == nil {
		return nil, errNotInitialized
	}
	return b.inner.ListMapTacks()
}

func (b *Backend) Flush() error {
	if b.inner == nil {
		return nil
	}
	return b.inner.Flush()
}
