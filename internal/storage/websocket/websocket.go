package websocket

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/storage/memory"
	"github.com/dmt-mods/placement/pkg/core"
	"github.com/dmt-mods/placement/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL              string
	Secret           string
	ExtensionVersion string
}

// Backend streams map tacks to a web server. A local memory copy assigns
// IDs and answers ListMapTacks, so reads never touch the network.
type Backend struct {
	conn   *connection
	cfg    Config
	local  *memory.Backend
	logger *slog.Logger
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	logger := slog.Default().With("component", "storage", "backend", "websocket")
	return &Backend{
		conn:   newConnection(logger),
		cfg:    cfg,
		local:  memory.New(config.MemoryConfig{}),
		logger: logger,
	}
}

// SessionID identifies this backend's stream on the server.
func (b *Backend) SessionID() string {
	return b.local.SessionID()
}

// Init connects and opens the session, waiting for the server's ack.
func (b *Backend) Init() error {
	if err := b.conn.dial(b.cfg.URL, b.cfg.Secret); err != nil {
		return err
	}

	data, err := streaming.Marshal(streaming.TypeStartSession, streaming.StartSessionPayload{
		SessionID:        b.SessionID(),
		ExtensionVersion: b.cfg.ExtensionVersion,
		StartedAt:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streaming.TypeStartSession, err)
	}

	b.conn.mu.Lock()
	b.conn.sessionMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// Close ends the session and disconnects. The session end is best effort.
func (b *Backend) Close() error {
	if b.conn.connected() {
		data, err := streaming.Marshal(streaming.TypeEndSession, nil)
		if err == nil {
			err = b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
		}
		if err != nil {
			b.logger.Warn("Failed to end session", "error", err)
		}
	}
	return b.conn.close()
}

// AddMapTack records t locally and sends it without waiting for an ack.
func (b *Backend) AddMapTack(t *core.MapTack) (uint, error) {
	id, err := b.local.AddMapTack(t)
	if err != nil {
		return 0, err
	}

	record := *t
	record.ID = id
	data, err := streaming.Marshal(streaming.TypeAddMapTack, streaming.AddMapTackPayload{
		SessionID: b.SessionID(),
		MapTack:   record,
	})
	if err != nil {
		return id, fmt.Errorf("marshal %s: %w", streaming.TypeAddMapTack, err)
	}
	if !b.conn.send(data) {
		return id, fmt.Errorf("map tack %d not streamed: send queue full", id)
	}
	return id, nil
}

// ListMapTacks returns the local copy.
func (b *Backend) ListMapTacks() ([]core.MapTack, error) {
	return b.local.ListMapTacks()
}
