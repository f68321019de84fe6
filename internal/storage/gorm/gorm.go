// Package gormstorage implements storage.Backend on any GORM database.
// Rows are queued and written in batches by a background writer; IDs are
// handed out up front so callers never wait for the database.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/dmt-mods/placement/internal/database"
	"github.com/dmt-mods/placement/internal/model"
	"github.com/dmt-mods/placement/internal/model/convert"
	"github.com/dmt-mods/placement/internal/queue"
	"github.com/dmt-mods/placement/pkg/core"
)

const (
	defaultFlushInterval = time.Second
	batchSize            = 500
)

// ErrNoDB is returned by Init when no database was injected.
var ErrNoDB = errors.New("gorm backend has no database")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	SessionID     string
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	logger *slog.Logger

	pending *queue.Queue[model.MapTack]
	nextID  atomic.Uint64

	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		deps:    deps,
		logger:  logger.With("component", "storage", "dialect", dialect(deps.DB)),
		pending: queue.New[model.MapTack](),
	}
}

func dialect(db *gorm.DB) string {
	if db == nil {
		return ""
	}
	return db.Dialector.Name()
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema, seeds the ID counter from the highest stored
// ID and starts the writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDB
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}

	var maxID uint64
	if err := b.deps.DB.Model(&model.MapTack{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return fmt.Errorf("failed to read highest map tack id: %w", err)
	}
	b.nextID.Store(maxID)

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the writer and writes whatever is still queued.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
	})
	if b.deps.DB == nil {
		return nil
	}
	return b.Flush()
}

// AddMapTack queues t for writing and returns its ID.
func (b *Backend) AddMapTack(t *core.MapTack) (uint, error) {
	row := convert.CoreToMapTack(*t, b.deps.SessionID)
	row.ID = uint(b.nextID.Add(1))
	b.pending.Push(row)
	return row.ID, nil
}

// ListMapTacks flushes the queue and reads every row back in ID order.
func (b *Backend) ListMapTacks() ([]core.MapTack, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	var rows []model.MapTack
	if err := b.deps.DB.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list map tacks: %w", err)
	}
	return convert.MapTacksToCore(rows), nil
}

// Pending returns the number of queued rows.
func (b *Backend) Pending() int {
	return b.pending.Len()
}

// Flush writes every queued row. A failed batch is put back at the front
// of the queue and its error returned.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for !b.pending.Empty() {
		items := b.pending.Take(batchSize)
		if err := b.writeBatch(items); err != nil {
			b.pending.Requeue(items...)
			return err
		}
	}
	return nil
}

func (b *Backend) writeBatch(items []model.MapTack) error {
	tx := b.deps.DB.Begin()
	if err := tx.Error; err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to write %d map tacks: %w", len(items), err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit map tacks: %w", err)
	}
	b.logger.Debug("Wrote map tacks", "count", len(items))
	return nil
}

func (b *Backend) writerLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.logger.Error("Map tack write failed, will retry", "error", err, "pending", b.pending.Len())
			}
		}
	}
}
