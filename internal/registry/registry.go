// Package registry is the downstream consumer of committed placements. It
// echoes each tack to the host at once and persists it on a background
// worker, so storage latency never stalls the confirm input.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dmt-mods/placement/internal/channel"
	"github.com/dmt-mods/placement/internal/placement"
	"github.com/dmt-mods/placement/internal/storage"
	"github.com/dmt-mods/placement/pkg/core"
)

// FnMapTackAdd is the host callback announcing a committed tack.
const FnMapTackAdd = ":MAPTACK:ADD:"

const instrumentationName = "github.com/dmt-mods/placement/internal/registry"

// Notifier delivers callbacks to the host.
type Notifier interface {
	Call(function string, args ...any) error
}

// Service accepts map tacks and stores them in arrival order.
type Service struct {
	backend storage.Backend
	host    Notifier
	logger  *slog.Logger
	now     func() time.Time

	ch   channel.Channel[core.MapTack]
	done chan struct{}

	// pending counts tacks queued but not yet handed to the backend.
	pendingMu sync.Mutex
	drained   *sync.Cond
	pending   int

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error

	stored metric.Int64Counter
}

var _ placement.CommitSink = (*Service)(nil)

// New starts a Service writing to backend. backend must already be
// initialized.
func New(backend storage.Backend, host Notifier, logger *slog.Logger, queueSize int) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	stored, err := otel.Meter(instrumentationName).Int64Counter(
		"placement.registry.stored",
		metric.WithDescription("Map tacks handed to the storage backend by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stored counter: %w", err)
	}

	s := &Service{
		backend: backend,
		host:    host,
		logger:  logger.With("component", "registry"),
		now:     time.Now,
		ch:      channel.New[core.MapTack](queueSize),
		done:    make(chan struct{}),
		stored:  stored,
	}
	s.drained = sync.NewCond(&s.pendingMu)
	go s.worker()
	return s, nil
}

// AddMapTack stamps the creation time if unset, notifies the host and
// queues the tack for storage. Tacks arriving after Close are dropped.
func (s *Service) AddMapTack(tack core.MapTack) {
	if tack.CreatedAt.IsZero() {
		tack.CreatedAt = s.now().UTC()
	}

	if err := s.host.Call(FnMapTackAdd, tack); err != nil {
		s.logger.Warn("Failed to notify host of map tack", "error", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("Map tack dropped, registry closed", "x", tack.X, "y", tack.Y, "type", tack.Type)
		return
	}

	s.pendingMu.Lock()
	s.pending++
	s.pendingMu.Unlock()

	if !s.ch.TrySend(tack) {
		s.logger.Warn("Registry queue full, waiting for storage", "queued", s.ch.Len())
		s.ch.Send(tack)
	}
}

func (s *Service) worker() {
	defer close(s.done)
	for tack := range s.ch.Receive() {
		s.store(tack)

		s.pendingMu.Lock()
		s.pending--
		if s.pending == 0 {
			s.drained.Broadcast()
		}
		s.pendingMu.Unlock()
	}
}

// waitDrained blocks until every tack queued so far has reached the
// backend. Tacks added while waiting extend the wait.
func (s *Service) waitDrained() {
	s.pendingMu.Lock()
	for s.pending > 0 {
		s.drained.Wait()
	}
	s.pendingMu.Unlock()
}

func (s *Service) store(tack core.MapTack) {
	id, err := s.backend.AddMapTack(&tack)
	if err != nil {
		s.stored.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		s.logger.Error("Failed to store map tack", "x", tack.X, "y", tack.Y, "type", tack.Type, "error", err)
		return
	}
	s.stored.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", "stored")))
	s.logger.Debug("Map tack stored", "id", id, "x", tack.X, "y", tack.Y, "type", tack.Type)
}

// List waits for queued tacks to reach the backend and returns every
// stored tack ordered by ID.
func (s *Service) List() ([]core.MapTack, error) {
	s.waitDrained()
	return s.backend.ListMapTacks()
}

// Flush waits for queued tacks and asks the backend to persist them.
func (s *Service) Flush() error {
	s.waitDrained()
	if f, ok := s.backend.(storage.Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close drains the queue, stops the worker and closes the backend.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.ch.Close()
		s.mu.Unlock()

		<-s.done
		s.closeErr = s.backend.Close()
	})
	return s.closeErr
}
