package storage

import "github.com/dmt-mods/placement/pkg/core"

// Backend is the interface all map tack storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// AddMapTack stores t and returns the ID assigned to it. IDs are
	// strictly increasing in insertion order.
	AddMapTack(t *core.MapTack) (uint, error)

	// ListMapTacks returns every stored tack ordered by ID.
	ListMapTacks() ([]core.MapTack, error)
}

// Flusher is an optional interface for backends that buffer writes and can
// be asked to persist them before shutdown.
type Flusher interface {
	Flush() error
}

// Exportable is an optional interface for backends that produce a file on
// disk.
type Exportable interface {
	GetExportedFilePath() string
}
