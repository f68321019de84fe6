package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "dmt-placement"

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// Options configures SlogManager.Setup.
type Options struct {
	// File receives text records. When nil, records go to stdout instead.
	File  io.Writer
	Level string
	// LogProvider enables the OTel bridge when non-nil.
	LogProvider *sdklog.LoggerProvider
	// Extra is an additional sink, e.g. a GELF handler. ExtraCloser, when
	// set, releases it and is owned by the manager from then on.
	Extra       slog.Handler
	ExtraCloser io.Closer
	Context     ContextProvider
}

// SlogManager owns the extension's slog.Logger and the sinks behind it.
type SlogManager struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
	closer      io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// HandlerOptions returns the shared handler options for the given level so
// extra sinks format timestamps the same way.
func HandlerOptions(level string) *slog.HandlerOptions {
	return handlerOptions(parseLevel(level))
}

// Setup (re)builds the logger. Calling it again replaces every sink.
func (m *SlogManager) Setup(opts Options) {
	lvl := parseLevel(opts.Level)
	hopts := handlerOptions(lvl)

	var handlers []slog.Handler
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, hopts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stdout, hopts))
	}
	if opts.Extra != nil {
		handlers = append(handlers, opts.Extra)
	}
	if opts.LogProvider != nil {
		handlers = append(handlers, otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(opts.LogProvider)))
	}

	var h slog.Handler = NewMultiHandler(handlers...)
	if opts.Context != nil {
		h = NewContextHandler(h, opts.Context)
	}

	logger := slog.New(h)

	m.mu.Lock()
	m.logger = logger
	m.logProvider = opts.LogProvider
	prev := m.closer
	m.closer = opts.ExtraCloser
	m.mu.Unlock()

	if prev != nil && prev != opts.ExtraCloser {
		if err := prev.Close(); err != nil {
			logger.Warn("Failed to close previous log sink", "error", err)
		}
	}

	logger.Info("Logging initialized", "level", opts.Level)
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	m.mu.RLock()
	p := m.logProvider
	m.mu.RUnlock()
	if p != nil {
		return p.ForceFlush(ctx)
	}
	return nil
}

// Close releases the extra sink, if any. The logger keeps working on its
// remaining sinks.
func (m *SlogManager) Close() error {
	m.mu.Lock()
	c := m.closer
	m.closer = nil
	m.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

// WriteLog logs data at the named level, tagged with the calling function.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	m.mu.RLock()
	logger := m.logger
	m.mu.RUnlock()
	if logger == nil {
		return
	}
	logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}

// PrepareLogFile creates dir if needed, rotates an existing name to
// name.old and opens a fresh file for writing.
func PrepareLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".old"); err != nil {
			return nil, fmt.Errorf("failed to rotate log file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
