package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFHandler returns a JSON slog handler shipping records to a Graylog
// GELF UDP input at addr, and the writer so the caller can close it.
func NewGELFHandler(addr string, opts *slog.HandlerOptions) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GELF writer for %s: %w", addr, err)
	}
	w.Facility = "dmt-placement"
	return slog.NewJSONHandler(w, opts), w, nil
}
