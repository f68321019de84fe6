package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmt-mods/placement/pkg/core"
)

// TackExport is the root JSON structure of an export file
type TackExport struct {
	SessionID  string         `json:"sessionId"`
	StartedAt  time.Time      `json:"startedAt"`
	ExportedAt time.Time      `json:"exportedAt"`
	Count      int            `json:"count"`
	MapTacks   []core.MapTack `json:"mapTacks"`
}

// exportFileName stays the same for the backend's lifetime so repeated
// flushes overwrite one file.
func (b *Backend) exportFileName() string {
	name := fmt.Sprintf("maptacks_%s", b.startedAt.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		return name + ".json.gz"
	}
	return name + ".json"
}

// exportJSON writes the tacks to disk. Callers hold b.mu.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, b.exportFileName())

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() TackExport {
	tacks := make([]core.MapTack, len(b.tacks))
	copy(tacks, b.tacks)
	return TackExport{
		SessionID:  b.sessionID,
		StartedAt:  b.startedAt,
		ExportedAt: time.Now().UTC(),
		Count:      len(tacks),
		MapTacks:   tacks,
	}
}

func writeJSON(path string, data TackExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data TackExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
