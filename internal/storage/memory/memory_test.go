package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/storage"
	"github.com/dmt-mods/placement/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func tack(x, y int) *core.MapTack {
	return &core.MapTack{
		X:           x,
		Y:           y,
		Type:        "IMPROVEMENT_FARM",
		ClassType:   "IMPROVEMENT",
		ValidStatus: core.ValidityVerdict{PreventPlacement: false},
		CreatedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestAddMapTack_AssignsSequentialIDs(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())

	for i := 1; i <= 3; i++ {
		id, err := b.AddMapTack(tack(i, i))
		require.NoError(t, err)
		assert.Equal(t, uint(i), id)
	}

	tacks, err := b.ListMapTacks()
	require.NoError(t, err)
	require.Len(t, tacks, 3)
	for i, tk := range tacks {
		assert.Equal(t, uint(i+1), tk.ID)
		assert.Equal(t, i+1, tk.X)
	}
}

func TestAddMapTack_SamePlotKeptTwice(t *testing.T) {
	b := New(config.MemoryConfig{})

	_, _ = b.AddMapTack(tack(4, 4))
	_, _ = b.AddMapTack(tack(4, 4))

	tacks, _ := b.ListMapTacks()
	assert.Len(t, tacks, 2)
}

func TestAddMapTack_DoesNotMutateInput(t *testing.T) {
	b := New(config.MemoryConfig{})
	in := tack(1, 1)

	_, _ = b.AddMapTack(in)
	assert.Zero(t, in.ID)
}

func TestListMapTacks_ReturnsCopy(t *testing.T) {
	b := New(config.MemoryConfig{})
	_, _ = b.AddMapTack(tack(1, 1))

	tacks, _ := b.ListMapTacks()
	tacks[0].X = 99

	again, _ := b.ListMapTacks()
	assert.Equal(t, 1, again[0].X)
}

func TestAddMapTack_Concurrent(t *testing.T) {
	b := New(config.MemoryConfig{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = b.AddMapTack(tack(i, 0))
		}(i)
	}
	wg.Wait()

	tacks, _ := b.ListMapTacks()
	require.Len(t, tacks, 50)
	for i, tk := range tacks {
		assert.Equal(t, uint(i+1), tk.ID)
	}
}

func TestFlush_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	_, _ = b.AddMapTack(tack(3, 7))

	require.NoError(t, b.Flush())

	path := b.GetExportedFilePath()
	require.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, ".json"))
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var export TackExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, b.SessionID(), export.SessionID)
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.MapTacks, 1)
	assert.Equal(t, uint(1), export.MapTacks[0].ID)
	assert.Equal(t, 3, export.MapTacks[0].X)
	assert.Equal(t, core.ItemType("IMPROVEMENT_FARM"), export.MapTacks[0].Type)
}

func TestFlush_Compressed(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	_, _ = b.AddMapTack(tack(1, 2))

	require.NoError(t, b.Flush())

	path := b.GetExportedFilePath()
	assert.True(t, strings.HasSuffix(path, ".json.gz"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var export TackExport
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, 1, export.Count)
}

func TestFlush_OverwritesSameFile(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})

	_, _ = b.AddMapTack(tack(1, 1))
	require.NoError(t, b.Flush())
	first := b.GetExportedFilePath()

	_, _ = b.AddMapTack(tack(2, 2))
	require.NoError(t, b.Flush())
	assert.Equal(t, first, b.GetExportedFilePath())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClose_NoOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	_, _ = b.AddMapTack(tack(1, 1))

	require.NoError(t, b.Close())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestFlush_NoOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	_, _ = b.AddMapTack(tack(1, 1))

	require.NoError(t, b.Flush())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestClose_Exports(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.Close())
	assert.NotEmpty(t, b.GetExportedFilePath())
}

func TestFlush_BadOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	b := New(config.MemoryConfig{OutputDir: filepath.Join(file, "sub")})
	err := b.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}
