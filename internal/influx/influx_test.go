package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmt-mods/placement/internal/config"
)

func unreachable() config.InfluxConfig {
	return config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "dmt-metrics",
		Bucket:   "placement_telemetry",
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.Valid())
}

func TestConnect_UnreachableFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.lp.gz")
	m := NewManager(unreachable(), zerolog.Nop(), path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.Valid())

	m.RecordEvaluation("CITY_CENTER", 3, 4, true)
	m.RecordProposal("CITY_CENTER", 3, 4, false)
	m.RecordProposal("IMPROVEMENT_FARM", 1, 1, true)
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "hover_evaluation,itemType=CITY_CENTER,outcome=prevented x=3i,y=4i "))
	assert.True(t, strings.HasPrefix(lines[1], "proposal,itemType=CITY_CENTER,outcome=rejected "))
	assert.True(t, strings.HasPrefix(lines[2], "proposal,itemType=IMPROVEMENT_FARM,outcome=accepted "))
}

func TestConnect_BadBackupPath(t *testing.T) {
	m := NewManager(unreachable(), zerolog.Nop(), filepath.Join(t.TempDir(), "missing", "backup.lp.gz"))
	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating backup file")
}

func TestRecord_WithoutConnectIsDropped(t *testing.T) {
	m := NewManager(unreachable(), zerolog.Nop(), "")
	assert.NotPanics(t, func() {
		m.RecordEvaluation("CITY_CENTER", 0, 0, false)
	})
	assert.NoError(t, m.Flush())
	assert.NoError(t, m.Close())
}

func TestNewPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := newPoint(MeasurementProposal, "WONDER", "accepted", 7, 9, at)

	assert.Equal(t,
		"proposal,itemType=WONDER,outcome=accepted x=7i,y=9i 1700000000000000000",
		strings.TrimSuffix(influxdb2_write.PointToLineProtocol(p, time.Nanosecond), "\n"))
}

func TestBackupFileName(t *testing.T) {
	assert.Equal(t, "placement_telemetry_1700000000.lp.gz", BackupFileName(time.Unix(1700000000, 0)))
}
