// Package influx records placement outcomes as InfluxDB points. When the
// server cannot be reached, points go to a gzip line-protocol backup file
// instead so nothing recorded during a session is lost.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/placement"
	"github.com/dmt-mods/placement/pkg/core"
)

const (
	MeasurementEvaluation = "hover_evaluation"
	MeasurementProposal   = "proposal"

	retentionSeconds = 60 * 60 * 24 * 90
)

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx is disabled")

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	cfg        config.InfluxConfig
	logger     zerolog.Logger
	backupPath string

	mu         sync.Mutex
	client     influxdb2.Client
	writer     influxdb2_api.WriteAPI
	backupFile *os.File
	backup     *gzip.Writer
	valid      bool
}

var _ placement.Recorder = (*Manager)(nil)

func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{cfg: cfg, logger: log, backupPath: backupPath}
}

// Connect pings the server and prepares the bucket. An unreachable server
// is not an error: the manager falls back to the backup file.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.logger.Warn().Err(err).Str("backupPath", m.backupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupBucket(ctx); err != nil {
		return err
	}

	m.writer = m.client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(m.writer.Errors())

	m.valid = true
	m.logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.backup != nil {
		return nil
	}
	file, err := os.OpenFile(m.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.backup = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupBucket(ctx context.Context) error {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org); err != nil {
			return fmt.Errorf("error creating organization %s: %w", m.cfg.Org, err)
		}
	}

	buckets := m.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		if _, err := buckets.CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		}); err != nil {
			return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
		}
	}
	return nil
}

// Valid reports whether points go to the server rather than the backup.
func (m *Manager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

func (m *Manager) RecordEvaluation(itemType core.ItemType, x, y int, prevented bool) {
	outcome := "allowed"
	if prevented {
		outcome = "prevented"
	}
	m.write(newPoint(MeasurementEvaluation, itemType, outcome, x, y, time.Now()))
}

func (m *Manager) RecordProposal(itemType core.ItemType, x, y int, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.write(newPoint(MeasurementProposal, itemType, outcome, x, y, time.Now()))
}

func newPoint(measurement string, itemType core.ItemType, outcome string, x, y int, at time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		measurement,
		map[string]string{"itemType": string(itemType), "outcome": outcome},
		map[string]any{"x": x, "y": y},
		at,
	)
}

// write sends p to the server or the backup file. Without either the point
// is dropped.
func (m *Manager) write(p *influxdb2_write.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.valid:
		m.writer.WritePoint(p)
	case m.backup != nil:
		line := strings.TrimSuffix(influxdb2_write.PointToLineProtocol(p, time.Nanosecond), "\n")
		if _, err := m.backup.Write([]byte(line + "\n")); err != nil {
			m.logger.Error().Err(err).Msg("Error writing to InfluxDB backup file")
		}
	}
}

// Flush pushes buffered points out.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid {
		m.writer.Flush()
		return nil
	}
	if m.backup != nil {
		return m.backup.Flush()
	}
	return nil
}

// Close flushes and releases the client and the backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writer != nil {
		m.writer.Flush()
	}
	if m.client != nil {
		m.client.Close()
	}
	m.valid = false

	var errs []error
	if m.backup != nil {
		errs = append(errs, m.backup.Close(), m.backupFile.Close())
		m.backup = nil
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

// BackupFileName is the backup file name for a session started at t.
func BackupFileName(t time.Time) string {
	return "placement_telemetry_" + strconv.FormatInt(t.Unix(), 10) + ".lp.gz"
}
