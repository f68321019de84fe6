package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"placement": { "borderRadius": 4 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 4, viper.GetInt("placement.borderRadius"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./dmtlogs", viper.GetString("logsDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "maptacks", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "placement_telemetry", viper.GetString("influx.bucket"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetPlacementConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetPlacementConfig()
	assert.Equal(t, "DMT_INTERFACEMODE_PLACE_MAP_TACKS", cfg.ModeName)
	assert.Equal(t, "DMT_INTERFACEMODE_MAP_TACK_CHOOSER", cfg.ChooserModeName)
	assert.Equal(t, 3, cfg.BorderRadius)
	assert.Equal(t, 0, cfg.MapWidth)
	assert.Equal(t, "fs://game/core/ui/cursors/place.ani", cfg.PlaceCursor)
	assert.Equal(t, "fs://game/core/ui/cursors/cantplace.ani", cfg.CantPlaceCursor)
	assert.Equal(t, []string{
		"fxs-appeal-layer",
		"fxs-settlement-recommendations-layer",
		"fxs-random-events-layer",
	}, cfg.Layers)
	assert.Equal(t, "data-audio-city-production-placement-activate", cfg.ConfirmSound)
	assert.Equal(t, "city-actions", cfg.ConfirmSoundGroup)
}

func TestGetPlacementConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"placement": {
			"modeName": "PLACE",
			"chooserModeName": "CHOOSE",
			"mapWidth": 84,
			"layers": ["only-layer"]
		}
	}`)))

	cfg := GetPlacementConfig()
	assert.Equal(t, "PLACE", cfg.ModeName)
	assert.Equal(t, "CHOOSE", cfg.ChooserModeName)
	assert.Equal(t, 84, cfg.MapWidth)
	assert.Equal(t, []string{"only-layer"}, cfg.Layers)
	assert.Equal(t, 3, cfg.BorderRadius)
}

func TestGetPanelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetPanelConfig()
	assert.Equal(t, "dmt-panel-place-map-tack", cfg.Tag)
	assert.Equal(t, ".panel-place-building", cfg.AnchorSelector)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": true },
			"sqlite": { "dumpInterval": "10m" },
			"websocket": { "url": "ws://web:5000/tacks", "secret": "s3cret" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, true, sc.Memory.CompressOutput)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
	assert.Equal(t, "ws://web:5000/tacks", sc.WebSocket.URL)
	assert.Equal(t, "s3cret", sc.WebSocket.Secret)
}

func TestGetDBConfig_DSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"db": {"host": "pg", "password": "pw"}}`)))

	db := GetDBConfig()
	assert.Equal(t, "pg", db.Host)
	assert.Equal(t, "host=pg port=5432 user=postgres password=pw dbname=maptacks sslmode=disable", db.DSN())
}

func TestGetInfluxConfig_URL(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"influx": {"enabled": true, "host": "metrics", "port": "9999"}}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "http://metrics:9999", ic.URL())
	assert.Equal(t, "dmt-metrics", ic.Org)
}

func TestGetGraylogConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"graylog": {"enabled": true, "address": "gelf:12201"}}`)))

	gc := GetGraylogConfig()
	assert.True(t, gc.Enabled)
	assert.Equal(t, "gelf:12201", gc.Address)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "dmt-placement", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}
