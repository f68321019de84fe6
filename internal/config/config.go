package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "dmt_placement.cfg.json"

// PlacementConfig holds the settings of the map tack placement mode.
type PlacementConfig struct {
	ModeName          string   `json:"modeName" mapstructure:"modeName"`
	ChooserModeName   string   `json:"chooserModeName" mapstructure:"chooserModeName"`
	BorderRadius      int      `json:"borderRadius" mapstructure:"borderRadius"`
	MapWidth          int      `json:"mapWidth" mapstructure:"mapWidth"`
	PlaceCursor       string   `json:"placeCursor" mapstructure:"placeCursor"`
	CantPlaceCursor   string   `json:"cantPlaceCursor" mapstructure:"cantPlaceCursor"`
	Layers            []string `json:"layers" mapstructure:"layers"`
	ConfirmSound      string   `json:"confirmSound" mapstructure:"confirmSound"`
	ConfirmSoundGroup string   `json:"confirmSoundGroup" mapstructure:"confirmSoundGroup"`
}

// PanelConfig locates the side panel the placement details are pushed to.
type PanelConfig struct {
	Tag            string `json:"tag" mapstructure:"tag"`
	AnchorSelector string `json:"anchorSelector" mapstructure:"anchorSelector"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds the streaming backend settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the map tack registry backend.
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig holds the postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds placement telemetry settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the influx server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./dmtlogs")

	viper.SetDefault("placement.modeName", "DMT_INTERFACEMODE_PLACE_MAP_TACKS")
	viper.SetDefault("placement.chooserModeName", "DMT_INTERFACEMODE_MAP_TACK_CHOOSER")
	viper.SetDefault("placement.borderRadius", 3)
	viper.SetDefault("placement.mapWidth", 0)
	viper.SetDefault("placement.placeCursor", "fs://game/core/ui/cursors/place.ani")
	viper.SetDefault("placement.cantPlaceCursor", "fs://game/core/ui/cursors/cantplace.ani")
	viper.SetDefault("placement.layers", []string{
		"fxs-appeal-layer",
		"fxs-settlement-recommendations-layer",
		"fxs-random-events-layer",
	})
	viper.SetDefault("placement.confirmSound", "data-audio-city-production-placement-activate")
	viper.SetDefault("placement.confirmSoundGroup", "city-actions")

	viper.SetDefault("panel.tag", "dmt-panel-place-map-tack")
	viper.SetDefault("panel.anchorSelector", ".panel-place-building")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./maptacks")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/maptacks")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "maptacks")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "dmt-metrics")
	viper.SetDefault("influx.bucket", "placement_telemetry")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "dmt-placement")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetPlacementConfig returns the placement mode settings.
func GetPlacementConfig() PlacementConfig {
	return PlacementConfig{
		ModeName:          viper.GetString("placement.modeName"),
		ChooserModeName:   viper.GetString("placement.chooserModeName"),
		BorderRadius:      viper.GetInt("placement.borderRadius"),
		MapWidth:          viper.GetInt("placement.mapWidth"),
		PlaceCursor:       viper.GetString("placement.placeCursor"),
		CantPlaceCursor:   viper.GetString("placement.cantPlaceCursor"),
		Layers:            viper.GetStringSlice("placement.layers"),
		ConfirmSound:      viper.GetString("placement.confirmSound"),
		ConfirmSoundGroup: viper.GetString("placement.confirmSoundGroup"),
	}
}

// GetPanelConfig returns the side panel settings.
func GetPanelConfig() PanelConfig {
	return PanelConfig{
		Tag:            viper.GetString("panel.tag"),
		AnchorSelector: viper.GetString("panel.anchorSelector"),
	}
}

// GetStorageConfig returns the registry storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetDBConfig returns the postgres settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the telemetry settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
