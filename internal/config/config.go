// Package config loads the JSON configuration file and exposes typed
// accessors for the engine, catalog, telemetry and streaming settings.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig holds the layout engine knobs.
type EngineConfig struct {
	MaxVisibleAnnotations  int     `json:"maxVisibleAnnotations" mapstructure:"maxVisibleAnnotations"`
	MaxVerticalLevel       int     `json:"maxVerticalLevel" mapstructure:"maxVerticalLevel"`
	MaxDistance            float64 `json:"maxDistance" mapstructure:"maxDistance"`
	HeadingSmoothingFactor float64 `json:"headingSmoothingFactor" mapstructure:"headingSmoothingFactor"`
}

// OverlayConfig describes the overlay strip and annotation view geometry.
type OverlayConfig struct {
	ViewportWidth        float64 `json:"viewportWidth" mapstructure:"viewportWidth"`
	ViewportHeight       float64 `json:"viewportHeight" mapstructure:"viewportHeight"`
	PixelsPerDegree      float64 `json:"pixelsPerDegree" mapstructure:"pixelsPerDegree"`
	AnnotationViewWidth  float64 `json:"annotationViewWidth" mapstructure:"annotationViewWidth"`
	AnnotationViewHeight float64 `json:"annotationViewHeight" mapstructure:"annotationViewHeight"`
	BaselineFraction     float64 `json:"baselineFraction" mapstructure:"baselineFraction"`
	LevelSquareFactor    float64 `json:"levelSquareFactor" mapstructure:"levelSquareFactor"`
}

// MemoryCatalogConfig holds the JSON-file catalog backend settings.
type MemoryCatalogConfig struct {
	Path       string `json:"path" mapstructure:"path"`
	Compressed bool   `json:"compressed" mapstructure:"compressed"`
}

// SQLiteCatalogConfig holds the SQLite catalog backend settings.
type SQLiteCatalogConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// CatalogConfig selects and configures the annotation catalog backend.
type CatalogConfig struct {
	Type   string              `json:"type" mapstructure:"type"`
	Memory MemoryCatalogConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteCatalogConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB telemetry settings.
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
}

// StreamConfig holds the websocket view-event publisher settings.
type StreamConfig struct {
	Enabled bool
	URL     string
	Secret  string
}

// FeedConfig holds the simulated location/heading feed settings.
type FeedConfig struct {
	CenterLat      float64
	CenterLon      float64
	RadiusMeters   float64
	WalkSpeed      float64 // m/s along the circle
	HeadingRate    float64 // deg/s compass sweep
	HeadingJitter  float64 // deg, uniform noise on raw samples
	Route          string  // JSON [lon,lat] pairs; empty walks a circle
	TickInterval   time.Duration
	LocateInterval time.Duration
}

// Load reads configuration from the JSON file in configDir and sets default
// values for every key.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("engine.maxVisibleAnnotations", 50)
	viper.SetDefault("engine.maxVerticalLevel", 5)
	viper.SetDefault("engine.maxDistance", 0.0)
	viper.SetDefault("engine.headingSmoothingFactor", 0.25)

	viper.SetDefault("overlay.viewportWidth", 390.0)
	viper.SetDefault("overlay.viewportHeight", 844.0)
	viper.SetDefault("overlay.pixelsPerDegree", 12.0)
	viper.SetDefault("overlay.annotationViewWidth", 150.0)
	viper.SetDefault("overlay.annotationViewHeight", 50.0)
	viper.SetDefault("overlay.baselineFraction", 0.75)
	viper.SetDefault("overlay.levelSquareFactor", 4.0)

	viper.SetDefault("catalog.type", "memory")
	viper.SetDefault("catalog.memory.path", "./pois.json")
	viper.SetDefault("catalog.memory.compressed", false)
	viper.SetDefault("catalog.sqlite.path", "./pois.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "aroverlay")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "aroverlay-metrics")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "aroverlay")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5001/overlay")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("feed.centerLat", 48.2082)
	viper.SetDefault("feed.centerLon", 16.3738)
	viper.SetDefault("feed.radiusMeters", 250.0)
	viper.SetDefault("feed.walkSpeed", 1.4)
	viper.SetDefault("feed.headingRate", 12.0)
	viper.SetDefault("feed.headingJitter", 2.5)
	viper.SetDefault("feed.route", "")
	viper.SetDefault("feed.tickInterval", "16ms")
	viper.SetDefault("feed.locateInterval", "1s")

	viper.SetConfigName("aroverlay.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
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

// GetEngineConfig returns the engine settings.
func GetEngineConfig() EngineConfig {
	return EngineConfig{
		MaxVisibleAnnotations:  viper.GetInt("engine.maxVisibleAnnotations"),
		MaxVerticalLevel:       viper.GetInt("engine.maxVerticalLevel"),
		MaxDistance:            viper.GetFloat64("engine.maxDistance"),
		HeadingSmoothingFactor: viper.GetFloat64("engine.headingSmoothingFactor"),
	}
}

// GetOverlayConfig returns the overlay geometry settings.
func GetOverlayConfig() OverlayConfig {
	return OverlayConfig{
		ViewportWidth:        viper.GetFloat64("overlay.viewportWidth"),
		ViewportHeight:       viper.GetFloat64("overlay.viewportHeight"),
		PixelsPerDegree:      viper.GetFloat64("overlay.pixelsPerDegree"),
		AnnotationViewWidth:  viper.GetFloat64("overlay.annotationViewWidth"),
		AnnotationViewHeight: viper.GetFloat64("overlay.annotationViewHeight"),
		BaselineFraction:     viper.GetFloat64("overlay.baselineFraction"),
		LevelSquareFactor:    viper.GetFloat64("overlay.levelSquareFactor"),
	}
}

// GetCatalogConfig returns the catalog backend settings.
func GetCatalogConfig() CatalogConfig {
	var cfg CatalogConfig
	cfg.Type = viper.GetString("catalog.type")
	cfg.Memory.Path = viper.GetString("catalog.memory.path")
	cfg.Memory.Compressed = viper.GetBool("catalog.memory.compressed")
	cfg.SQLite.Path = viper.GetString("catalog.sqlite.path")
	return cfg
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

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
	}
}

// GetStreamConfig returns the websocket publisher settings.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		Enabled: viper.GetBool("stream.enabled"),
		URL:     viper.GetString("stream.url"),
		Secret:  viper.GetString("stream.secret"),
	}
}

// GetFeedConfig returns the simulated feed settings.
func GetFeedConfig() FeedConfig {
	return FeedConfig{
		CenterLat:      viper.GetFloat64("feed.centerLat"),
		CenterLon:      viper.GetFloat64("feed.centerLon"),
		RadiusMeters:   viper.GetFloat64("feed.radiusMeters"),
		WalkSpeed:      viper.GetFloat64("feed.walkSpeed"),
		HeadingRate:    viper.GetFloat64("feed.headingRate"),
		HeadingJitter:  viper.GetFloat64("feed.headingJitter"),
		Route:          viper.GetString("feed.route"),
		TickInterval:   viper.GetDuration("feed.tickInterval"),
		LocateInterval: viper.GetDuration("feed.locateInterval"),
	}
}
