// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/bpsniff/internal/core"
)

// GlobalConfig is the full configuration. It maps to the `bpsniff:` root key in YAML.
type GlobalConfig struct {
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Stream  StreamConfig  `mapstructure:"stream" yaml:"stream"`
	Decoder DecoderConfig `mapstructure:"decoder" yaml:"decoder"`
	Mobs    MobsConfig    `mapstructure:"mobs" yaml:"mobs"`
	Sink    SinkConfig    `mapstructure:"sink" yaml:"sink"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ─── Capture ───

// CaptureConfig selects the interface and capture backend.
type CaptureConfig struct {
	Device       int            `mapstructure:"device" yaml:"device"`   // -1 = auto-select
	Backend      string         `mapstructure:"backend" yaml:"backend"` // pcap | afpacket
	SnapLen      int            `mapstructure:"snap_len" yaml:"snap_len"`
	PollTimeout  time.Duration  `mapstructure:"poll_timeout" yaml:"poll_timeout"`
	Promiscuous  bool           `mapstructure:"promiscuous" yaml:"promiscuous"`
	BPFFilter    string         `mapstructure:"bpf_filter" yaml:"bpf_filter"`
	MaxReadError int            `mapstructure:"max_read_errors" yaml:"max_read_errors"` // consecutive errors before giving up
	AFPacket     AFPacketConfig `mapstructure:"afpacket" yaml:"afpacket"`
}

// AFPacketConfig tunes the Linux TPACKET_V3 ring.
type AFPacketConfig struct {
	BufferSizeMB int `mapstructure:"buffer_size_mb" yaml:"buffer_size_mb"`
	BlockSizeKB  int `mapstructure:"block_size_kb" yaml:"block_size_kb"`
}

// ─── Stream ───

// StreamConfig holds the reassembly timers and frame bound.
type StreamConfig struct {
	GapTimeout   time.Duration `mapstructure:"gap_timeout" yaml:"gap_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxFrameSize uint32        `mapstructure:"max_frame_size" yaml:"max_frame_size"`
}

// ─── Decoder ───

// DecoderConfig bounds frame decoding and the entity registry.
type DecoderConfig struct {
	MaxDepth                    int  `mapstructure:"max_depth" yaml:"max_depth"`
	ZstdMaxMemoryMB             int  `mapstructure:"zstd_max_memory_mb" yaml:"zstd_max_memory_mb"`
	RegistrySize                int  `mapstructure:"registry_size" yaml:"registry_size"`
	ClearRegistryOnServerChange bool `mapstructure:"clear_registry_on_server_change" yaml:"clear_registry_on_server_change"`
}

// ─── Mobs ───

// MobsConfig points at an optional catalog file; empty uses the built-in table.
type MobsConfig struct {
	CatalogFile string `mapstructure:"catalog_file" yaml:"catalog_file"`
	Watch       bool   `mapstructure:"watch" yaml:"watch"`
}

// ─── Sink ───

// SinkConfig configures the event queue and its consumers.
type SinkConfig struct {
	QueueCapacity int             `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	Console       ConsoleConfig   `mapstructure:"console" yaml:"console"`
	WebSocket     WebSocketConfig `mapstructure:"websocket" yaml:"websocket"`
}

// ConsoleConfig prints events to stdout.
type ConsoleConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Format  string `mapstructure:"format" yaml:"format"` // json | text
}

// WebSocketConfig serves the event feed to local clients.
type WebSocketConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string           `mapstructure:"level" yaml:"level"`
	Format     string           `mapstructure:"format" yaml:"format"` // json | text | pattern
	Pattern    string           `mapstructure:"pattern" yaml:"pattern"`
	TimeFormat string           `mapstructure:"time_format" yaml:"time_format"`
	Outputs    LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains extra log destinations; stdout is always on.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// configRoot is the top-level wrapper matching the YAML root key.
type configRoot struct {
	BPSniff GlobalConfig `mapstructure:"bpsniff"`
}

// Load loads configuration from path. An empty path yields the defaults plus
// environment overrides (BPSNIFF_..., e.g. BPSNIFF_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Key "bpsniff.log.level" maps to env "BPSNIFF_LOG_LEVEL".
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.BPSniff

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to defaults otherwise.
func LoadOrDefault(path string) (*GlobalConfig, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return Load(path)
}

// Default returns the built-in configuration.
func Default() *GlobalConfig {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static and validated by tests.
		panic(err)
	}
	return cfg
}

// setDefaults sets default values. All keys use the "bpsniff." prefix.
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("bpsniff.capture.device", -1)
	v.SetDefault("bpsniff.capture.backend", "pcap")
	v.SetDefault("bpsniff.capture.snap_len", 65535)
	v.SetDefault("bpsniff.capture.poll_timeout", "10ms")
	v.SetDefault("bpsniff.capture.promiscuous", true)
	v.SetDefault("bpsniff.capture.bpf_filter", "tcp")
	v.SetDefault("bpsniff.capture.max_read_errors", 64)
	v.SetDefault("bpsniff.capture.afpacket.buffer_size_mb", 8)
	v.SetDefault("bpsniff.capture.afpacket.block_size_kb", 1024)

	// Stream defaults
	v.SetDefault("bpsniff.stream.gap_timeout", "2s")
	v.SetDefault("bpsniff.stream.idle_timeout", "10s")
	v.SetDefault("bpsniff.stream.max_frame_size", 0x0fffff)

	// Decoder defaults
	v.SetDefault("bpsniff.decoder.max_depth", 10)
	v.SetDefault("bpsniff.decoder.zstd_max_memory_mb", 64)
	v.SetDefault("bpsniff.decoder.registry_size", 65536)
	v.SetDefault("bpsniff.decoder.clear_registry_on_server_change", false)

	// Mobs defaults
	v.SetDefault("bpsniff.mobs.catalog_file", "")
	v.SetDefault("bpsniff.mobs.watch", true)

	// Sink defaults
	v.SetDefault("bpsniff.sink.queue_capacity", 65536)
	v.SetDefault("bpsniff.sink.console.enabled", true)
	v.SetDefault("bpsniff.sink.console.format", "json")
	v.SetDefault("bpsniff.sink.websocket.enabled", false)
	v.SetDefault("bpsniff.sink.websocket.listen", "127.0.0.1:8765")
	v.SetDefault("bpsniff.sink.websocket.path", "/events")

	// Metrics defaults
	v.SetDefault("bpsniff.metrics.enabled", false)
	v.SetDefault("bpsniff.metrics.listen", "127.0.0.1:9091")
	v.SetDefault("bpsniff.metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("bpsniff.log.level", "info")
	v.SetDefault("bpsniff.log.format", "text")
	v.SetDefault("bpsniff.log.pattern", "%time [%level] %caller: %msg%n")
	v.SetDefault("bpsniff.log.time_format", "2006-01-02 15:04:05.000")
	v.SetDefault("bpsniff.log.outputs.file.enabled", false)
	v.SetDefault("bpsniff.log.outputs.file.path", "bpsniff.log")
	v.SetDefault("bpsniff.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("bpsniff.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("bpsniff.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("bpsniff.log.outputs.file.rotation.compress", true)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrConfigInvalid, fmt.Sprintf(format, args...))
}

// ValidateAndApplyDefaults validates configuration and fills runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return invalid("log level %q (must be debug/info/warn/error)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text", "pattern":
	default:
		return invalid("log format %q (must be json/text/pattern)", cfg.Log.Format)
	}

	// ── Capture ──
	if cfg.Capture.Backend != "pcap" && cfg.Capture.Backend != "afpacket" {
		return invalid("capture backend %q (must be pcap/afpacket)", cfg.Capture.Backend)
	}
	if cfg.Capture.Device < -1 {
		return invalid("capture device index %d", cfg.Capture.Device)
	}
	if cfg.Capture.SnapLen <= 0 || cfg.Capture.SnapLen > 262144 {
		return invalid("capture snap_len %d", cfg.Capture.SnapLen)
	}
	if cfg.Capture.PollTimeout <= 0 {
		return invalid("capture poll_timeout must be positive")
	}
	if cfg.Capture.MaxReadError <= 0 {
		cfg.Capture.MaxReadError = 64
	}

	// ── Stream ──
	if cfg.Stream.GapTimeout <= 0 || cfg.Stream.IdleTimeout <= 0 {
		return invalid("stream timeouts must be positive")
	}
	if cfg.Stream.MaxFrameSize <= 4 {
		return invalid("stream max_frame_size %d", cfg.Stream.MaxFrameSize)
	}

	// ── Decoder ──
	if cfg.Decoder.MaxDepth < 0 {
		return invalid("decoder max_depth %d", cfg.Decoder.MaxDepth)
	}
	if cfg.Decoder.RegistrySize <= 0 {
		return invalid("decoder registry_size %d", cfg.Decoder.RegistrySize)
	}
	if cfg.Decoder.ZstdMaxMemoryMB <= 0 {
		cfg.Decoder.ZstdMaxMemoryMB = 64
	}

	// ── Sink ──
	if cfg.Sink.QueueCapacity <= 0 {
		return invalid("sink queue_capacity %d", cfg.Sink.QueueCapacity)
	}
	if cfg.Sink.Console.Format != "json" && cfg.Sink.Console.Format != "text" {
		return invalid("sink console format %q (must be json/text)", cfg.Sink.Console.Format)
	}
	if cfg.Sink.WebSocket.Enabled && cfg.Sink.WebSocket.Listen == "" {
		return invalid("sink websocket listen address is required when enabled")
	}
	if cfg.Sink.WebSocket.Path == "" {
		cfg.Sink.WebSocket.Path = "/events"
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return invalid("metrics listen address is required when enabled")
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}
