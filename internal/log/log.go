// Package log configures the process-wide logrus logger.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"firestige.xyz/bpsniff/internal/config"
)

// Init configures the standard logrus logger from cfg.
func Init(cfg config.LogConfig) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	// stdout is always included.
	writers := []io.Writer{os.Stdout}
	if cfg.Outputs.File.Enabled {
		w, err := createFileWriter(cfg.Outputs.File)
		if err != nil {
			return fmt.Errorf("failed to create file output: %w", err)
		}
		writers = append(writers, w)
	}

	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)
	logrus.SetReportCaller(strings.Contains(cfg.Pattern, "%caller"))
	return nil
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

func parseLevel(levelStr string) (logrus.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown level: %s", levelStr)
	}
}

func newFormatter(cfg config.LogConfig) (logrus.Formatter, error) {
	timeLayout := cfg.TimeFormat
	if timeLayout == "" {
		timeLayout = time.RFC3339Nano
	}
	switch strings.ToLower(cfg.Format) {
	case "json":
		return &logrus.JSONFormatter{TimestampFormat: timeLayout}, nil
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timeLayout, DisableColors: true}, nil
	case "pattern":
		if cfg.Pattern == "" {
			return nil, fmt.Errorf("pattern format requires 'pattern' field")
		}
		return &patternFormatter{pattern: cfg.Pattern, time: timeLayout}, nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json, text or pattern)", cfg.Format)
	}
}

// createFileWriter creates a lumberjack file writer for log rotation.
func createFileWriter(fc config.FileOutputConfig) (io.Writer, error) {
	if fc.Path == "" {
		return nil, fmt.Errorf("file output requires 'path' field")
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.Rotation.MaxSizeMB,
		MaxBackups: fc.Rotation.MaxBackups,
		MaxAge:     fc.Rotation.MaxAgeDays,
		Compress:   fc.Rotation.Compress,
	}, nil
}
