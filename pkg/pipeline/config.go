package pipeline

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Options configures a Context. The zero value is usable: one worker
// per logical CPU, the default memory-pool cap, and a silent logger.
type Options struct {
	// Workers is the thread-pool size; <= 0 means one per logical CPU.
	Workers int
	// MaxBlocks caps the memory pool; <= 0 uses the default.
	MaxBlocks int
	// Logger may be nil for silence.
	Logger *logrus.Logger
}

// Environment variables read by OptionsFromEnv.
const (
	EnvWorkers  = "BLURCORE_WORKERS"
	EnvPoolSize = "BLURCORE_POOL_BLOCKS"
	EnvLogLevel = "BLURCORE_LOG_LEVEL"
)

// OptionsFromEnv builds Options from the process environment. Unset or
// malformed variables keep their defaults; a malformed log level is
// reported on the logger itself rather than dropped silently.
func OptionsFromEnv(logger *logrus.Logger) Options {
	opts := Options{Logger: logger}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Workers = n
		}
	}
	if v := os.Getenv(EnvPoolSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxBlocks = n
		}
	}
	if logger != nil {
		if v := os.Getenv(EnvLogLevel); v != "" {
			level, err := logrus.ParseLevel(v)
			if err != nil {
				logger.WithField("value", v).Warn("invalid log level, keeping default")
			} else {
				logger.SetLevel(level)
			}
		}
	}
	return opts
}
