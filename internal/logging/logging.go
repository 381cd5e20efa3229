// Package logging builds the exporter's run loggers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger profile.
type Config struct {
	Development bool `mapstructure:"development"`
}

// New builds the run logger. Development mode emits colored console output
// at debug level so per-shop progress is visible while iterating against
// fixtures; production mode emits JSON at info level. Sampling is disabled
// either way: a sequential run produces few enough entries that dropping
// any would hide progress, and the wrapped error chain already carries the
// failure context, so stacktraces stay off too.
func New(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.Sampling = nil
	}
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
