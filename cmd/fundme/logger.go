package main

import (
	"fmt"

	"github.com/nspcc-dev/fundme-contract/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg config.Logger, debug bool) (*zap.Logger, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)

	if len(cfg.Level) > 0 {
		level, err = zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log setting: %w", err)
		}
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	cc.OutputPaths = []string{"stderr"}

	if cfg.Encoding != "" {
		cc.Encoding = cfg.Encoding
	}

	return cc.Build()
}
