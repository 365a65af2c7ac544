// Package log wraps a process-wide zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	base  *zap.Logger
)

// Init builds the package logger. Debug mode uses zap's development config.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("init zap logger: %w", err)
	}
	base = l
	sugar = l.Sugar()
	return nil
}

// GetSugaredLogger returns the package logger, falling back to a production
// logger when Init was never called.
func GetSugaredLogger() *zap.SugaredLogger {
	if sugar == nil {
		base, _ = zap.NewProduction(zap.AddCallerSkip(1))
		sugar = base.Sugar()
	}
	return sugar
}

// Named returns a child logger without the caller skip applied to package helpers.
func Named(name string) *zap.SugaredLogger {
	return GetSugaredLogger().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().Named(name)
}

func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func Infof(template string, args ...any) {
	GetSugaredLogger().Infof(template, args...)
}

func Warnf(template string, args ...any) {
	GetSugaredLogger().Warnf(template, args...)
}

