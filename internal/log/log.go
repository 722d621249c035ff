// Package log provides the shared zap logger for the serving and batch
// layers. The diagnostics engine itself stays silent; only the outer
// surfaces log.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// Init sets up the package-level logger. Debug selects the human-readable
// development encoder.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	log = zapLogger.Sugar()
	return nil
}

func logger() *zap.SugaredLogger {
	if log == nil {
		base, _ := zap.NewProduction(zap.AddCallerSkip(1))
		log = base.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() {
	if log != nil {
		log.Sync()
	}
}

func Debugf(template string, args ...interface{}) {
	logger().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	logger().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	logger().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	logger().Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	logger().Fatalf(template, args...)
}
