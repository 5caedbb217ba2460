// Package logger constructs the zap logger shared across the service.
package logger

import (
	"go.uber.org/zap"
)

// New returns a production zap logger. Set REGSYNC_DEBUG=1 for the
// development encoder during local runs.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Nop returns a no-op logger for tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}
