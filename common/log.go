package common

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger replaces the engine-wide logger. Passing nil restores the silent default.
// Safe for concurrent use.
//
// Parameters:
//   - l: the logger to use, or nil
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Logger returns the engine-wide logger. The engine is silent until a host application
// opts in with SetLogger.
//
// Returns:
//   - *zap.Logger: the current logger, never nil
func Logger() *zap.Logger {
	return logger.Load()
}
