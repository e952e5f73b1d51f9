package parena

import (
	"sync"

	"go.uber.org/zap"
)

// logger is the package-level sink for Arena/Index diagnostics. It
// defaults to a no-op logger so importers pay nothing unless they opt
// in with SetLogger, matching the teacher's zero-overhead-by-default
// posture for anything not on the hot allocation path.
var (
	loggerMu sync.RWMutex
	logger   *zap.SugaredLogger = zap.NewNop().Sugar()
)

// SetLogger installs l as the destination for Arena and Index
// diagnostics (arena create/open/close, allocation, growth and rehash
// at Debug; fatal I/O immediately before an Arena is poisoned at
// Error). Nothing is logged at Warn. Passing nil restores the no-op
// logger.
func SetLogger(l *zap.SugaredLogger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	logger = l
}

func currentLogger() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
