package freertos

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// Logging is a package-level concern: kernel objects are process-wide, and a
// per-object logging surface would add configuration for no benefit. The
// default is no logger, which costs a nil check per event.
var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[logiface.Event]
}

// SetLogger configures the structured logger used for binding-level events
// (object create/delete, command failures, assertion hook firings). Passing
// nil disables logging, which is the default.
func SetLogger(l *logiface.Logger[logiface.Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = l
}

// logger returns the configured logger, possibly nil. logiface builders are
// nil-safe, so call sites chain off the result unconditionally.
func logger() *logiface.Logger[logiface.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}
