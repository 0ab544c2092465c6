package volray

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/volray/internal/logging"
)

// loggerPtr stores the package logger. Accessed atomically so that
// SetLogger can be called while mappers render on another goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(logging.Nop())
}

// SetLogger configures the logger of volray and its sub-packages. By
// default volray produces no log output. Pass nil to restore silence.
//
// Mappers created without WithLogger pick up the new logger at the start
// of their next frame and hand it to the components that log.
//
// Log levels used by volray:
//   - [slog.LevelDebug]: rebuild decisions and uploads
//   - [slog.LevelInfo]: backend selection and capability summaries
//   - [slog.LevelWarn]: degraded features (mask refused, depth capture
//     unsupported, unsupported feature combinations)
//   - [slog.LevelError]: skipped frames and shader compile logs
//
// Example:
//
//	volray.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(logging.OrNop(l))
}

// Logger returns the package logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by components that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to every component that logs.
func propagateLogger(l *slog.Logger, targets ...loggerSetter) {
	for _, t := range targets {
		if t != nil {
			t.SetLogger(l)
		}
	}
}
