package darkroom

import (
	"log/slog"

	"github.com/gogpu/darkroom/internal/logging"
)

// SetLogger configures the logger for darkroom and all its sub-packages.
// By default, darkroom produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by darkroom:
//   - [slog.LevelDebug]: internal diagnostics (cache hits, buffer sizes)
//   - [slog.LevelInfo]: important lifecycle events (GPU adapter selected)
//   - [slog.LevelWarn]: degraded behavior (segmentation unavailable,
//     corrupt sidecar replaced by defaults)
//   - [slog.LevelError]: per-request render or autosave failures
//
// Example:
//
//	darkroom.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) { logging.SetLogger(l) }

// Logger returns the currently configured logger.
func Logger() *slog.Logger { return logging.Logger() }
