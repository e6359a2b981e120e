// internal/logging/logger.go
//
// Structured logging for the studio. Entries go to the terminal and to
// .espresso/logs/espresso.log so a failed run can be inspected after the
// TUI has closed.

package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/espresso-charts/studio/internal/config"
)

// Logger wraps a sugared zap logger so call sites stay short.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New creates (or reuses) the log file for the current project directory
// and builds a logger that writes there and to stderr.
func New(projectDir string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.EspressoDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr", filepath.Join(logDir, "espresso.log")}
	cfg.Encoding = "console"
	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return &Logger{sugar: zl.Sugar()}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value context.
func (l *Logger) With(keysAndValues ...any) *Logger {
	if l == nil || l.sugar == nil {
		return l
	}
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered entries. Safe on a nil logger.
func (l *Logger) Sync() {
	if l == nil || l.sugar == nil {
		return
	}
	_ = l.sugar.Sync()
}

// Info logs at info level with key/value context.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs at warn level with key/value context.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs at error level with key/value context.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Errorw(msg, keysAndValues...)
}
