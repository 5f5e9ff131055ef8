package copyengine

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vngelio/polystation/internal/domain"
)

// EventLogger records human-readable monitor events: one tab-separated
// line per event, mirrored to stderr and to a per-process log file.
type EventLogger interface {
	Log(mode domain.StorageMode, kind, message string)
}

// FileEventLogger writes events to copy_trader.log and to stderr.
type FileEventLogger struct {
	mu   sync.Mutex
	file io.Writer
	errw io.Writer
}

// NewFileEventLogger opens (or creates) path in append mode for the log
// file side of the logger; stderr is always written to as well.
func NewFileEventLogger(path string) (*FileEventLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("copyengine: open event log: %w", err)
	}
	return &FileEventLogger{file: f, errw: os.Stderr}, nil
}

// Log appends one tab-separated line: timestamp, mode=<real|sim>, then
// "<kind>: <message>".
func (l *FileEventLogger) Log(mode domain.StorageMode, kind, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tag := "real"
	if mode == domain.ModeSimulation {
		tag = "sim"
	}
	line := fmt.Sprintf("%s\tmode=%s\t%s: %s\n", time.Now().UTC().Format(time.RFC3339), tag, kind, message)
	_, _ = l.file.Write([]byte(line))
	_, _ = l.errw.Write([]byte(line))
}
