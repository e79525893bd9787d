package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorLog appends timestamped failure lines to <dir>/<app>_errors.log so a
// failed track can be retried manually. Lines look like
// "[2026-08-31T10:00:00Z] resolve failed for ...".
type ErrorLog struct {
	path string
	mu   sync.Mutex
}

func NewErrorLog(dir, app string) *ErrorLog {
	return &ErrorLog{
		path: filepath.Join(dir, app+"_errors.log"),
	}
}

// Path returns the location of the log file.
func (l *ErrorLog) Path() string {
	return l.path
}

// Logf appends one timestamped line.
func (l *ErrorLog) Logf(format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	line := fmt.Sprintf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append error log: %w", err)
	}
	return nil
}
