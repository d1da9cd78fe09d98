package simplelogger

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// Logger is a minimal printf-style logger that appends to one file. A nil *Logger is valid and discards everything.
type Logger struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// New returns a Logger appending to path in fs. If path is "", New returns nil.
func New(fs afero.Fs, path string) *Logger {
	if path == "" {
		return nil
	}
	return &Logger{fs: fs, path: path}
}

// Logf appends the formatted message, adding a trailing newline if it lacks one. If the file can't be opened, Logf is a no-op.
func (l *Logger) Logf(format string, args ...any) {
	if l == nil {
		return
	}

	// Serialize open/write/close to reduce interleaving within a single process.
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	var b bytes.Buffer
	_, _ = fmt.Fprintf(&b, format, args...)
	if b.Len() == 0 || b.Bytes()[b.Len()-1] != '\n' {
		_ = b.WriteByte('\n')
	}
	_, _ = f.Write(b.Bytes())
}
