package depcheck

import (
	"bytes"
	"strings"
	"sync"
)

// Log is a bounded, concurrency-safe output buffer. Once full, the oldest
// lines are discarded.
type Log struct {
	mu       sync.Mutex
	maxLines int
	lines    []string
	partial  bytes.Buffer
	onWrite  func()
}

func NewLog(maxLines int) *Log {
	if maxLines <= 0 {
		maxLines = 500
	}
	return &Log{maxLines: maxLines}
}

// OnWrite registers a callback run after each write.
func (l *Log) OnWrite(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onWrite = fn
}

func (l *Log) Write(p []byte) (int, error) {
	l.mu.Lock()
	l.partial.Write(p)
	for {
		line, err := l.partial.ReadString('\n')
		if err != nil {
			// Keep the unterminated tail for the next write.
			l.partial.Reset()
			l.partial.WriteString(line)
			break
		}
		l.lines = append(l.lines, strings.TrimRight(line, "\r\n"))
	}
	if over := len(l.lines) - l.maxLines; over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
	fn := l.onWrite
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
	return len(p), nil
}

// Lines returns the buffered lines, including an unterminated last line.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]string(nil), l.lines...)
	if l.partial.Len() > 0 {
		out = append(out, l.partial.String())
	}
	return out
}

func (l *Log) String() string {
	return strings.Join(l.Lines(), "\n")
}

// Reset discards all output.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.partial.Reset()
}
