package testhelpers

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// Writer forwards log output to t.Log so that it is only shown for failing tests.
type Writer struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

// NewWriter returns a Writer bound to t. Output written after the test has finished is discarded because
// t.Log panics at that point; background goroutines such as the database optimizer may still be logging
// while the server shuts down.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t, mu: sync.Mutex{}, done: false}
	t.Cleanup(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.done = true
	})
	return w
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return len(p), nil
	}
	if output := strings.TrimRight(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
