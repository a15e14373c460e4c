package logging

import (
	"io"
	"os"
	"sync"
)

// terminal is the stderr sink shared by every logger. It can be pointed
// elsewhere after loggers were created.
var terminal = &terminalSink{w: os.Stderr}

type terminalSink struct {
	mu sync.RWMutex
	w  io.Writer
}

func (t *terminalSink) Write(p []byte) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.w.Write(p)
}

// RedirectTerminal sends terminal log output to w until the returned restore
// func is called. File sinks are unaffected.
func RedirectTerminal(w io.Writer) (restore func()) {
	terminal.mu.Lock()
	prev := terminal.w
	terminal.w = w
	terminal.mu.Unlock()

	return func() {
		terminal.mu.Lock()
		terminal.w = prev
		terminal.mu.Unlock()
	}
}
