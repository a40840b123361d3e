package factory

import (
	"io"
	"os"
	"sync"
)

// outputWriter serializes writes from concurrently scheduled jobs.
type outputWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func stdoutWriter() *outputWriter { return &outputWriter{w: os.Stdout} }

func (o *outputWriter) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}
