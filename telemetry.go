package ledgersaga

import (
	"fmt"
	"io"
	"sync"
)

// Telemetry receives progress and summary text from the runner. Format and
// destination are the caller's business.
type Telemetry interface {
	Emit(text string)
}

// WriterTelemetry emits each text as one line on a writer.
type WriterTelemetry struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterTelemetry creates a line-oriented telemetry sink.
func NewWriterTelemetry(w io.Writer) *WriterTelemetry {
	return &WriterTelemetry{w: w}
}

func (t *WriterTelemetry) Emit(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, text)
}

// NopTelemetry discards everything.
type NopTelemetry struct{}

func (NopTelemetry) Emit(string) {}
