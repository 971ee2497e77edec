package trace

import (
	"io"
	"os"
	"sync"
)

// StreamTracer writes each admitted event as it happens. Write errors are
// dropped; tracing never fails a build.
type StreamTracer struct {
	level  Level
	format Format

	mu      sync.Mutex
	w       io.Writer
	written int
}

// NewStreamTracer writes events to w in format. Chrome output is wrapped in
// a trace_event document that Close terminates.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatChrome {
		_, _ = io.WriteString(w, "{\"traceEvents\":[\n")
	}
	return &StreamTracer{w: w, level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.Admits(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ev.Seq = nextSeq()
	if t.format == FormatChrome && t.written > 0 {
		_, _ = io.WriteString(t.w, ",\n")
	}
	_, _ = t.w.Write(FormatEvent(ev, t.format))
	t.written++
}

func (t *StreamTracer) Level() Level { return t.level }

// Close finishes the document and closes the writer unless it is a standard
// stream.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.format == FormatChrome {
		_, _ = io.WriteString(t.w, "\n]}\n")
	}
	if f, ok := t.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if t.w == os.Stderr || t.w == os.Stdout {
		return nil
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
