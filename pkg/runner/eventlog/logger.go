// Package eventlog implements the runner's structured event sink (C5): a
// JSONL file logger, a stdout logger, and a fan-out composite, grounded on
// the original adapter's observability.py (JsonlLogger/StdLogger/
// CompositeLogger).
package eventlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func encode(evt rtdomain.Event) ([]byte, error) {
	payload := make(map[string]interface{}, len(evt.Fields)+3)
	for k, v := range evt.Fields {
		payload[k] = v
	}
	payload["event"] = string(evt.Type)
	payload["ts_ms"] = evt.TsMs
	payload["request_fingerprint"] = evt.RequestFingerprint
	if evt.RequestHash != "" {
		payload["request_hash"] = evt.RequestHash
	}
	b, err := jsonAPI.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// JSONLLogger appends one JSON object per line to a file, serializing
// writes behind a single mutex (spec §5 "single lock around write+flush").
type JSONLLogger struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// NewJSONLLogger opens (creating parent directories as needed) path for
// appending.
func NewJSONLLogger(path string) (*JSONLLogger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLLogger{path: path, file: f}, nil
}

// Emit implements rtdomain.Logger.
func (l *JSONLLogger) Emit(evt rtdomain.Event) {
	line, err := encode(evt)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.Write(line)
	_ = l.file.Sync()
}

// Close closes the underlying file.
func (l *JSONLLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// StreamLogger writes JSON lines to an arbitrary io.Writer (e.g. os.Stdout),
// useful for CLI --format jsonl output.
type StreamLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewStreamLogger wraps w.
func NewStreamLogger(w io.Writer) *StreamLogger {
	return &StreamLogger{w: w}
}

// Emit implements rtdomain.Logger.
func (l *StreamLogger) Emit(evt rtdomain.Event) {
	line, err := encode(evt)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(line)
	if f, ok := l.w.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
}

// Composite fans a single Emit out to every registered logger, isolating
// a failing logger from the others (mirrors CompositeLogger in
// observability.py).
type Composite struct {
	mu      sync.Mutex
	loggers []rtdomain.Logger
}

// NewComposite creates a Composite wrapping the given loggers.
func NewComposite(loggers ...rtdomain.Logger) *Composite {
	return &Composite{loggers: append([]rtdomain.Logger(nil), loggers...)}
}

// Add registers another logger.
func (c *Composite) Add(l rtdomain.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggers = append(c.loggers, l)
}

// Emit implements rtdomain.Logger, isolating panics/failures per-logger so
// one broken sink never blocks the others.
func (c *Composite) Emit(evt rtdomain.Event) {
	c.mu.Lock()
	loggers := append([]rtdomain.Logger(nil), c.loggers...)
	c.mu.Unlock()

	for _, l := range loggers {
		emitSafely(l, evt)
	}
}

func emitSafely(l rtdomain.Logger, evt rtdomain.Event) {
	defer func() { _ = recover() }()
	l.Emit(evt)
}

// Memory is an in-process recorder used by tests to assert on the emitted
// event stream without touching the filesystem.
type Memory struct {
	mu     sync.Mutex
	Events []rtdomain.Event
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory { return &Memory{} }

// Emit implements rtdomain.Logger.
func (m *Memory) Emit(evt rtdomain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, evt)
}

// All returns a snapshot copy of recorded events.
func (m *Memory) All() []rtdomain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rtdomain.Event, len(m.Events))
	copy(out, m.Events)
	return out
}

// OfType returns recorded events of the given type, in emission order.
func (m *Memory) OfType(t rtdomain.EventType) []rtdomain.Event {
	var out []rtdomain.Event
	for _, e := range m.All() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
