package engine

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// ProgressEvent is one newline-delimited record the engine emits for each
// node transition and notable milestone ("progress event").
// Kind is one of the well-known event names: node_start, node, search, log,
// entities_update, risks_update, complete.
type ProgressEvent struct {
	Seq       int64       `json:"seq"`
	Kind      string      `json:"kind"`
	Node      string      `json:"node,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ProgressWriter serializes ProgressEvents to an underlying writer as
// newline-delimited JSON, stamping a monotonically increasing sequence
// number ("monotonic ordering") under a mutex so concurrent
// emitters never interleave partial writes.
type ProgressWriter struct {
	mu  sync.Mutex
	w   io.Writer
	seq int64
}

// NewProgressWriter wraps w. A nil w yields a no-op writer (progress
// emission is optional; --live/--output wire a real sink).
func NewProgressWriter(w io.Writer) *ProgressWriter {
	return &ProgressWriter{w: w}
}

// Emit writes one event, filling in Seq and Timestamp. Marshal/write errors
// are swallowed: a broken progress stream must never interrupt the
// investigation (execution contract -- only worker-level
// logic is allowed to fail the run).
func (p *ProgressWriter) Emit(kind, node, message string, data interface{}) {
	if p == nil || p.w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	event := ProgressEvent{
		Seq: p.seq, Kind: kind, Node: node, Message: message,
		Data: data, Timestamp: time.Now(),
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		return
	}
	encoded = append(encoded, '\n')
	_, _ = p.w.Write(encoded)
}
