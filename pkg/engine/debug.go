package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/deepresearch/investigator/pkg/domain"
)

// rawContentTruncateLimit bounds how much of a fetched page's raw_content
// survives into a debug snapshot; pages run well past this in practice and
// keeping them whole would make step_*.json files unreadable.
const rawContentTruncateLimit = 2000

// DebugSink writes the before/after state snapshot of every node execution
// when debug mode is enabled, in addition to the single end-of-run state
// dump every run produces.
type DebugSink struct {
	dir string
}

// NewDebugSink roots snapshots under dir. An empty dir disables the sink.
func NewDebugSink(dir string) (*DebugSink, error) {
	if dir == "" {
		return &DebugSink{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	return &DebugSink{dir: dir}, nil
}

// Enabled reports whether this sink actually writes anything.
func (d *DebugSink) Enabled() bool {
	return d != nil && d.dir != ""
}

// Snapshot writes step_<n>_<node>_<suffix>.json ("in" before a node runs,
// "out" after). Write failures are swallowed: debug output is diagnostic,
// never load-bearing for the investigation itself.
func (d *DebugSink) Snapshot(step int, node, suffix string, state *domain.InvestigationState) {
	if !d.Enabled() {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	data = pretty.Pretty(truncateRawContent(data))
	name := fmt.Sprintf("step_%d_%s_%s.json", step, node, suffix)
	_ = os.WriteFile(filepath.Join(d.dir, name), data, 0o644)
}

// truncateRawContent walks pending_content[*].raw_content and replaces any
// value over rawContentTruncateLimit with a placeholder, so a snapshot's
// fetched-page text doesn't dwarf the rest of the investigation state.
// Malformed or oversized indices are left alone rather than erroring.
func truncateRawContent(data []byte) []byte {
	for i := 0; ; i++ {
		path := fmt.Sprintf("pending_content.%d.raw_content", i)
		val := gjson.GetBytes(data, path)
		if !val.Exists() {
			break
		}
		if len(val.Str) <= rawContentTruncateLimit {
			continue
		}
		placeholder := fmt.Sprintf("<%d bytes, truncated for debug>", len(val.Str))
		if patched, err := sjson.SetBytes(data, path, placeholder); err == nil {
			data = patched
		}
	}
	return data
}
