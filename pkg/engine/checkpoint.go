package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepresearch/investigator/pkg/domain"
)

// Checkpointer persists a snapshot of the state after every node execution,
// keyed by a subject slug, so a crashed run can be resumed (
// "checkpoint ... keyed by a subject slug").
type Checkpointer struct {
	dir string
}

// NewCheckpointer roots checkpoints under dir, creating it if absent. An
// empty dir disables checkpointing (Save/Load become no-ops).
func NewCheckpointer(dir string) (*Checkpointer, error) {
	if dir == "" {
		return &Checkpointer{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &Checkpointer{dir: dir}, nil
}

// Slug renders a filesystem-safe checkpoint key from a subject's full name:
// lowercased, non-alphanumerics collapsed to single hyphens, trimmed.
func Slug(name string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading hyphens
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func (c *Checkpointer) path(slug string) string {
	return filepath.Join(c.dir, slug+"_checkpoint.json")
}

// Save writes state to the checkpoint file for slug. A no-op when
// checkpointing is disabled.
func (c *Checkpointer) Save(slug string, state *domain.InvestigationState) error {
	if c.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	tmp := c.path(slug) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return os.Rename(tmp, c.path(slug))
}

// Load reads a previously checkpointed state for slug, or (nil, false, nil)
// if none exists (a fresh run, not an error).
func (c *Checkpointer) Load(slug string) (*domain.InvestigationState, bool, error) {
	if c.dir == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(c.path(slug))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read checkpoint: %w", err)
	}
	var state domain.InvestigationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &state, true, nil
}
