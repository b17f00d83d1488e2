// Package differ compares two catalogs and reports what changed between them.
package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a field or record was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a field or record was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates a field or record was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a single field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`
	OldValue string     `json:"old" yaml:"old"`
	NewValue string     `json:"new" yaml:"new"`
	Type     ChangeType `json:"type" yaml:"type"`
}

// Update represents a change to an existing publication.
type Update struct {
	Key      string               `json:"key" yaml:"key"`
	Existing catalogs.Publication `json:"-" yaml:"-"`
	New      catalogs.Publication `json:"-" yaml:"-"`
	Changes  []FieldChange        `json:"changes" yaml:"changes"`
}

// Summary provides summary statistics for a changeset.
type Summary struct {
	Added        int  `json:"added" yaml:"added"`
	Updated      int  `json:"updated" yaml:"updated"`
	Removed      int  `json:"removed" yaml:"removed"`
	Reordered    bool `json:"reordered" yaml:"reordered"`
	TotalChanges int  `json:"total" yaml:"total"`
}

// Changeset represents all changes between two catalogs.
type Changeset struct {
	Added   []catalogs.Publication `json:"added" yaml:"added"`
	Updated []Update               `json:"updated" yaml:"updated"`
	Removed []catalogs.Publication `json:"removed" yaml:"removed"`
	Summary Summary                `json:"summary" yaml:"summary"`
}

// HasChanges returns true if writing the new catalog would change the
// document, including a change of record order only.
func (c *Changeset) HasChanges() bool {
	return c != nil && (c.Summary.TotalChanges > 0 || c.Summary.Reordered)
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return !c.HasChanges()
}

func calculateSummary(c *Changeset, reordered bool) Summary {
	return Summary{
		Added:        len(c.Added),
		Updated:      len(c.Updated),
		Removed:      len(c.Removed),
		Reordered:    reordered,
		TotalChanges: len(c.Added) + len(c.Updated) + len(c.Removed),
	}
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if n := len(c.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(c.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	if n := len(c.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if c.Summary.Reordered {
		parts = append(parts, "reordered")
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset to w.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))

	if len(c.Added) > 0 {
		fmt.Fprintf(w, "\n➕ Added Publications (%d):\n", len(c.Added))
		for _, p := range c.Added {
			fmt.Fprintf(w, "  • %s\n", p)
		}
	}

	if len(c.Updated) > 0 {
		fmt.Fprintf(w, "\n🔄 Updated Publications (%d):\n", len(c.Updated))
		for _, u := range c.Updated {
			fmt.Fprintf(w, "  • %s:\n", u.Key)
			for _, change := range u.Changes {
				fmt.Fprintf(w, "    - %s: %s → %s\n", change.Path,
					truncateString(change.OldValue, 60), truncateString(change.NewValue, 60))
			}
		}
	}

	if len(c.Removed) > 0 {
		fmt.Fprintf(w, "\n⚠️  Removed Publications (%d):\n", len(c.Removed))
		for _, p := range c.Removed {
			fmt.Fprintf(w, "  • %s\n", p)
		}
	}
}

// ApplyStrategy represents which kinds of change to keep.
type ApplyStrategy string

const (
	// ApplyAll keeps all changes including removals.
	ApplyAll ApplyStrategy = "all"

	// ApplyAdditive keeps additions and updates, never removals.
	ApplyAdditive ApplyStrategy = "additive"

	// ApplyUpdatesOnly keeps updates to existing records.
	ApplyUpdatesOnly ApplyStrategy = "updates-only"

	// ApplyAdditionsOnly keeps new records.
	ApplyAdditionsOnly ApplyStrategy = "additions-only"
)

// Filter returns the part of the changeset selected by strategy.
func (c *Changeset) Filter(strategy ApplyStrategy) *Changeset {
	if strategy == ApplyAll {
		return c
	}

	filtered := &Changeset{}
	switch strategy {
	case ApplyAdditive:
		filtered.Added = c.Added
		filtered.Updated = c.Updated
	case ApplyUpdatesOnly:
		filtered.Updated = c.Updated
	case ApplyAdditionsOnly:
		filtered.Added = c.Added
	}
	filtered.Summary = calculateSummary(filtered, false)
	return filtered
}

func truncateString(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
