package sync

import (
	"fmt"
	"strings"

	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/differ"
	"github.com/agentstation/pubmap/pkg/provenance"
	"github.com/agentstation/pubmap/pkg/reconciler"
	"github.com/agentstation/pubmap/pkg/sources"
)

// Result represents the complete result of a sync run.
type Result struct {
	Catalog    *catalogs.Catalog // merged, enhanced and sorted catalog
	Changeset  *differ.Changeset // difference against the loaded catalog
	Stats      reconciler.Stats  // merge counters
	Provenance provenance.Map    // which source wrote which field

	// Fetch statistics
	Source   sources.ID // where the records came from
	Skipped  int        // records dropped by the normalizer
	Enhanced int        // publications changed by enhancers

	// Operation metadata
	DryRun     bool                // Whether this was a dry run
	Written    bool                // Whether the catalog was written
	Path       string              // Catalog document path
	LoadStatus catalogs.LoadStatus // What was found on disk before the run
	Backup     string              // Copy of a malformed catalog, if one was made
}

// HasChanges returns true if the sync result contains any changes.
func (r *Result) HasChanges() bool {
	return r != nil && r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	if r == nil {
		return "No sync performed"
	}

	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if r.Written {
		parts = append(parts, "(Written)")
	}

	summary := fmt.Sprintf("%d fetched from %s: %d matched, %d added, %d carried over",
		r.Stats.Fetched, r.Source, r.Stats.Matched, r.Stats.Added, r.Stats.Carried)
	if r.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	if r.HasChanges() {
		summary += "; " + r.Changeset.String()
	} else {
		summary += "; no changes detected"
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}

	return summary
}

// Report is the serializable form of a Result used by the CLI.
type Report struct {
	Source     string              `json:"source" yaml:"source"`
	Path       string              `json:"path" yaml:"path"`
	LoadStatus catalogs.LoadStatus `json:"load_status" yaml:"load_status"`
	Backup     string              `json:"backup,omitempty" yaml:"backup,omitempty"`
	Fetched    int                 `json:"fetched" yaml:"fetched"`
	Skipped    int                 `json:"skipped" yaml:"skipped"`
	Matched    int                 `json:"matched" yaml:"matched"`
	Added      []string            `json:"added" yaml:"added"`
	Updated    []string            `json:"updated" yaml:"updated"`
	Carried    int                 `json:"carried" yaml:"carried"`
	Enhanced   int                 `json:"enhanced" yaml:"enhanced"`
	Reordered  bool                `json:"reordered" yaml:"reordered"`
	Total      int                 `json:"total" yaml:"total"`
	DryRun     bool                `json:"dry_run" yaml:"dry_run"`
	Written    bool                `json:"written" yaml:"written"`
}

// Report converts the result for printing.
func (r *Result) Report() Report {
	rep := Report{
		Source:     string(r.Source),
		Path:       r.Path,
		LoadStatus: r.LoadStatus,
		Backup:     r.Backup,
		Fetched:    r.Stats.Fetched,
		Skipped:    r.Skipped + r.Stats.Skipped,
		Matched:    r.Stats.Matched,
		Added:      []string{},
		Updated:    []string{},
		Carried:    r.Stats.Carried,
		Enhanced:   r.Enhanced,
		Total:      r.Catalog.Len(),
		DryRun:     r.DryRun,
		Written:    r.Written,
	}
	if r.Changeset != nil {
		for _, p := range r.Changeset.Added {
			rep.Added = append(rep.Added, p.Key)
		}
		for _, u := range r.Changeset.Updated {
			rep.Updated = append(rep.Updated, u.Key)
		}
		rep.Reordered = r.Changeset.Summary.Reordered
	}
	return rep
}
