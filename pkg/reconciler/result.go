package reconciler

import (
	"fmt"

	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/differ"
	"github.com/agentstation/pubmap/pkg/provenance"
)

// Result represents the outcome of a merge.
type Result struct {
	// Catalog is the merged catalog in canonical order.
	Catalog *catalogs.Catalog

	// Changeset describes the merged catalog relative to the input catalog.
	Changeset *differ.Changeset

	// Touched lists the keys written by this fetch in first-seen order.
	Touched []string

	// Provenance records which source wrote each changed field.
	Provenance provenance.Map

	Stats Stats
}

// Stats counts what a merge did.
type Stats struct {
	Fetched int `json:"fetched" yaml:"fetched"` // candidates received
	Matched int `json:"matched" yaml:"matched"` // existing records refreshed
	Added   int `json:"added" yaml:"added"`     // records created
	Carried int `json:"carried" yaml:"carried"` // existing records not in the fetch
	Skipped int `json:"skipped" yaml:"skipped"` // candidates without a key
}

// HasChanges returns true if the merge changed the catalog.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if !r.HasChanges() {
		return fmt.Sprintf("Merged %d records. No changes detected.", r.Stats.Fetched)
	}
	return fmt.Sprintf("Merged %d records (%d matched, %d added, %d carried). %s",
		r.Stats.Fetched, r.Stats.Matched, r.Stats.Added, r.Stats.Carried, r.Changeset.String())
}
