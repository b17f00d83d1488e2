// Package validate provides the validate command.
package validate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/pubmap/cmd/application"
	"github.com/agentstation/pubmap/internal/cmd/output"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
)

// Issue is one problem found in a catalog.
type Issue struct {
	Key     string `json:"id" yaml:"id"`
	Problem string `json:"problem" yaml:"problem"`
}

// NewCommand creates the validate command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check the catalog document for problems",
		Long: `Validate reads the catalog and reports records a sync cannot manage
cleanly: missing or duplicate keys, missing titles, unreadable years and
records out of canonical order. It exits non-zero when problems are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			cat, err := app.Catalog()
			if err != nil {
				return err
			}

			issues := Check(cat)
			out := cmd.OutOrStdout()

			switch {
			case !format.IsTable():
				if err := output.NewFormatter(format).Format(out, issues); err != nil {
					return err
				}
			case len(issues) == 0:
				fmt.Fprintf(out, "✅ Catalog is valid (%d publications)\n", cat.Len())
			default:
				if err := output.NewFormatter(format).Format(out, issues); err != nil {
					return err
				}
			}

			if len(issues) > 0 {
				return &errors.ValidationError{
					Field:   "catalog",
					Value:   cat.Len(),
					Message: fmt.Sprintf("%d problem(s) found", len(issues)),
				}
			}
			return nil
		},
	}
}

// Check returns the problems found in cat, in catalog order.
func Check(cat *catalogs.Catalog) []Issue {
	issues := []Issue{}
	pubs := cat.List()

	duplicates := make(map[string]bool)
	for _, key := range cat.Duplicates() {
		duplicates[key] = true
	}

	for i, p := range pubs {
		label := p.Key
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			issues = append(issues, Issue{Key: label, Problem: "missing id"})
		}
		if duplicates[p.Key] {
			issues = append(issues, Issue{Key: label, Problem: "duplicate id"})
			delete(duplicates, p.Key)
		}
		if strings.TrimSpace(p.Title) == "" {
			issues = append(issues, Issue{Key: label, Problem: "missing title"})
		}
		if raw, ok := p.Extra[catalogs.FieldYear]; ok {
			issues = append(issues, Issue{Key: label, Problem: fmt.Sprintf("unreadable year %v", raw)})
		}
	}

	if !catalogs.IsSorted(pubs) {
		issues = append(issues, Issue{Key: "-", Problem: "records are not in canonical order (a sync will reorder them)"})
	}
	return issues
}
