// Package list provides the list command.
package list

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/pubmap/cmd/application"
	"github.com/agentstation/pubmap/internal/cmd/output"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
)

// Flags holds the list command flags.
type Flags struct {
	Selected bool
	Search   string
	Year     int
	Limit    int
}

// NewCommand creates the list command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "list [id]",
		GroupID: "core",
		Short:   "List publications in the catalog",
		Aliases: []string{"ls"},
		Args:    cobra.MaximumNArgs(1),
		Example: `  pubmap list                     # List all publications
  pubmap list --selected          # Only featured publications
  pubmap list --search transformer --year 2023
  pubmap list smith2021deep -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			cat, err := app.Catalog()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				pub, ok := cat.Get(args[0])
				if !ok {
					return errors.NewNotFoundError("publication", args[0])
				}
				if format.IsTable() {
					return output.NewFormatter(format).Format(cmd.OutOrStdout(), output.PublicationsToData([]catalogs.Publication{pub}, true))
				}
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), pub)
			}

			pubs := Filter(cat.List(), flags)
			app.Logger().Debug().Int("count", len(pubs)).Int("total", cat.Len()).Msg("Listing publications")

			var data any = pubs
			if format.IsTable() {
				data = output.PublicationsToData(pubs, format == output.FormatWide)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().BoolVar(&flags.Selected, "selected", false, "only selected publications")
	cmd.Flags().StringVar(&flags.Search, "search", "", "case-insensitive match on title, authors or venue")
	cmd.Flags().IntVar(&flags.Year, "year", 0, "only publications from this year")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 0, "maximum number of publications (0 for all)")

	return cmd
}

// Filter applies the list flags to pubs, keeping catalog order.
func Filter(pubs []catalogs.Publication, flags *Flags) []catalogs.Publication {
	search := strings.ToLower(strings.TrimSpace(flags.Search))
	out := make([]catalogs.Publication, 0, len(pubs))
	for _, p := range pubs {
		if flags.Selected && !p.Selected {
			continue
		}
		if flags.Year != 0 && p.Year != flags.Year {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Authors), search) &&
			!strings.Contains(strings.ToLower(p.Venue), search) {
			continue
		}
		out = append(out, p)
		if flags.Limit > 0 && len(out) == flags.Limit {
			break
		}
	}
	return out
}
