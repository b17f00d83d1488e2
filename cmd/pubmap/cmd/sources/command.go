// Package sources provides the sources command.
package sources

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pubmap/cmd/application"
	"github.com/agentstation/pubmap/internal/cmd/output"
	"github.com/agentstation/pubmap/internal/sources/registry"
	"github.com/agentstation/pubmap/pkg/sources"
)

// Info describes one available source.
type Info struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Needs       string `json:"needs" yaml:"needs"`
}

var descriptions = map[sources.ID]Info{
	sources.SerpAPIID: {Description: "Google Scholar author profile through SerpAPI", Needs: "--author, SERPAPI_API_KEY"},
	sources.ScholarID: {Description: "Public Google Scholar profile listing", Needs: "--author"},
	sources.FileID:    {Description: "Local YAML or JSON export", Needs: "--input"},
}

// NewCommand creates the sources command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "sources",
		GroupID: "management",
		Short:   "List the publication sources sync can read",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), List())
		},
	}
}

// List returns the registered sources in ID order.
func List() []Info {
	ids := registry.List()
	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		info := descriptions[id]
		info.ID = string(id)
		infos = append(infos, info)
	}
	return infos
}
