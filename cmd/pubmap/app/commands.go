package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pubmap/cmd/pubmap/cmd/list"
	"github.com/agentstation/pubmap/cmd/pubmap/cmd/sources"
	synccmd "github.com/agentstation/pubmap/cmd/pubmap/cmd/sync"
	"github.com/agentstation/pubmap/cmd/pubmap/cmd/validate"
)

// CreateSyncCommand creates the sync command with app dependencies.
func (a *App) CreateSyncCommand() *cobra.Command {
	return synccmd.NewCommand(a)
}

// CreateListCommand creates the list command with app dependencies.
func (a *App) CreateListCommand() *cobra.Command {
	return list.NewCommand(a)
}

// CreateValidateCommand creates the validate command with app dependencies.
func (a *App) CreateValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// CreateSourcesCommand creates the sources command.
func (a *App) CreateSourcesCommand() *cobra.Command {
	return sources.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("pubmap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
