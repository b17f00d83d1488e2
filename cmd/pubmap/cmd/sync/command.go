// Package sync provides the sync command.
package sync

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/pubmap"
	"github.com/agentstation/pubmap/cmd/application"
	"github.com/agentstation/pubmap/internal/cmd/output"
	"github.com/agentstation/pubmap/internal/sources/registry"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/identity"
	"github.com/agentstation/pubmap/pkg/sources"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	Source    string
	Author    string
	Input     string
	BaseURL   string
	MaxPages  int
	PageSize  int
	Delay     time.Duration
	Timeout   time.Duration
	DryRun    bool
	Force     bool
	KeyPrefix string
	Identity  string
	NoEnhance bool
	Crossref  bool
	Mailto    string
	Every     time.Duration
}

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	cmd, _ := newCommand(app)
	return cmd
}

func newCommand(app application.Application) (*cobra.Command, *Flags) {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Synchronize the catalog with a publication source",
		Long: `Sync fetches the author's publications from a source and merges them
into the catalog document:

• Records already in the catalog get their source fields refreshed
• New records are added with a stable key
• Records missing from the fetch are kept as they are
• Curator fields (selected, image, custom fields) are never changed
• An empty fetch aborts without writing

The catalog is written atomically in canonical order (newest first), and
only when something changed.`,
		Example: `  pubmap sync --author AbCdEfG                   # Sync from SerpAPI (SERPAPI_API_KEY)
  pubmap sync --source scholar --author AbCdEfG   # Read the public profile listing
  pubmap sync --source file --input export.yaml   # Import a local export
  pubmap sync --dry-run -o json                   # Preview the changes
  pubmap sync --crossref --mailto me@example.org  # Fill DOIs from Crossref
  pubmap sync --every 24h                         # Keep syncing until interrupted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.Source, "source", "s", "", fmt.Sprintf("publication source: %v", registry.List()))
	f.StringVarP(&flags.Author, "author", "a", "", "author profile id")
	f.StringVarP(&flags.Input, "input", "i", "", "input document for the file source")
	f.StringVar(&flags.BaseURL, "base-url", "", "override the source endpoint")
	f.IntVar(&flags.MaxPages, "max-pages", 0, "maximum pages to fetch (0 uses the source default)")
	f.IntVar(&flags.PageSize, "page-size", 0, "records per page (0 uses the source default)")
	f.DurationVar(&flags.Delay, "delay", 0, "pause between pages (0 uses the source default)")
	f.DurationVar(&flags.Timeout, "timeout", 0, "bound for the whole run")
	f.BoolVar(&flags.DryRun, "dry-run", false, "show changes without writing")
	f.BoolVarP(&flags.Force, "force", "f", false, "write even when nothing changed")
	f.StringVar(&flags.KeyPrefix, "key-prefix", "", "prefix for newly assigned keys")
	f.StringVar(&flags.Identity, "identity", "", "identity strategy: keyed, title")
	f.BoolVar(&flags.NoEnhance, "no-enhance", false, "skip DOI extraction and link upgrades")
	f.BoolVar(&flags.Crossref, "crossref", false, "look up missing DOIs and venues on Crossref")
	f.StringVar(&flags.Mailto, "mailto", "", "contact address sent to Crossref")
	f.DurationVar(&flags.Every, "every", 0, "keep running and sync on this interval")

	return cmd, flags
}

// Options converts the flags that were set on the command line. Flags left
// at their zero value defer to the configuration.
func (f *Flags) Options(cmd *cobra.Command) []pkgsync.Option {
	changed := cmd.Flags().Changed
	var opts []pkgsync.Option

	if changed("source") {
		opts = append(opts, pkgsync.WithSource(sources.ID(f.Source)))
	}
	if changed("author") {
		opts = append(opts, pkgsync.WithAuthor(f.Author))
	}
	if changed("input") {
		opts = append(opts, pkgsync.WithInput(f.Input))
		// --input alone implies the file source
		if !changed("source") {
			opts = append(opts, pkgsync.WithSource(sources.FileID))
		}
	}
	if changed("base-url") {
		opts = append(opts, pkgsync.WithBaseURL(f.BaseURL))
	}
	if changed("max-pages") {
		opts = append(opts, pkgsync.WithMaxPages(f.MaxPages))
	}
	if changed("page-size") {
		opts = append(opts, pkgsync.WithPageSize(f.PageSize))
	}
	if changed("delay") {
		opts = append(opts, pkgsync.WithPageDelay(f.Delay))
	}
	if changed("timeout") {
		opts = append(opts, pkgsync.WithTimeout(f.Timeout))
	}
	if changed("dry-run") {
		opts = append(opts, pkgsync.WithDryRun(f.DryRun))
	}
	if changed("force") {
		opts = append(opts, pkgsync.WithForce(f.Force))
	}
	if changed("key-prefix") {
		opts = append(opts, pkgsync.WithKeyPrefix(f.KeyPrefix))
	}
	if changed("identity") {
		opts = append(opts, pkgsync.WithIdentity(identity.Mode(f.Identity)))
	}
	if f.NoEnhance {
		opts = append(opts, pkgsync.WithoutEnhancement())
	}
	if changed("crossref") || changed("mailto") {
		opts = append(opts, pkgsync.WithCrossref(f.Crossref || changed("mailto"), f.Mailto))
	}
	return opts
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()
	opts := flags.Options(cmd)

	// Fail on bad settings before anything touches the network.
	resolved := pkgsync.Defaults().Apply(app.SyncOptions()...).Apply(opts...)
	if err := resolved.Validate(); err != nil {
		return err
	}
	logger.Debug().
		Str("source", string(resolved.Source)).
		Str("catalog", resolved.CatalogPath).
		Bool("dry_run", resolved.DryRun).
		Msg("Starting sync")

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if flags.Every > 0 {
		if flags.DryRun {
			return &errors.ValidationError{Field: "every", Value: flags.Every, Message: "cannot be combined with --dry-run"}
		}
		return watch(cmd, app, flags.Every, opts, format)
	}

	client, err := app.Client()
	if err != nil {
		return err
	}
	result, err := client.Sync(ctx, opts...)
	if err != nil {
		return err
	}
	return Print(out, format, result)
}

// watch syncs now and then on every tick until the command context ends.
func watch(cmd *cobra.Command, app application.Application, every time.Duration, opts []pkgsync.Option, format output.Format) error {
	ctx := cmd.Context()
	logger := app.Logger()
	out := cmd.OutOrStdout()

	client, err := app.Client(pubmap.WithAutoSync(every, opts...))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.AutoSyncOff(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop scheduled syncs")
		}
	}()

	client.OnSynced(func(result *pkgsync.Result) {
		if err := Print(out, format, result); err != nil {
			logger.Error().Err(err).Msg("Failed to print sync result")
		}
	})

	// The first run reports configuration problems directly.
	if _, err := client.Sync(ctx, opts...); err != nil {
		return err
	}

	logger.Info().Dur("every", every).Msg("Waiting for the next sync, interrupt to stop")
	<-ctx.Done()
	return nil
}

// Print writes a sync result in the given format.
func Print(w io.Writer, format output.Format, result *pkgsync.Result) error {
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, result.Report())
	}

	if _, err := fmt.Fprintln(w, result.Summary()); err != nil {
		return err
	}
	if result.HasChanges() {
		result.Changeset.Print(w)
	}
	if result.Backup != "" {
		if _, err := fmt.Fprintf(w, "Malformed catalog saved as %s\n", result.Backup); err != nil {
			return err
		}
	}
	return nil
}
