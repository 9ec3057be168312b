package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/fastertools/spin-loader/pkg/oci"
)

// PullOptions holds options for the pull command
type PullOptions struct {
	From   string
	Base   string
	Output string
}

func newPullCmd() *cobra.Command {
	opts := &PullOptions{}

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch the remote modules of an application",
		Long: `Load an application manifest and download every component whose source
is a remote reference into the local module cache. Each module is verified
against its parcel digest.`,
		Example: `  # Pull remote modules for spin.toml in the current directory
  spin pull

  # Pull from a registry served over plain HTTP
  SPIN_INSECURE=true spin pull --from ./app/spin.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.From, "from", "f", "", "Path to the application manifest (default: spin.toml in the current directory)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "Directory relative paths are resolved against (default: the manifest's directory)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format (table, json)")

	return cmd
}

func runPull(cmd *cobra.Command, opts *PullOptions) error {
	if err := validateOutputFormat(opts.Output); err != nil {
		return err
	}
	cfg, err := currentSettings()
	if err != nil {
		return err
	}
	ctx, logger := commandContext(cmd, cfg)

	app, err := loadApplication(ctx, logger, cfg, opts.From, opts.Base)
	if err != nil {
		return err
	}

	remotes := app.RemoteComponents()
	if len(remotes) == 0 {
		Info("No remote components in %s", app.Info.Name)
		return nil
	}

	fetcher, err := oci.NewFetcher(cfg.CacheDir,
		oci.WithInsecure(cfg.Insecure),
		oci.WithLogger(logger),
		oci.WithConcurrency(cfg.Concurrency))
	if err != nil {
		return err
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Writer = cmd.ErrOrStderr()
	sp.Suffix = fmt.Sprintf(" Pulling %d remote component(s)...", len(remotes))
	sp.Start()
	paths, err := fetcher.FetchAll(ctx, app)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("failed to pull modules: %w", err)
	}

	ids := make([]string, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := NewTableBuilder("COMPONENT", "PATH")
	for _, id := range ids {
		table.AddRow(id, paths[id])
	}
	if err := table.Write(NewDataWriter(cmd.OutOrStdout(), opts.Output)); err != nil {
		return err
	}
	if opts.Output != string(OutputFormatJSON) {
		Success("Pulled %d module(s) into %s", len(paths), cfg.CacheDir)
	}
	return nil
}
