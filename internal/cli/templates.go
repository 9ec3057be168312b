package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastertools/spin-loader/pkg/templates"
)

// newGit builds the git runner used by template commands. Tests replace it.
var newGit = func(cmd *cobra.Command) templates.Git {
	return templates.NewGit(templates.WithGitOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()))
}

// TemplatesAddOptions holds options for templates add
type TemplatesAddOptions struct {
	Git    string
	Branch string
	Local  string
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage application templates",
		Long:  `Add and list the template repositories kept in the local templates cache.`,
	}

	cmd.AddCommand(
		newTemplatesAddCmd(),
		newTemplatesListCmd(),
	)
	return cmd
}

func newTemplatesAddCmd() *cobra.Command {
	opts := &TemplatesAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a template repository or a local template",
		Example: `  # Clone a repository of templates
  spin templates add fermyon --git https://github.com/fermyon/spin-templates

  # Track a specific branch
  spin templates add fermyon --git https://github.com/fermyon/spin-templates --branch dev

  # Link a local directory as a template
  spin templates add my-template --local ./my-template`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplatesAdd(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Git, "git", "", "URL of a git repository of templates")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "Branch to clone (with --git)")
	cmd.Flags().StringVar(&opts.Local, "local", "", "Local directory to add as a template")
	cmd.MarkFlagsMutuallyExclusive("git", "local")
	cmd.MarkFlagsOneRequired("git", "local")

	return cmd
}

func runTemplatesAdd(cmd *cobra.Command, name string, opts *TemplatesAddOptions) error {
	if opts.Branch != "" && opts.Git == "" {
		return errors.New("--branch can only be used with --git")
	}

	m, err := templatesManager(cmd)
	if err != nil {
		return err
	}

	if opts.Git != "" {
		ctx := cmd.Context()
		if err := m.AddRepo(ctx, name, opts.Git, opts.Branch); err != nil {
			return err
		}
		Success("Added templates repository %s from %s", name, opts.Git)
		return nil
	}

	if err := m.AddLocal(name, opts.Local); err != nil {
		return err
	}
	Success("Added local template %s", name)
	return nil
}

func newTemplatesListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List template repositories and their templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			m, err := templatesManager(cmd)
			if err != nil {
				return err
			}
			repos, err := m.List(cmd.Context())
			if err != nil {
				return err
			}

			dw := NewDataWriter(cmd.OutOrStdout(), output)
			if dw.IsJSON() {
				return dw.WriteStruct(repos)
			}
			table := NewTableBuilder("REPOSITORY", "TEMPLATES", "GIT", "BRANCH")
			for _, r := range repos {
				table.AddRow(r.Name, orDash(strings.Join(r.Templates, ", ")), orDash(r.Git), orDash(r.Branch))
			}
			return table.Write(dw)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func templatesManager(cmd *cobra.Command) (*templates.Manager, error) {
	cfg, err := currentSettings()
	if err != nil {
		return nil, err
	}
	ctx, logger := commandContext(cmd, cfg)
	cmd.SetContext(ctx)

	return templates.NewManager(cfg.TemplatesDir,
		templates.WithGit(newGit(cmd)),
		templates.WithLogger(logger.With("templates_dir", cfg.TemplatesDir)),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
