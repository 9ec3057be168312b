package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/fastertools/spin-loader/pkg/templates"
)

// askOne is survey.AskOne, replaced in tests
var askOne = survey.AskOne

// NewOptions holds options for the new command
type NewOptions struct {
	Repo     string
	Template string
	Name     string
	Dir      string
}

func newNewCmd() *cobra.Command {
	opts := &NewOptions{}

	cmd := &cobra.Command{
		Use:   "new [repository] [template] [name]",
		Short: "Create a new application from a template",
		Long: `Create a new application by copying a template from the templates cache.
Missing arguments are prompted for interactively.`,
		Example: `  # Pick repository, template and name interactively
  spin new

  # Non-interactive
  spin new fermyon http-rust hello`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Repo = args[0]
			}
			if len(args) > 1 {
				opts.Template = args[1]
			}
			if len(args) > 2 {
				opts.Name = args[2]
			}
			return runNew(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory to create the application in (default: ./<name>)")
	return cmd
}

func runNew(cmd *cobra.Command, opts *NewOptions) error {
	m, err := templatesManager(cmd)
	if err != nil {
		return err
	}

	if opts.Repo == "" || opts.Template == "" {
		repos, err := m.List(cmd.Context())
		if err != nil {
			return err
		}
		if err := promptTemplate(repos, opts); err != nil {
			return err
		}
	}

	if opts.Name == "" {
		prompt := &survey.Input{
			Message: "Application name:",
		}
		if err := askOne(prompt, &opts.Name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	dst := opts.Dir
	if dst == "" {
		if err := validateUserPath(opts.Name); err != nil {
			return err
		}
		dst = filepath.Clean(opts.Name)
	}

	if err := m.Generate(opts.Repo, opts.Template, dst); err != nil {
		return err
	}
	Success("Created %s from %s/%s", dst, opts.Repo, opts.Template)
	return nil
}

func promptTemplate(repos []templates.Repository, opts *NewOptions) error {
	if opts.Repo == "" {
		var names []string
		for _, r := range repos {
			if len(r.Templates) > 0 {
				names = append(names, r.Name)
			}
		}
		if len(names) == 0 {
			return errors.New("no templates installed; add some with 'spin templates add'")
		}
		prompt := &survey.Select{
			Message: "Templates repository:",
			Options: names,
		}
		if err := askOne(prompt, &opts.Repo); err != nil {
			return err
		}
	}

	if opts.Template == "" {
		var choices []string
		for _, r := range repos {
			if r.Name == opts.Repo {
				choices = r.Templates
			}
		}
		if len(choices) == 0 {
			return fmt.Errorf("repository %q has no templates", opts.Repo)
		}
		prompt := &survey.Select{
			Message: "Template:",
			Options: choices,
		}
		if err := askOne(prompt, &opts.Template); err != nil {
			return err
		}
	}
	return nil
}
