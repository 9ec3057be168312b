package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastertools/spin-loader/internal/config"
	"github.com/fastertools/spin-loader/pkg/loader"
	"github.com/fastertools/spin-loader/pkg/manifest"
)

// InspectOptions holds options for the inspect command
type InspectOptions struct {
	From   string
	Base   string
	Output string
}

func newInspectCmd() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a manifest and print the resolved application",
		Long: `Load an application manifest, resolve every component's module source,
file mounts and trigger, and print the result.`,
		Example: `  # Inspect spin.toml in the current directory
  spin inspect

  # Inspect a manifest elsewhere, resolving paths against another directory
  spin inspect --from ./app/spin.toml --base ./app

  # Machine readable output
  spin inspect --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.From, "from", "f", "", "Path to the application manifest (default: spin.toml in the current directory)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "Directory relative paths are resolved against (default: the manifest's directory)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format (table, json)")

	return cmd
}

func runInspect(cmd *cobra.Command, opts *InspectOptions) error {
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

	dw := NewDataWriter(cmd.OutOrStdout(), opts.Output)
	if dw.IsJSON() {
		return dw.WriteStruct(newApplicationView(app))
	}
	return writeApplicationTable(dw, app)
}

// resolveManifestPath fills in the default manifest and base directory
func resolveManifestPath(from, base string) (string, string, error) {
	if from == "" {
		found, err := config.FindManifest(".")
		if err != nil {
			return "", "", err
		}
		from = found.Path
	}
	if base == "" {
		base = filepath.Dir(from)
	}
	return from, base, nil
}

func loadApplication(ctx context.Context, logger *slog.Logger, cfg *config.Config, from, base string) (*manifest.Application, error) {
	from, base, err := resolveManifestPath(from, base)
	if err != nil {
		return nil, err
	}
	Debug("Loading %s (base %s)", from, base)

	app, err := loader.FromFile(ctx, from, base,
		loader.WithLogger(logger),
		loader.WithConcurrency(cfg.Concurrency))
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	return app, nil
}

func writeApplicationTable(dw *DataWriter, app *manifest.Application) error {
	info := NewKeyValueBuilder("Application").
		Add("Name", app.Info.Name).
		Add("Version", app.Info.Version).
		AddIf(app.Info.Description != "", "Description", app.Info.Description).
		AddIf(len(app.Info.Authors) > 0, "Authors", strings.Join(app.Info.Authors, ", ")).
		Add("Spin Version", string(app.Info.SchemaVersion)).
		Add("Trigger", app.Info.Trigger.TriggerType())
	if http, ok := app.Info.Trigger.(manifest.HTTPTriggerConfig); ok {
		info.Add("Base", http.Base)
	}
	if app.Info.Origin != nil {
		info.Add("Origin", app.Info.Origin.String())
	}
	if err := info.Write(dw); err != nil {
		return err
	}

	table := NewTableBuilder("COMPONENT", "SOURCE", "ROUTE", "EXECUTOR", "FILES", "ENV")
	for _, c := range app.Components {
		route, executor := "-", "-"
		if http, ok := app.ComponentTriggers[c.ID].(manifest.HTTPConfig); ok {
			route = http.Route
			executor = describeExecutor(http.Executor)
		}
		table.AddRow(
			c.ID,
			describeSource(c.Source),
			route,
			executor,
			fmt.Sprintf("%d", len(c.Mounts)),
			fmt.Sprintf("%d", len(c.Environment)),
		)
	}
	return table.Write(dw)
}

func describeSource(src manifest.ModuleSource) string {
	switch s := src.(type) {
	case manifest.FileReference:
		return s.Path
	case manifest.RemoteReference:
		return s.Reference + "@" + s.Parcel
	default:
		return "-"
	}
}

func describeExecutor(e manifest.HTTPExecutor) string {
	switch ex := e.(type) {
	case manifest.WagiExecutor:
		return fmt.Sprintf("wagi (%s: %s)", ex.Entrypoint, ex.Argv)
	case nil:
		return "-"
	default:
		return ex.Name()
	}
}

// applicationView is the JSON rendering of an Application
type applicationView struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description,omitempty"`
	Authors     []string        `json:"authors,omitempty"`
	SpinVersion string          `json:"spin_version"`
	Trigger     triggerView     `json:"trigger"`
	Origin      string          `json:"origin,omitempty"`
	Components  []componentView `json:"components"`
}

type triggerView struct {
	Type string `json:"type"`
	Base string `json:"base,omitempty"`
}

type componentView struct {
	ID          string            `json:"id"`
	Source      sourceView        `json:"source"`
	Environment map[string]string `json:"environment,omitempty"`
	Files       []mountView       `json:"files"`
	Trigger     *httpTriggerView  `json:"trigger,omitempty"`
}

type sourceView struct {
	Path      string `json:"path,omitempty"`
	Reference string `json:"reference,omitempty"`
	Parcel    string `json:"parcel,omitempty"`
}

type mountView struct {
	Host      string `json:"host"`
	Guest     string `json:"guest"`
	Directory bool   `json:"directory,omitempty"`
}

type httpTriggerView struct {
	Route      string `json:"route"`
	Executor   string `json:"executor"`
	Entrypoint string `json:"entrypoint,omitempty"`
	Argv       string `json:"argv,omitempty"`
}

func newApplicationView(app *manifest.Application) applicationView {
	v := applicationView{
		Name:        app.Info.Name,
		Version:     app.Info.Version,
		Description: app.Info.Description,
		Authors:     app.Info.Authors,
		SpinVersion: string(app.Info.SchemaVersion),
		Components:  make([]componentView, 0, len(app.Components)),
	}
	if app.Info.Trigger != nil {
		v.Trigger.Type = app.Info.Trigger.TriggerType()
		if http, ok := app.Info.Trigger.(manifest.HTTPTriggerConfig); ok {
			v.Trigger.Base = http.Base
		}
	}
	if app.Info.Origin != nil {
		v.Origin = app.Info.Origin.String()
	}

	for _, c := range app.Components {
		cv := componentView{
			ID:          c.ID,
			Environment: c.Environment,
			Files:       make([]mountView, 0, len(c.Mounts)),
		}
		switch s := c.Source.(type) {
		case manifest.FileReference:
			cv.Source.Path = s.Path
		case manifest.RemoteReference:
			cv.Source.Reference = s.Reference
			cv.Source.Parcel = s.Parcel
		}
		for _, m := range c.Mounts {
			cv.Files = append(cv.Files, mountView{Host: m.Host, Guest: m.Guest, Directory: m.Directory})
		}
		if http, ok := app.ComponentTriggers[c.ID].(manifest.HTTPConfig); ok {
			tv := &httpTriggerView{Route: http.Route}
			if http.Executor != nil {
				tv.Executor = http.Executor.Name()
			}
			if wagi, ok := http.Executor.(manifest.WagiExecutor); ok {
				tv.Entrypoint = wagi.Entrypoint
				tv.Argv = wagi.Argv
			}
			cv.Trigger = tv
		}
		v.Components = append(v.Components, cv)
	}
	return v
}
