package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fastertools/spin-loader/internal/config"
	"github.com/fastertools/spin-loader/internal/logging"
)

var (
	// Version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	// Global flags
	cfgFile   string
	verbose   bool
	noColor   bool
	logLevel  string
	logFormat string

	// Effective configuration, set by PersistentPreRunE
	settings *config.Config

	// Colors
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)

	// For testing - allows redirecting output
	colorOutput io.Writer = os.Stdout
	errorOutput io.Writer = os.Stderr
)

// rootCmd represents the base command
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spin",
		Short: "Spin - load, inspect and scaffold WebAssembly applications",
		Long: `spin works with Spin application manifests (spin.toml). It resolves
components, file mounts and triggers, fetches remote modules from OCI
registries and scaffolds new applications from templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			cfg, err := loadSettings(viper.GetViper())
			if err != nil {
				return err
			}
			settings = cfg
			return nil
		},
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/spin/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no-color", cmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", cmd.PersistentFlags().Lookup("log-format"))

	cmd.AddCommand(
		newInspectCmd(),
		newPullCmd(),
		newPushCmd(),
		newTemplatesCmd(),
		newNewCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version information
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)
}

// loadSettings merges defaults, the config file, SPIN_* variables and flags
func loadSettings(v *viper.Viper) (*config.Config, error) {
	if err := config.SetDefaults(v); err != nil {
		return nil, err
	}
	if err := config.ReadConfigFile(v, cfgFile); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" && verbose {
		fmt.Fprintln(errorOutput, infoColor.Sprint("Using config file:"), used)
	}

	if verbose && logLevel == "" {
		v.Set("log-level", "debug")
	}
	return config.Load(v)
}

// currentSettings returns the loaded configuration, falling back to
// defaults when a command runs without the root command.
func currentSettings() (*config.Config, error) {
	if settings != nil {
		return settings, nil
	}
	cfg, err := loadSettings(viper.New())
	if err != nil {
		return nil, err
	}
	settings = cfg
	return cfg, nil
}

// commandContext returns the command's context carrying the CLI logger
func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, *slog.Logger) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return logging.WithLogger(ctx, logger), logger
}

// Helper functions for consistent output

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Fprintln(colorOutput, successColor.Sprintf("✓ "+format, args...))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Fprintln(errorOutput, errorColor.Sprintf("✗ "+format, args...))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Fprintln(colorOutput, infoColor.Sprintf("ℹ "+format, args...))
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	fmt.Fprintln(errorOutput, warnColor.Sprintf("⚠ "+format, args...))
}

// Debug prints a debug message if verbose mode is enabled
func Debug(format string, args ...interface{}) {
	if IsVerbose() {
		fmt.Fprintln(errorOutput, color.New(color.FgMagenta).Sprintf("» "+format, args...))
	}
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}
