package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastertools/spin-loader/internal/logging"
	"github.com/fastertools/spin-loader/pkg/oci"
)

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <reference> <module.wasm>",
		Short: "Publish a Wasm module to an OCI registry",
		Long: `Push a Wasm module as a single-layer OCI artifact and print its parcel
digest, ready to be used as a remote component source:

  [component.source]
  reference = "<reference>"
  parcel = "<printed digest>"`,
		Example: `  spin push ghcr.io/org/hello:v1 target/wasm32-wasi/release/hello.wasm`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runPush(cmd *cobra.Command, reference, wasmPath string) error {
	cfg, err := currentSettings()
	if err != nil {
		return err
	}
	ctx, _ := commandContext(cmd, cfg)

	parcel, err := oci.NewPublisher(
		oci.WithInsecure(cfg.Insecure),
		oci.WithLogger(logging.FromContext(ctx)),
	).Publish(ctx, reference, wasmPath)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), parcel.String())
	Success("Published %s", reference)
	return nil
}
