package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"cargoupstall/internal/installer"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.2.0"

var (
	configPath string
	verbose    bool
	outputJSON bool
)

// cargoRunner runs cargo subprocesses. Tests replace it.
var cargoRunner installer.Runner = installer.CmdRunner{}

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(cargoArgs(os.Args[1:]))
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// cargoArgs drops the subcommand name cargo passes when the binary is invoked
// as "cargo upstall".
func cargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == "upstall" {
		return args[1:]
	}
	return args
}

func exitCode(err error) int {
	var exitErr *installer.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

func newRootCmd() *cobra.Command {
	opts := &upstallOptions{}

	cmd := &cobra.Command{
		Use:   "cargo-upstall <crate>",
		Short: "Safely upgrade or install a cargo binary crate",
		Long: "Checks the installed version of a crate against crates.io (or --max) " +
			"and runs cargo install only when an upgrade is needed.",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpstall(cmd, args, *opts)
		},
	}
	cmd.SetVersionTemplate("cargo-upstall {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to upstall.yaml (default: $CARGO_HOME/upstall.yaml)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.Flags().StringVar(&opts.max, "max", "", "A maximum target version")
	cmd.Flags().StringVar(&opts.git, "git", "", "The git repo url if not registered on crates.io")
	cmd.Flags().StringArrayVar(&opts.features, "features", nil, "Feature to pass to cargo install (repeatable)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the cargo command instead of running it")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newOutdatedCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}
