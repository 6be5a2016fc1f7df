package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cargoupstall/internal/installer"
	"cargoupstall/internal/manifest"
	"cargoupstall/internal/resolve"
)

type upstallOptions struct {
	max      string
	git      string
	features []string
	dryRun   bool
}

type upstallResult struct {
	Decision resolve.Decision `json:"decision"`
	Command  []string         `json:"command,omitempty"`
	DryRun   bool             `json:"dry_run"`
}

func runUpstall(cmd *cobra.Command, args []string, opts upstallOptions) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	crate := strings.TrimSpace(args[0])
	if crate == "" {
		return errors.New("crate name must not be empty")
	}

	ceiling, err := parseCeiling(opts.max)
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	installed, err := e.installed()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	decision, err := resolve.Plan(ctx, installed, crate, ceiling, e.registry())
	if err != nil {
		return fmt.Errorf("check %s: %w", crate, err)
	}
	reportDecision(e.log, decision, ceiling)

	req := installer.Request{
		Crate:    crate,
		Action:   decision.Action,
		Features: opts.features,
		Git:      opts.git,
	}
	inst := installer.Installer{
		Cargo:  e.cfg.Cargo.Binary,
		Runner: cargoRunner,
		Env:    cargoEnv(e),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}

	if outputJSON {
		// Keep stdout parseable; cargo's own output goes to stderr.
		inst.Stdout = cmd.ErrOrStderr()
		result := upstallResult{Decision: decision, DryRun: opts.dryRun}
		if argv := installer.Args(req); argv != nil {
			result.Command = append([]string{inst.Cargo}, argv...)
		}
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}

	if opts.dryRun {
		if !outputJSON {
			printDryRun(cmd.OutOrStdout(), inst, req)
		}
		return nil
	}

	ran, err := inst.Run(ctx, req)
	if err != nil {
		return err
	}
	if ran {
		e.log.WithField("crate", crate).Info("cargo install finished")
	}
	return nil
}

// cargoEnv points cargo at the configured cargo home so the install lands in
// the manifest that was just read.
func cargoEnv(e *env) []string {
	if strings.TrimSpace(e.cfg.Cargo.Home) == "" {
		return nil
	}
	return []string{"CARGO_HOME=" + e.paths.CargoHome}
}

func parseCeiling(value string) (*semver.Version, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := semver.StrictNewVersion(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --max %q: %w", value, err)
	}
	return v, nil
}

// reportDecision explains the chosen action at info level.
func reportDecision(log logrus.FieldLogger, d resolve.Decision, ceiling *semver.Version) {
	entry := log.WithField("crate", d.Name)
	switch {
	case d.Installed == nil:
		entry.Info("Not installed yet, installing")
	case d.Installed.Source.Kind == manifest.SourceVCS:
		entry.Info("Git repos are always re-installed with --force")
	case d.Action.IsNothing() && ceiling != nil:
		entry.Info("You currently have a version at least at your max version")
	case d.Action.IsNothing():
		entry.Info("You have the most recent version")
	default:
		entry.Infof("You have version %s installed, upgrading to %s", d.Installed.Version, d.Action.Version)
	}
}

func printDryRun(w io.Writer, inst installer.Installer, req installer.Request) {
	if line := inst.CommandLine(req); line != "" {
		fmt.Fprintln(w, line)
		return
	}
	fmt.Fprintln(w, "Nothing to do")
}
