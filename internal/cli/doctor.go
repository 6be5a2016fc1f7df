package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"cargoupstall/internal/config"
	"cargoupstall/internal/installer"
	"cargoupstall/internal/manifest"
	"cargoupstall/internal/paths"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that cargo, the config and the manifests are usable",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(configPath)
	if err != nil {
		return err
	}

	cfg, cfgErr := config.Load(pp.ConfigFile)
	if cfgErr != nil {
		cfg = config.Default()
	}
	pp = paths.ApplyConfig(pp, cfg)

	checks := []healthCheck{
		checkCargo(cmd, cfg),
		checkConfig(pp, cfg, cfgErr),
		checkManifest("Local", pp.LocalManifest),
		checkManifest("Global", pp.GlobalManifest),
		checkCache(pp, cfg),
	}
	return writeDoctorResult(cmd, pp.CargoHome, checks)
}

func checkCargo(cmd *cobra.Command, cfg config.Config) healthCheck {
	status, err := installer.DetectCargo(cmd.Context(), cargoRunner, cfg.Cargo.Binary)
	if err != nil {
		return healthCheck{Name: "Cargo", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Cargo", Status: "ok", Summary: fmt.Sprintf("%s (%s)", status.Version, status.Path)}
}

func checkConfig(pp paths.Paths, cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errs int
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errs++
		}
	}

	switch {
	case errs > 0:
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%d errors, %d warnings in %s", errs, warnings, pp.ConfigFile)}
	case warnings > 0:
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%d warnings in %s", warnings, pp.ConfigFile)}
	}

	if ok, _ := paths.FileExists(pp.ConfigFile); !ok {
		return healthCheck{Name: "Config", Status: "ok", Summary: "defaults (no " + config.FileName + ")"}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: pp.ConfigFile}
}

func checkManifest(name, path string) healthCheck {
	exists, err := paths.FileExists(path)
	if err != nil {
		return healthCheck{Name: name, Status: "error", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{Name: name, Status: "ok", Summary: "no " + manifest.FileName}
	}

	in, err := manifest.LoadFile(path)
	if err != nil {
		return healthCheck{Name: name, Status: "error", Summary: err.Error()}
	}
	parsed := len(in.Commands())
	if skipped := len(in.Skipped()); skipped > 0 {
		return healthCheck{
			Name:    name,
			Status:  "warning",
			Summary: fmt.Sprintf("%d crates, %d unreadable entries in %s", parsed, skipped, path),
		}
	}
	return healthCheck{Name: name, Status: "ok", Summary: fmt.Sprintf("%d crates in %s", parsed, path)}
}

func checkCache(pp paths.Paths, cfg config.Config) healthCheck {
	if !cfg.CacheEnabled() || pp.CacheDir == "" {
		return healthCheck{Name: "Cache", Status: "ok", Summary: "disabled"}
	}
	return healthCheck{Name: "Cache", Status: "ok", Summary: fmt.Sprintf("%s (ttl %s)", pp.IndexCacheFile(), cfg.CacheTTL())}
}

func writeDoctorResult(cmd *cobra.Command, cargoHome string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("CARGO HOME:")+" "+cargoHome)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-8s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}
	return nil
}
