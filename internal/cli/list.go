package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cargoupstall/internal/manifest"
	"cargoupstall/internal/tui"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List crates recorded in the local and global manifests",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	pkgs, err := e.installed()
	if err != nil {
		return err
	}

	if outputJSON {
		if pkgs == nil {
			pkgs = []manifest.InstalledPackage{}
		}
		return writeJSON(cmd.OutOrStdout(), pkgs)
	}

	if len(pkgs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No installed crates found")
		return nil
	}

	table := tui.NewTable([]tui.Column{
		{Header: "CRATE", Width: 24},
		{Header: "VERSION", Width: 10},
		{Header: "SOURCE", Width: 8},
		{Header: "BINARIES", Width: 40},
	})
	for i, pkg := range pkgs {
		table.AddRow(strconv.Itoa(i), []string{
			pkg.Name,
			pkg.Version.String(),
			pkg.Source.Kind.String(),
			tui.NonEmptyOrDash(strings.Join(pkg.Binaries, ", ")),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), table.Render())
	return nil
}
