package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/Masterminds/semver/v3"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cargoupstall/internal/manifest"
	"cargoupstall/internal/registry"
	"cargoupstall/internal/resolve"
	"cargoupstall/internal/tui"
)

type outdatedRow struct {
	Name      string              `json:"name"`
	Installed string              `json:"installed"`
	Source    manifest.SourceKind `json:"source"`
	Latest    string              `json:"latest,omitempty"`
	Status    string              `json:"status"`
	Action    *resolve.Action     `json:"action,omitempty"`
	Error     string              `json:"error,omitempty"`
}

var outdatedColumns = []tui.Column{
	{Header: "CRATE", Width: 24},
	{Header: "INSTALLED", Width: 10},
	{Header: "LATEST", Width: 10},
	{Header: "STATUS", Width: 8},
}

func newOutdatedCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "Check every installed crate against the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOutdated(cmd, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print a static table instead of live progress")
	return cmd
}

func runOutdated(cmd *cobra.Command, plain bool) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	pkgs, err := e.installed()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, plain, outputJSON)
	e.log.WithField("mode", mode).Debug("checking installed crates")

	table := tui.NewTable(outdatedColumns)
	for i, pkg := range pkgs {
		table.AddRow(strconv.Itoa(i), []string{pkg.Name, pkg.Version.String(), "-", tui.StatusPending})
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fetcher := newLatestRecorder(e.registry())
	rows := make([]outdatedRow, len(pkgs))
	done := make(chan struct{})
	var checkErr error
	work := func(send func(tea.Msg)) {
		defer close(done)
		checkErr = checkAll(ctx, pkgs, fetcher, e.cfg.Outdated.Concurrency, func(i int, row outdatedRow) {
			rows[i] = row
			send(tui.RowUpdateMsg{Key: strconv.Itoa(i), Fields: rowFields(row)})
		})
		if checkErr != nil && !errors.Is(checkErr, context.Canceled) {
			send(tui.ErrorMsg{Err: checkErr})
		}
	}

	if mode == tui.ModeTUI {
		runErr := tui.RunWithWork(out, table, work)
		// Quitting the table early abandons the remaining checks.
		cancel()
		<-done
		if runErr != nil {
			return runErr
		}
	} else {
		work(func(tea.Msg) {})
	}
	if checkErr != nil {
		if errors.Is(checkErr, context.Canceled) && cmd.Context().Err() == nil {
			return nil
		}
		return checkErr
	}

	for _, row := range rows {
		if row.Error != "" {
			e.log.WithField("crate", row.Name).Warn(row.Error)
		}
	}

	if mode == tui.ModeJSON {
		return writeJSON(out, rows)
	}
	if mode == tui.ModePlain {
		for i, row := range rows {
			table.Set(strconv.Itoa(i), rowFields(row))
		}
		fmt.Fprint(out, table.Render())
	}

	upgrades := 0
	for _, row := range rows {
		if row.Status == tui.StatusUpgrade {
			upgrades++
		}
	}
	fmt.Fprintf(out, "\n%d of %d crates can be upgraded\n", upgrades, len(rows))
	return nil
}

// checkAll runs an unbounded decision for every package with at most limit
// checks in flight. report is called once per package when its check starts
// and again when it finishes; calls are serialized.
func checkAll(ctx context.Context, pkgs []manifest.InstalledPackage, fetcher *latestRecorder, limit int, report func(int, outdatedRow)) error {
	if limit < 1 {
		limit = 1
	}

	var mu sync.Mutex
	emit := func(i int, row outdatedRow) {
		mu.Lock()
		defer mu.Unlock()
		report(i, row)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, pkg := range pkgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			emit(i, outdatedRow{
				Name:      pkg.Name,
				Installed: pkg.Version.String(),
				Source:    pkg.Source.Kind,
				Status:    tui.StatusChecking,
			})

			action, err := resolve.Decide(ctx, pkg, nil, fetcher)
			emit(i, classify(pkg, action, fetcher.latest(pkg.Name), err))
			return nil
		})
	}
	return g.Wait()
}

func classify(pkg manifest.InstalledPackage, action resolve.Action, latest *semver.Version, err error) outdatedRow {
	row := outdatedRow{
		Name:      pkg.Name,
		Installed: pkg.Version.String(),
		Source:    pkg.Source.Kind,
	}
	if latest != nil {
		row.Latest = latest.String()
	}

	switch {
	case errors.Is(err, resolve.ErrNoPublishedVersions), errors.Is(err, registry.ErrNotFound):
		row.Status = tui.StatusMissing
		row.Error = err.Error()
	case err != nil:
		row.Status = tui.StatusError
		row.Error = err.Error()
	case action.IsNothing():
		row.Status = tui.StatusCurrent
	case pkg.Source.Kind == manifest.SourceVCS:
		row.Status = tui.StatusRefresh
		row.Action = &action
	default:
		row.Status = tui.StatusUpgrade
		row.Action = &action
	}
	return row
}

func rowFields(row outdatedRow) map[string]string {
	return map[string]string{
		"LATEST": tui.NonEmptyOrDash(row.Latest),
		"STATUS": row.Status,
	}
}

// latestRecorder remembers the newest published version seen per crate so
// the table can show it even when no upgrade is needed.
type latestRecorder struct {
	next resolve.VersionFetcher

	mu     sync.Mutex
	newest map[string]*semver.Version
}

func newLatestRecorder(next resolve.VersionFetcher) *latestRecorder {
	return &latestRecorder{next: next, newest: make(map[string]*semver.Version)}
}

func (r *latestRecorder) Versions(ctx context.Context, name string) ([]*semver.Version, error) {
	versions, err := r.next.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	if latest := resolve.Latest(versions); latest != nil {
		r.mu.Lock()
		r.newest[name] = latest
		r.mu.Unlock()
	}
	return versions, nil
}

func (r *latestRecorder) latest(name string) *semver.Version {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newest[name]
}
