package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cargoupstall/internal/installer"
)

const cratesIndex = "registry+https://github.com/rust-lang/crates.io-index"

type cargoCall struct {
	Command string
	Args    []string
	Env     []string
}

type recordingRunner struct {
	mu     sync.Mutex
	calls  []cargoCall
	stdout string
	err    error
}

func (r *recordingRunner) Run(_ context.Context, command string, args []string, opts installer.RunOptions) (installer.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cargoCall{Command: command, Args: append([]string(nil), args...), Env: opts.Env})
	return installer.RunResult{Stdout: []byte(r.stdout)}, r.err
}

// testEnv points the CLI at a temporary cargo home, a fake index and a
// recording cargo runner. Globals are restored on cleanup.
type testEnv struct {
	home   string
	runner *recordingRunner
	hits   map[string]int
	mu     sync.Mutex
}

func newTestEnv(t *testing.T, published map[string][]string) *testEnv {
	t.Helper()

	prevConfig, prevVerbose, prevJSON, prevRunner := configPath, verbose, outputJSON, cargoRunner
	t.Cleanup(func() {
		configPath, verbose, outputJSON, cargoRunner = prevConfig, prevVerbose, prevJSON, prevRunner
	})

	te := &testEnv{
		home:   t.TempDir(),
		runner: &recordingRunner{},
		hits:   make(map[string]int),
	}
	cargoRunner = te.runner

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/v1/crates/")
		te.mu.Lock()
		te.hits[name]++
		te.mu.Unlock()

		versions, ok := published[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		entries := make([]string, len(versions))
		for i, v := range versions {
			entries[i] = fmt.Sprintf(`{"num":%q,"yanked":false}`, v)
		}
		fmt.Fprintf(w, `{"crate":{"name":%q},"versions":[%s]}`, name, strings.Join(entries, ","))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CARGO_HOME", te.home)
	t.Setenv("CARGOHOME", "")
	t.Setenv("CARGO_UPSTALL_CACHE_DIR", t.TempDir())

	te.writeConfig(t, fmt.Sprintf("version: 1\nregistry:\n  url: %s\ncache:\n  enabled: false\n", srv.URL))
	return te
}

func (te *testEnv) writeConfig(t *testing.T, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(te.home, "upstall.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// install records keys in the global manifest.
func (te *testEnv) install(t *testing.T, keys ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("[v1]\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "%q = [%q]\n", key, strings.Fields(key)[0])
	}
	if err := os.WriteFile(filepath.Join(te.home, ".crates.toml"), []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func (te *testEnv) indexHits(name string) int {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.hits[name]
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
