package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cargoupstall/internal/config"
	"cargoupstall/internal/logx"
	"cargoupstall/internal/manifest"
	"cargoupstall/internal/paths"
	"cargoupstall/internal/registry"
)

// env bundles what every command needs after flags are parsed.
type env struct {
	paths  paths.Paths
	cfg    config.Config
	log    *logrus.Logger
	closer io.Closer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	pp, err := paths.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Errors(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, r := range errs {
			msgs[i] = r.Message
		}
		return nil, fmt.Errorf("invalid config %s: %s", pp.ConfigFile, strings.Join(msgs, "; "))
	}

	log, closer, err := logx.New(cfg.Log, cmd.ErrOrStderr(), verbose)
	if err != nil {
		return nil, err
	}
	for _, r := range cfg.Validate() {
		if r.Level == "warning" {
			log.WithField("config", pp.ConfigFile).Warn(r.Message)
		}
	}

	pp = paths.ApplyConfig(pp, cfg)
	log.WithFields(logrus.Fields{
		"cargo_home": pp.CargoHome,
		"config":     pp.ConfigFile,
	}).Debug("resolved paths")

	return &env{paths: pp, cfg: cfg, log: log, closer: closer}, nil
}

func (e *env) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// installed loads the local and global manifests. Entries that fail to parse
// are logged and skipped.
func (e *env) installed() ([]manifest.InstalledPackage, error) {
	pkgs, skipped, err := manifest.LoadAll(e.paths.LocalManifest, e.paths.GlobalManifest)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		e.log.WithError(s).Debug("skipping manifest entry")
	}
	e.log.WithField("count", len(pkgs)).Debug("loaded installed packages")
	return pkgs, nil
}

func (e *env) registry() *registry.Client {
	cache := registry.NewCache(e.paths.CacheDir, e.cfg.CacheTTL())
	if cache == nil {
		e.log.Debug("index cache disabled")
	}
	return registry.New(registry.Options{
		BaseURL:    e.cfg.Registry.URL,
		UserAgent:  e.cfg.Registry.UserAgent,
		Timeout:    e.cfg.RegistryTimeout(),
		SkipYanked: e.cfg.Registry.SkipYanked,
		Cache:      cache,
	})
}
