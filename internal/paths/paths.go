package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cargoupstall/internal/config"
	"cargoupstall/internal/manifest"
	"cargoupstall/internal/registry"
)

// Paths captures the locations the tool reads from and writes to.
type Paths struct {
	WorkDir        string
	CargoHome      string
	ConfigFile     string
	LocalManifest  string
	GlobalManifest string
	CacheDir       string
}

// Resolve determines the cargo home from the environment and the working
// directory, and locates the config file. configFlag overrides the config
// location when non-empty.
func Resolve(configFlag string) (Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve working directory: %w", err)
	}

	home, err := cargoHome()
	if err != nil {
		return Paths{}, err
	}

	p := newPaths(wd, home)
	if configFlag != "" {
		abs, err := filepath.Abs(configFlag)
		if err != nil {
			return Paths{}, fmt.Errorf("resolve config path: %w", err)
		}
		p.ConfigFile = abs
	}
	p.CacheDir = defaultCacheDir()
	return p, nil
}

func newPaths(wd, home string) Paths {
	return Paths{
		WorkDir:        wd,
		CargoHome:      home,
		ConfigFile:     filepath.Join(home, config.FileName),
		LocalManifest:  filepath.Join(wd, manifest.FileName),
		GlobalManifest: filepath.Join(home, manifest.FileName),
	}
}

// ApplyConfig overrides the resolved locations with values from cfg. The
// config file itself stays where it was found.
func ApplyConfig(p Paths, cfg config.Config) Paths {
	if home := strings.TrimSpace(cfg.Cargo.Home); home != "" {
		home = resolvePath(p.WorkDir, expandHome(home))
		p.CargoHome = home
		p.GlobalManifest = filepath.Join(home, manifest.FileName)
	}
	if dir := strings.TrimSpace(cfg.Cache.Dir); dir != "" {
		p.CacheDir = resolvePath(p.WorkDir, expandHome(dir))
	}
	return p
}

// IndexCacheFile returns the path of the index cache inside CacheDir.
func (p Paths) IndexCacheFile() string {
	if p.CacheDir == "" {
		return ""
	}
	return filepath.Join(p.CacheDir, registry.CacheFileName)
}

// cargoHome follows cargo's lookup: $CARGO_HOME, then ~/.cargo. CARGOHOME is
// honoured as a fallback for older setups.
func cargoHome() (string, error) {
	for _, key := range []string{"CARGO_HOME", "CARGOHOME"} {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			abs, err := filepath.Abs(v)
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", key, err)
			}
			return abs, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	return filepath.Join(home, ".cargo"), nil
}

func defaultCacheDir() string {
	if override, ok := os.LookupEnv("CARGO_UPSTALL_CACHE_DIR"); ok && override != "" {
		if abs, err := filepath.Abs(override); err == nil {
			return abs
		}
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cargo-upstall")
}

func expandHome(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return value
	}
	return filepath.Join(home, strings.TrimPrefix(value, "~"))
}

func resolvePath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
