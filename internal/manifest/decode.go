package manifest

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

// FileName is the name cargo uses for its installed-package manifest.
const FileName = ".crates.toml"

// ErrUnsupportedSchema is returned when a manifest has no v1 table.
var ErrUnsupportedSchema = errors.New("manifest has no v1 table")

// document mirrors the .crates.toml layout:
//
//	[v1]
//	"ripgrep 14.1.0 (registry+https://github.com/rust-lang/crates.io-index)" = ["rg"]
type document struct {
	V1 map[string][]string `toml:"v1"`
}

// Installed is a decoded manifest.
type Installed struct {
	entries map[string][]string
}

// Empty returns a manifest with no packages.
func Empty() Installed {
	return Installed{entries: map[string][]string{}}
}

// Decode parses the raw contents of a .crates.toml file.
func Decode(data []byte) (Installed, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return Installed{}, fmt.Errorf("decode manifest: %w", err)
	}
	if !md.IsDefined("v1") {
		return Installed{}, ErrUnsupportedSchema
	}
	if doc.V1 == nil {
		doc.V1 = map[string][]string{}
	}
	return Installed{entries: doc.V1}, nil
}

// Len returns the number of raw entries, including ones that fail to parse.
func (in Installed) Len() int {
	return len(in.entries)
}

// Commands returns every entry that parses, ordered by name and version.
// Malformed entries are dropped.
func (in Installed) Commands() []InstalledPackage {
	pkgs := make([]InstalledPackage, 0, len(in.entries))
	for key, binaries := range in.entries {
		if pkg, ok := ParseEntry(key, binaries); ok {
			pkgs = append(pkgs, pkg)
		}
	}
	slices.SortFunc(pkgs, func(a, b InstalledPackage) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.Version.Compare(b.Version)
	})
	return pkgs
}

// Skipped returns a description of every entry Commands drops.
func (in Installed) Skipped() []error {
	var errs []error
	for key, binaries := range in.entries {
		if _, err := parseEntry(key, binaries); err != nil {
			errs = append(errs, err)
		}
	}
	slices.SortFunc(errs, func(a, b error) int {
		return cmp.Compare(a.Error(), b.Error())
	})
	return errs
}

// LoadFile reads and decodes the manifest at path. A missing file yields an
// empty manifest.
func LoadFile(path string) (Installed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		return Installed{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	in, err := Decode(data)
	if err != nil {
		return Installed{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// LoadAll decodes the local and global manifests and returns their packages,
// local first, along with the entries that failed to parse. Packages present
// in both are kept twice.
func LoadAll(local, global string) ([]InstalledPackage, []error, error) {
	var (
		all     []InstalledPackage
		skipped []error
	)
	for _, path := range []string{local, global} {
		if path == "" {
			continue
		}
		in, err := LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, in.Commands()...)
		for _, err := range in.Skipped() {
			skipped = append(skipped, fmt.Errorf("%s: %w", path, err))
		}
	}
	return all, skipped, nil
}

// Find returns the first package whose name equals name exactly.
func Find(pkgs []InstalledPackage, name string) (InstalledPackage, bool) {
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return InstalledPackage{}, false
}
