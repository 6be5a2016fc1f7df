package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// entryError records which step of key parsing failed.
type entryError struct {
	Key  string
	Step string
}

func (e *entryError) Error() string {
	return fmt.Sprintf("manifest key %q: invalid %s", e.Key, e.Step)
}

// ParseEntry decodes a single v1 manifest entry. The key has the form
// "<name> <semver> <source>" and binaries lists the executables the package
// installed. Entries that do not parse return false and no partial record.
func ParseEntry(key string, binaries []string) (InstalledPackage, bool) {
	pkg, err := parseEntry(key, binaries)
	if err != nil {
		return InstalledPackage{}, false
	}
	return pkg, true
}

func parseEntry(key string, binaries []string) (InstalledPackage, error) {
	parts := strings.Split(key, " ")

	name := parts[0]
	if name == "" {
		return InstalledPackage{}, &entryError{Key: key, Step: "name"}
	}

	if len(parts) < 2 {
		return InstalledPackage{}, &entryError{Key: key, Step: "version"}
	}
	version, err := semver.StrictNewVersion(parts[1])
	if err != nil {
		return InstalledPackage{}, &entryError{Key: key, Step: "version"}
	}

	if len(parts) < 3 {
		return InstalledPackage{}, &entryError{Key: key, Step: "source"}
	}
	source, ok := ParseSource(parts[2])
	if !ok {
		return InstalledPackage{}, &entryError{Key: key, Step: "source"}
	}

	return InstalledPackage{
		Name:     name,
		Version:  version,
		Source:   source,
		Binaries: normalizeBinaries(binaries),
	}, nil
}

// normalizeBinaries drops the Windows executable suffix so binary names compare
// equal across platforms.
func normalizeBinaries(binaries []string) []string {
	out := make([]string, len(binaries))
	for i, b := range binaries {
		out[i] = TrimExe(b)
	}
	return out
}

// TrimExe removes a trailing ".exe" from a binary name.
func TrimExe(name string) string {
	return strings.TrimSuffix(name, ".exe")
}
