package manifest

import "github.com/Masterminds/semver/v3"

// SourceKind identifies where an installed package came from.
type SourceKind int

const (
	SourceRegistry SourceKind = iota
	SourceVCS
)

// String returns the human-readable name of the kind.
func (k SourceKind) String() string {
	switch k {
	case SourceRegistry:
		return "registry"
	case SourceVCS:
		return "vcs"
	default:
		return "unknown"
	}
}

// MarshalText lets the kind render as its name in JSON output.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SourceDescriptor is the provenance recorded in parentheses after the
// version in a manifest key.
type SourceDescriptor struct {
	Kind   SourceKind `json:"kind"`
	Origin string     `json:"origin"`
	// Revision is the pinned commit for VCS sources, empty otherwise.
	Revision string `json:"revision,omitempty"`
}

// HasRevision reports whether a pinned revision was recorded.
func (s SourceDescriptor) HasRevision() bool {
	return s.Revision != ""
}

// InstalledPackage is one binary-producing package listed in a manifest.
type InstalledPackage struct {
	Name     string           `json:"name"`
	Version  *semver.Version  `json:"version"`
	Source   SourceDescriptor `json:"source"`
	Binaries []string         `json:"binaries"`
}
