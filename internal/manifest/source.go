package manifest

import "strings"

const vcsTag = "git"

// ParseSource decodes the provenance fragment of a manifest key, for example
// "(registry+https://github.com/rust-lang/crates.io-index)" or
// "(git+https://github.com/user/repo#0f3a9c1)".
//
// The first '+' separates the kind from the origin and, for git sources, the
// first '#' separates the origin from the revision. Neither delimiter is
// escaped in the format, so an origin containing them is split as-is.
func ParseSource(text string) (SourceDescriptor, bool) {
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")

	kind, rest, ok := strings.Cut(text, "+")
	if !ok {
		return SourceDescriptor{}, false
	}

	if kind == vcsTag {
		origin, revision, _ := strings.Cut(rest, "#")
		return SourceDescriptor{
			Kind:     SourceVCS,
			Origin:   origin,
			Revision: revision,
		}, true
	}

	return SourceDescriptor{
		Kind:   SourceRegistry,
		Origin: rest,
	}, true
}
