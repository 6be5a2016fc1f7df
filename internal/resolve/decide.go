package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"cargoupstall/internal/manifest"
)

// ErrNoPublishedVersions is returned when the index knows the package but lists
// no versions for it.
var ErrNoPublishedVersions = errors.New("no published versions found")

// FetchError wraps a failure to list the published versions of a package.
type FetchError struct {
	Name string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch versions of %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// VersionFetcher lists every published version of a package.
type VersionFetcher interface {
	Versions(ctx context.Context, name string) ([]*semver.Version, error)
}

// FetcherFunc adapts a function to VersionFetcher.
type FetcherFunc func(ctx context.Context, name string) ([]*semver.Version, error)

// Versions calls f.
func (f FetcherFunc) Versions(ctx context.Context, name string) ([]*semver.Version, error) {
	return f(ctx, name)
}

// Decide chooses what to do with an installed package.
//
// VCS installs are always reinstalled with force since their revision cannot
// be compared. When ceiling is set the package is upgraded straight to ceiling unless
// it is already at or above it, and the index is not consulted. Otherwise the
// newest published version is fetched and installed if it is newer than the
// installed one.
func Decide(ctx context.Context, pkg manifest.InstalledPackage, ceiling *semver.Version, fetcher VersionFetcher) (Action, error) {
	if pkg.Source.Kind == manifest.SourceVCS {
		return Install(true, nil), nil
	}

	if ceiling != nil {
		if pkg.Version.Compare(ceiling) >= 0 {
			return Nothing(), nil
		}
		return Install(true, ceiling), nil
	}

	versions, err := fetcher.Versions(ctx, pkg.Name)
	if err != nil {
		return Action{}, &FetchError{Name: pkg.Name, Err: err}
	}

	latest := Latest(versions)
	if latest == nil {
		return Action{}, fmt.Errorf("%s: %w", pkg.Name, ErrNoPublishedVersions)
	}
	if latest.GreaterThan(pkg.Version) {
		return Install(true, latest), nil
	}
	return Nothing(), nil
}

// Latest returns the greatest version in versions, or nil when it is empty.
func Latest(versions []*semver.Version) *semver.Version {
	var latest *semver.Version
	for _, v := range versions {
		if v == nil {
			continue
		}
		if latest == nil || v.GreaterThan(latest) {
			latest = v
		}
	}
	return latest
}
