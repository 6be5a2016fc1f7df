package resolve

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/semver/v3"

	"cargoupstall/internal/manifest"
)

// Decision is the planned action for a requested package along with the
// installed record it was based on, if any.
type Decision struct {
	Name      string
	Installed *manifest.InstalledPackage
	Action    Action
}

// Plan resolves the action for name against the installed packages. A package
// that is not installed yet gets a plain install pinned to ceiling when given.
func Plan(ctx context.Context, installed []manifest.InstalledPackage, name string, ceiling *semver.Version, fetcher VersionFetcher) (Decision, error) {
	pkg, ok := manifest.Find(installed, name)
	if !ok {
		return Decision{Name: name, Action: Install(false, ceiling)}, nil
	}

	action, err := Decide(ctx, pkg, ceiling, fetcher)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Name: name, Installed: &pkg, Action: action}, nil
}

type decisionJSON struct {
	Name      string                     `json:"name"`
	Installed *manifest.InstalledPackage `json:"installed,omitempty"`
	Action    Action                     `json:"plan"`
}

// MarshalJSON renders the decision for --json output.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(decisionJSON(d))
}
