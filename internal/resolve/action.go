package resolve

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
)

// ActionKind distinguishes the possible outcomes of a decision.
type ActionKind int

const (
	ActionNothing ActionKind = iota
	ActionInstall
)

// String returns the human-readable name of the kind.
func (k ActionKind) String() string {
	switch k {
	case ActionNothing:
		return "nothing"
	case ActionInstall:
		return "install"
	default:
		return "unknown"
	}
}

// Action is the outcome of resolving a package. For ActionInstall, Force asks
// the installer to overwrite an existing install and a non-nil Version pins
// the install; a nil Version leaves resolution to the installer.
type Action struct {
	Kind    ActionKind
	Force   bool
	Version *semver.Version
}

// Nothing returns the no-op action.
func Nothing() Action {
	return Action{Kind: ActionNothing}
}

// Install returns an install action.
func Install(force bool, version *semver.Version) Action {
	return Action{Kind: ActionInstall, Force: force, Version: version}
}

// IsNothing reports whether no installer run is needed.
func (a Action) IsNothing() bool {
	return a.Kind == ActionNothing
}

// Equal reports whether two actions are the same decision.
func (a Action) Equal(b Action) bool {
	if a.Kind != b.Kind || a.Force != b.Force {
		return false
	}
	if a.Version == nil || b.Version == nil {
		return a.Version == nil && b.Version == nil
	}
	return a.Version.Equal(b.Version)
}

// String renders the action for log output.
func (a Action) String() string {
	if a.IsNothing() {
		return "nothing"
	}
	s := "install"
	if a.Force {
		s += " --force"
	}
	if a.Version != nil {
		s += " --version=" + a.Version.String()
	}
	return s
}

type actionJSON struct {
	Action  string `json:"action"`
	Force   bool   `json:"force,omitempty"`
	Version string `json:"version,omitempty"`
}

// MarshalJSON renders the action as {"action": ..., "force": ..., "version": ...}.
func (a Action) MarshalJSON() ([]byte, error) {
	out := actionJSON{Action: a.Kind.String(), Force: a.Force}
	if a.Version != nil {
		out.Version = a.Version.String()
	}
	return json.Marshal(out)
}
