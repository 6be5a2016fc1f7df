package installer

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CargoStatus describes the cargo binary found on the system.
type CargoStatus struct {
	Path    string          `json:"path"`
	Version *semver.Version `json:"version,omitempty"`
	Raw     string          `json:"raw,omitempty"`
}

var cargoVersionRegex = regexp.MustCompile(`\b(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)\b`)

// DetectCargo locates binary on PATH and reads its version with
// "cargo --version".
func DetectCargo(ctx context.Context, runner Runner, binary string) (CargoStatus, error) {
	if binary == "" {
		binary = "cargo"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return CargoStatus{}, fmt.Errorf("locate %s: %w", binary, err)
	}
	if runner == nil {
		runner = CmdRunner{}
	}

	res, err := runner.Run(ctx, path, []string{"--version"}, RunOptions{})
	if err != nil {
		return CargoStatus{Path: path}, fmt.Errorf("%s --version: %w", binary, err)
	}

	status := CargoStatus{Path: path, Raw: firstLine(strings.TrimSpace(string(res.Stdout)))}
	version, err := parseCargoVersion(status.Raw)
	if err != nil {
		return status, err
	}
	status.Version = version
	return status, nil
}

// parseCargoVersion extracts the semver from output such as
// "cargo 1.78.0 (54d8815d0 2024-03-26)".
func parseCargoVersion(line string) (*semver.Version, error) {
	match := cargoVersionRegex.FindString(line)
	if match == "" {
		return nil, fmt.Errorf("no version in %q", line)
	}
	v, err := semver.StrictNewVersion(match)
	if err != nil {
		return nil, fmt.Errorf("parse cargo version %q: %w", match, err)
	}
	return v, nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
