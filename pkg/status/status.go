// pkg/status/status.go - decides whether each program is installed, current or due an update.

package status

import (
	"context"
	"fmt"
	"os"

	version "github.com/hashicorp/go-version"

	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/probe"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	verinfo "github.com/windowsadmins/dfirupdater/pkg/version"
)

// State is the per-program status shown to the operator.
type State int

const (
	NotInstalled State = iota
	Installed
	UpdateAvailable
	Failed
)

func (s State) String() string {
	switch s {
	case Installed:
		return "Installed"
	case UpdateAvailable:
		return "Update Available"
	case Failed:
		return "Error"
	default:
		return "Not Installed"
	}
}

// MarshalText renders the state by name in JSON and YAML reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// VersionProber reads the installed version of a program.
type VersionProber interface {
	Version(ctx context.Context, p programs.Program) string
}

// Result is the outcome of checking one program.
type Result struct {
	Name           string `json:"name" yaml:"name"`
	InstallPath    string `json:"install_path" yaml:"install_path"`
	InstallerPath  string `json:"installer_path" yaml:"installer_path"`
	Installed      bool   `json:"installed" yaml:"installed"`
	InstallerFound bool   `json:"installer_found" yaml:"installer_found"`
	State          State  `json:"state" yaml:"state"`
	CurrentVersion string `json:"current_version" yaml:"current_version"`
	TargetVersion  string `json:"target_version,omitempty" yaml:"target_version,omitempty"`
	VersionLine    string `json:"version_line" yaml:"version_line"`
}

// Evaluate probes p and works out its state and version line.
func Evaluate(ctx context.Context, prober VersionProber, p programs.Program) Result {
	r := Result{
		Name:           p.Name,
		InstallPath:    p.InstallPath,
		InstallerPath:  p.InstallerPath,
		Installed:      pathExists(p.InstallPath),
		InstallerFound: pathExists(p.InstallerPath),
		CurrentVersion: prober.Version(ctx, p),
		TargetVersion:  p.TargetVersion(),
	}
	r.State, r.VersionLine = describe(r.Installed, r.CurrentVersion, r.TargetVersion)

	logging.Debug("Evaluated program", "program", p.Name, "state", r.State, "current", r.CurrentVersion, "target", r.TargetVersion)
	_ = logging.LogStatusCheck(p.Name, r.State.String(), r.CurrentVersion, r.TargetVersion)
	return r
}

func describe(installed bool, current, target string) (State, string) {
	if !installed {
		if target != "" {
			return NotInstalled, "New: " + target
		}
		return NotInstalled, "Not Installed"
	}

	if current == probe.Unknown || current == probe.Failed {
		return Installed, "Version: Unknown"
	}

	line := "Current: " + current
	if target == "" {
		return Installed, line
	}
	line += " → New: " + target
	if IsOlderVersion(current, target) {
		return UpdateAvailable, line
	}
	return Installed, line
}

// CheckAll evaluates the list in order, stopping early if ctx is cancelled.
func CheckAll(ctx context.Context, prober VersionProber, list []programs.Program) []Result {
	results := make([]Result, 0, len(list))
	for _, p := range list {
		if ctx.Err() != nil {
			logging.Warn("Status check cancelled", "remaining", len(list)-len(results))
			break
		}
		results = append(results, Evaluate(ctx, prober, p))
	}
	return results
}

// IsOlderVersion reports whether local is strictly older than remote.
//
// Both sides are normalized first so "4.2.5.0" equals "4.2.5". When either
// side is not a parseable version, any difference counts as older.
func IsOlderVersion(local, remote string) bool {
	local, remote = verinfo.Normalize(local), verinfo.Normalize(remote)
	if local == remote {
		return false
	}

	vLocal, errLocal := version.NewVersion(local)
	vRemote, errRemote := version.NewVersion(remote)
	if errLocal != nil || errRemote != nil {
		logging.Debug("Version parse failed, falling back to string comparison",
			"local", local,
			"remote", remote,
			"errLocal", errLocal,
			"errRemote", errRemote,
		)
		return true
	}
	return vLocal.LessThan(vRemote)
}

// Verdicts printed by the validator.
const (
	VerdictYes          = "YES"
	VerdictNo           = "NO"
	VerdictNotInstalled = "Not Installed"
	VerdictNoTarget     = "N/A"
)

// UpdateVerdict answers "is an update available" for a probed version.
func UpdateVerdict(current, target string) string {
	switch {
	case target == "":
		return VerdictNoTarget
	case current == probe.NotInstalled:
		return VerdictNotInstalled
	case current == probe.Unknown:
		return VerdictNo
	case IsOlderVersion(current, target):
		return VerdictYes
	default:
		return VerdictNo
	}
}

// Summary counts results by state.
func Summary(results []Result) map[State]int {
	counts := make(map[State]int)
	for _, r := range results {
		counts[r.State]++
	}
	return counts
}

// String is a one-line description used by the CLI.
func (r Result) String() string {
	return fmt.Sprintf("%s: %s (%s)", r.Name, r.State, r.VersionLine)
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
