// pkg/blocking/blocking.go - refuses to update a tool while it is still running.

package blocking

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
)

// IsAppRunning checks if a specific application is currently running.
func IsAppRunning(appName string) bool {
	logging.Debug("Checking if application is running", "app", appName)

	processes, err := process.Processes()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return false
	}

	for _, proc := range processes {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		var exe string
		if isPath(appName) {
			if exe, err = proc.Exe(); err != nil {
				continue
			}
		}
		if matches(appName, name, exe) {
			logging.Debug("Found running app", "app", appName, "process", name)
			return true
		}
	}
	return false
}

func isPath(appName string) bool {
	return strings.ContainsAny(appName, `/\`)
}

// matches compares a configured application against a process. Paths must
// match the executable exactly; bare names match with or without ".exe".
func matches(appName, procName, exe string) bool {
	if isPath(appName) {
		return exe != "" && strings.EqualFold(exe, appName)
	}
	want := strings.ToLower(appName)
	got := strings.ToLower(procName)
	if strings.HasSuffix(want, ".exe") {
		return got == want
	}
	return got == want || got == want+".exe"
}

// Candidates lists the applications that block an update of p: the explicit
// blocking_applications, or else the executable its version check reads.
func Candidates(p programs.Program) []string {
	if len(p.BlockingApps) > 0 {
		return p.BlockingApps
	}
	if vc := p.VersionCheck; vc != nil && vc.Kind() == programs.CheckExeVersion && vc.Path != "" {
		return []string{filepath.Base(strings.ReplaceAll(vc.Path, `\`, "/"))}
	}
	return nil
}

// RunningApps returns the blocking applications of p that are currently running.
func RunningApps(p programs.Program) []string {
	var running []string
	for _, app := range Candidates(p) {
		if IsAppRunning(app) {
			running = append(running, app)
		}
	}
	if len(running) > 0 {
		logging.Info("Blocking applications are running", "program", p.Name, "running_apps", running)
	}
	return running
}
