// pkg/logging/helpers.go - package-level event helpers used by the updater commands

package logging

import (
	"fmt"
	"time"
)

// LogStatusCheck records the outcome of one program's state check.
func LogStatusCheck(programName, state, currentVersion, targetVersion string) error {
	if instance == nil {
		return fmt.Errorf("logger not initialized")
	}
	return instance.LogEvent("status_check", "check", "completed",
		fmt.Sprintf("%s: %s", programName, state),
		WithPackage(programName, currentVersion),
		WithContext("state", state),
		WithContext("target_version", targetVersion))
}

// LogUpdateStart records the scripting-host command about to run.
func LogUpdateStart(programName, targetVersion, command string) error {
	if instance == nil {
		return fmt.Errorf("logger not initialized")
	}
	return instance.LogEvent("update", "start", "started",
		fmt.Sprintf("Starting update for %s", programName),
		WithPackage(programName, targetVersion),
		WithContext("command", command))
}

// LogUpdateComplete records a successful update.
func LogUpdateComplete(programName, targetVersion string, duration time.Duration) error {
	if instance == nil {
		return fmt.Errorf("logger not initialized")
	}
	return instance.LogEvent("update", "complete", "completed",
		fmt.Sprintf("%s updated successfully", programName),
		WithPackage(programName, targetVersion),
		WithDuration(duration))
}

// LogUpdateFailed records a failed update.
func LogUpdateFailed(programName, targetVersion string, err error) error {
	if instance == nil {
		return fmt.Errorf("logger not initialized")
	}
	return instance.LogEvent("update", "complete", "failed",
		fmt.Sprintf("Update of %s failed", programName),
		WithPackage(programName, targetVersion),
		WithError(err))
}

// EndSession completes the current session (package-level function)
func EndSession(runType, status string, summary SessionSummary) error {
	if instance == nil {
		return fmt.Errorf("logging not initialized")
	}
	return instance.EndSession(runType, status, summary)
}
