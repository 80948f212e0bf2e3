//go:build !windows
// +build !windows

package utils

// PatchWindowsArgs is a no-op outside Windows.
func PatchWindowsArgs() {}
