//go:build windows
// +build windows

package sysinfo

import (
	"fmt"

	"github.com/yusufpapurcu/wmi"
)

type win32OperatingSystem struct {
	Caption     string `wmi:"Caption"`
	Version     string `wmi:"Version"`
	BuildNumber string `wmi:"BuildNumber"`
}

// osCaption returns the marketing name and version of Windows from WMI.
func osCaption() (string, string, error) {
	var systems []win32OperatingSystem
	if err := wmi.Query("SELECT Caption, Version, BuildNumber FROM Win32_OperatingSystem", &systems); err != nil {
		return "", "", err
	}
	if len(systems) == 0 {
		return "", "", fmt.Errorf("no Win32_OperatingSystem instance")
	}
	return systems[0].Caption, systems[0].Version, nil
}
