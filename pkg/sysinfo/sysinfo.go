// pkg/sysinfo/sysinfo.go - host facts recorded alongside status reports.

package sysinfo

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/windowsadmins/dfirupdater/pkg/logging"
)

// Facts describes the workstation a report was taken on.
type Facts struct {
	Hostname      string    `json:"hostname" yaml:"hostname"`
	OS            string    `json:"os" yaml:"os"`
	OSVersion     string    `json:"os_version" yaml:"os_version"`
	Platform      string    `json:"platform" yaml:"platform"`
	KernelVersion string    `json:"kernel_version,omitempty" yaml:"kernel_version,omitempty"`
	Architecture  string    `json:"architecture" yaml:"architecture"`
	Domain        string    `json:"domain,omitempty" yaml:"domain,omitempty"`
	Username      string    `json:"username,omitempty" yaml:"username,omitempty"`
	CollectedAt   time.Time `json:"collected_at" yaml:"collected_at"`
}

// Collect gathers facts about the local host. Missing facts are left empty.
func Collect() Facts {
	f := Facts{
		Architecture: Architecture(),
		Platform:     runtime.GOOS,
		CollectedAt:  time.Now(),
	}

	if info, err := host.Info(); err == nil {
		f.Hostname = info.Hostname
		f.OS = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		f.OSVersion = info.PlatformVersion
		f.KernelVersion = info.KernelVersion
	} else {
		logging.Warn("Failed to query host information", "error", err)
	}
	if f.Hostname == "" {
		f.Hostname, _ = os.Hostname()
	}

	if caption, ver, err := osCaption(); err == nil {
		f.OS = caption
		if ver != "" {
			f.OSVersion = ver
		}
	} else {
		logging.Debug("OS caption unavailable", "error", err)
	}

	f.Domain = os.Getenv("USERDOMAIN")
	f.Username = os.Getenv("USERNAME")
	if f.Username == "" {
		f.Username = os.Getenv("USER")
	}
	return f
}

// Architecture returns the normalized system architecture ("x64", "x86", "arm64").
func Architecture() string {
	return normalizeArch(runtime.GOARCH)
}

func normalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64":
		return "x64"
	case "386", "i386":
		return "x86"
	default:
		return strings.ToLower(arch)
	}
}
