// pkg/version/version.go - build information stamped in with -ldflags.

package version

import (
	"fmt"
	"strings"
)

// These values are private which ensures they can only be set with the build flags.
var (
	version   = "unknown"
	branch    = "unknown"
	revision  = "unknown"
	goVersion = "unknown"
	buildDate = "unknown"
	appName   = "dfirupdater"
)

// Info is a structure with version build information about the current application.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Branch    string `json:"branch" yaml:"branch"`
	Revision  string `json:"revision" yaml:"revision"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

// Version returns a structure with the current version information.
func Version() Info {
	return Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: goVersion,
		BuildDate: buildDate,
	}
}

// Print outputs the application name and version string.
func Print() {
	fmt.Printf("%s %s\n", appName, version)
}

// PrintFull prints the application name and detailed version information.
func PrintFull() {
	v := Version()
	fmt.Printf("%s %s\n", appName, v.Version)
	fmt.Printf("  branch: \t%s\n", v.Branch)
	fmt.Printf("  revision: \t%s\n", v.Revision)
	fmt.Printf("  build date: \t%s\n", v.BuildDate)
	fmt.Printf("  go version: \t%s\n", v.GoVersion)
}

// Normalize trims surrounding space, a leading "v" and trailing ".0" segments,
// so "v4.2.5.0" and "4.2.5" compare equal.
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if len(version) > 1 && (version[0] == 'v' || version[0] == 'V') && version[1] >= '0' && version[1] <= '9' {
		version = version[1:]
	}
	parts := strings.Split(version, ".")
	for len(parts) > 1 && parts[len(parts)-1] == "0" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}
