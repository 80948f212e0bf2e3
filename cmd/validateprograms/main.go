// cmd/validateprograms/main.go - console check of programs.json against this workstation.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/probe"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/status"
	"github.com/windowsadmins/dfirupdater/pkg/utils"
	"github.com/windowsadmins/dfirupdater/pkg/version"
)

func main() {
	utils.PatchWindowsArgs()

	programsPath := pflag.String("programs", "", "Programs file to validate (default: programs.json next to this binary).")
	debug := pflag.Bool("debug", false, "Write a debug log session.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")
	pflag.Parse()

	if *versionFlag {
		version.Print()
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.GetDefaultConfig()
	}
	if *debug {
		cfg.Debug = true
		if err := logging.Init(cfg, "validateprograms", false); err != nil {
			fmt.Fprintf(os.Stderr, "File logging disabled: %v\n", err)
		}
		defer logging.CloseLogger()
	}

	path := *programsPath
	if path == "" {
		path = defaultProgramsPath()
	}

	code := run(context.Background(), os.Stdout, path, newProber(cfg, os.Stderr))
	if code != 0 {
		logging.CloseLogger()
	}
	os.Exit(code)
}

// newProber builds a prober that also prints version read failures to w,
// since file logging is off unless --debug is given.
func newProber(cfg *config.Configuration, w io.Writer) *probe.Prober {
	pr := probe.New(cfg)
	pr.OnError = func(p programs.Program, err error) {
		fmt.Fprintf(w, "Error getting version for %s: %v\n", p.Name, err)
	}
	return pr
}

func defaultProgramsPath() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), programs.DefaultFileName)
	}
	return programs.DefaultFileName
}

// run prints the validation report for the programs file at path and
// returns the process exit code.
func run(ctx context.Context, w io.Writer, path string, prober status.VersionProber) int {
	name := filepath.Base(path)
	list, err := programs.Load(path)
	switch {
	case os.IsNotExist(err):
		fmt.Fprintf(w, "ERROR: %s file not found\n", name)
		return 1
	case err != nil:
		fmt.Fprintf(w, "ERROR: Invalid %s: %v\n", name, err)
		return 1
	}

	fmt.Fprintf(w, "Found %d programs in %s\n", len(list), name)
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for i, p := range list {
		fmt.Fprintf(w, "Program %d: %s\n", i+1, p.Name)
		for _, field := range p.MissingFields() {
			fmt.Fprintf(w, "  ERROR: Missing field '%s'\n", field)
		}
		for _, issue := range programs.Validate([]programs.Program{p}) {
			if !strings.HasPrefix(issue.Problem, "Missing field") {
				fmt.Fprintf(w, "  WARNING: %s\n", issue.Problem)
			}
		}

		r := status.Evaluate(ctx, prober, p)
		if r.InstallerFound {
			fmt.Fprintln(w, "  Installer: Found")
		} else {
			fmt.Fprintf(w, "  Installer: NOT FOUND (%s)\n", p.InstallerPath)
		}
		if r.Installed {
			fmt.Fprintln(w, "  Status: Installed")
		} else {
			fmt.Fprintln(w, "  Status: Not Installed")
		}

		fmt.Fprintf(w, "  Current Version: %s\n", r.CurrentVersion)
		if r.TargetVersion == "" {
			fmt.Fprintln(w, "  New Version: N/A")
		} else {
			fmt.Fprintf(w, "  New Version: %s\n", r.TargetVersion)
			fmt.Fprintf(w, "  Update Available: %s\n", status.UpdateVerdict(r.CurrentVersion, r.TargetVersion))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Validation complete.")
	return 0
}
