// pkg/probe/probe.go - reads the installed version of a program.
//
// Every outcome is a display string: either a version or one of the sentinel
// values below. Failures never escape as errors; they are logged and folded
// into Failed or Timeout so the caller can put the result straight on screen.

package probe

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/shell"
)

// Sentinel results.
const (
	Unknown       = "Unknown"
	NotApplicable = "N/A"
	NotInstalled  = "Not Installed"
	Timeout       = "Timeout"
	Failed        = "Error"
)

// IsSentinel reports whether v is one of the sentinel results rather than a version.
func IsSentinel(v string) bool {
	switch v {
	case Unknown, NotApplicable, NotInstalled, Timeout, Failed:
		return true
	}
	return false
}

// DefaultTimeout bounds each probe when the configuration does not.
const DefaultTimeout = 30 * time.Second

// Prober dispatches a program's version_check to the matching strategy.
type Prober struct {
	Runner     shell.Runner
	Timeout    time.Duration
	PowerShell string

	// ReadExeVersion reads an executable's product version; nil selects the
	// platform reader.
	ReadExeVersion func(ctx context.Context, path string) (string, error)

	// OnError, when set, also receives failures that end as Failed.
	OnError func(p programs.Program, err error)
}

// New builds a Prober from the tool configuration.
func New(cfg *config.Configuration) *Prober {
	return &Prober{
		Runner:     shell.ExecRunner{},
		Timeout:    cfg.ProbeTimeout(),
		PowerShell: cfg.PowerShellPath,
	}
}

// Version returns the installed version of p or a sentinel.
func (pr *Prober) Version(ctx context.Context, p programs.Program) string {
	if p.VersionCheck == nil {
		return Unknown
	}

	timeout := pr.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vc := *p.VersionCheck
	var (
		result string
		err    error
	)
	switch vc.Kind() {
	case programs.CheckNone:
		return NotApplicable
	case programs.CheckExeVersion:
		result, err = pr.exeVersion(ctx, vc)
	case programs.CheckCmdOutput:
		result, err = pr.cmdOutput(ctx, vc)
	case programs.CheckFileContent:
		result, err = fileContent(vc)
	default:
		logging.Warn("Unknown version_check type", "program", p.Name, "type", vc.Type)
		return Unknown
	}

	switch {
	case err == nil:
		logging.Debug("Probed version", "program", p.Name, "type", vc.Kind(), "version", result)
		return result
	case shell.IsTimeout(err):
		logging.Warn("Version probe timed out", "program", p.Name, "timeout", timeout)
		return Timeout
	default:
		logging.Error(fmt.Sprintf("Error getting version for %s", p.Name), "error", err)
		if pr.OnError != nil {
			pr.OnError(p, err)
		}
		return Failed
	}
}

func (pr *Prober) exeVersion(ctx context.Context, vc programs.VersionCheck) (string, error) {
	if !exists(vc.Path) {
		return NotInstalled, nil
	}

	read := pr.ReadExeVersion
	if read == nil {
		read = pr.platformExeVersion
	}
	v, err := read(ctx, vc.Path)
	if err != nil {
		if shell.IsTimeout(err) {
			return "", err
		}
		logging.Debug("Reading executable version failed", "path", vc.Path, "error", err)
		return Unknown, nil
	}
	if v = strings.TrimSpace(v); v == "" {
		return Unknown, nil
	}
	return v, nil
}

// powerShellExeVersion asks the scripting host for the ProductVersion field.
func (pr *Prober) powerShellExeVersion(ctx context.Context, path string) (string, error) {
	script := fmt.Sprintf("(Get-Item %s).VersionInfo.ProductVersion", shell.QuotePS(path))
	res, err := pr.Runner.Run(ctx, pr.PowerShell, shell.PowerShellArgs(script)...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("powershell exited with %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (pr *Prober) cmdOutput(ctx context.Context, vc programs.VersionCheck) (string, error) {
	if vc.Command == "" {
		return Unknown, nil
	}
	re, err := compile(vc.Regex)
	if err != nil {
		return "", err
	}

	name, args := shell.ShellCommand(vc.Command)
	res, err := pr.Runner.Run(ctx, name, args...)
	if err != nil {
		return "", err
	}

	switch {
	case res.ExitCode == 0 && res.Stdout != "":
		if v, ok := extract(re, res.Stdout); ok {
			return v, nil
		}
		return strings.TrimSpace(res.Stdout), nil
	case res.Stderr != "":
		// Tools such as "java -version" print to stderr.
		if v, ok := extract(re, res.Stderr); ok {
			return v, nil
		}
		return Unknown, nil
	default:
		return Unknown, nil
	}
}

func fileContent(vc programs.VersionCheck) (string, error) {
	if !exists(vc.Path) {
		return NotInstalled, nil
	}
	re, err := compile(vc.Regex)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(vc.Path)
	if err != nil {
		return "", err
	}
	if v, ok := extract(re, string(data)); ok {
		return v, nil
	}
	return Unknown, nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

// extract returns the first capture group, or the whole match when the
// pattern has no groups.
func extract(re *regexp.Regexp, s string) (string, bool) {
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
