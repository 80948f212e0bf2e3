package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/windowsadmins/dfirupdater/pkg/blocking"
	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/shell"
	"github.com/windowsadmins/dfirupdater/pkg/utils"
)

// DefaultTimeout bounds an installer run when the configuration does not.
const DefaultTimeout = 5 * time.Minute

// Outcome is what the operator sees after an update attempt.
type Outcome struct {
	Program  string
	Success  bool
	Message  string
	Command  string
	Output   string
	Duration time.Duration
}

// Installer runs vendor installers and archive extraction through PowerShell.
type Installer struct {
	Runner     shell.Runner
	PowerShell string
	Timeout    time.Duration

	CheckOnly           bool
	VerifyHash          bool
	RespectBlockingApps bool

	// RunningApps lists blocking applications of p that are running; nil
	// selects the process table lookup.
	RunningApps func(p programs.Program) []string
}

// New builds an Installer from the tool configuration.
func New(cfg *config.Configuration) *Installer {
	return &Installer{
		Runner:              shell.ExecRunner{},
		PowerShell:          cfg.PowerShellPath,
		Timeout:             cfg.InstallerTimeout(),
		CheckOnly:           cfg.CheckOnly,
		VerifyHash:          cfg.VerifyInstallerHash,
		RespectBlockingApps: cfg.RespectBlockingApps,
	}
}

// BuildScript returns the PowerShell command that installs p.
func BuildScript(p programs.Program) string {
	if p.IsArchive() {
		return fmt.Sprintf("Expand-Archive -Path %s -DestinationPath %s -Force",
			shell.QuotePS(p.InstallerPath), shell.QuotePS(p.InstallPath))
	}
	if strings.TrimSpace(p.SilentArgs) == "" {
		return fmt.Sprintf("Start-Process -FilePath %s -Wait", shell.QuotePS(p.InstallerPath))
	}
	return fmt.Sprintf("Start-Process -FilePath %s -ArgumentList %s -Wait",
		shell.QuotePS(p.InstallerPath), shell.QuotePS(p.SilentArgs))
}

// Update installs or upgrades p. Failures are reported in the Outcome, never
// as a panic or error return, so a worker can hand the result straight to the UI.
func (in *Installer) Update(ctx context.Context, p programs.Program, rep utils.Reporter) Outcome {
	if rep == nil {
		rep = utils.NewNoOpReporter()
	}
	start := time.Now()
	out := Outcome{Program: p.Name}
	target := p.TargetVersion()

	fail := func(msg string, err error) Outcome {
		out.Message = msg
		out.Duration = time.Since(start)
		logging.Error("Update failed", "program", p.Name, "message", msg)
		if err == nil {
			err = errors.New(msg)
		}
		_ = logging.LogUpdateFailed(p.Name, target, err)
		rep.Error(err)
		return out
	}

	rep.Message(fmt.Sprintf("Starting update for %s...", p.Name))
	if _, err := os.Stat(p.InstallerPath); err != nil {
		return fail(fmt.Sprintf("Installer not found: %s", p.InstallerPath), err)
	}

	if in.VerifyHash && p.InstallerSHA256 != "" {
		rep.Detail("Verifying installer hash")
		if err := utils.VerifySHA256(p.InstallerPath, p.InstallerSHA256); err != nil {
			return fail(fmt.Sprintf("Update error: %v", err), err)
		}
	}

	if in.RespectBlockingApps {
		running := in.RunningApps
		if running == nil {
			running = blocking.RunningApps
		}
		if apps := running(p); len(apps) > 0 {
			return fail(fmt.Sprintf("Update blocked: close %s and try again", strings.Join(apps, ", ")), nil)
		}
	}

	script := BuildScript(p)
	out.Command = script
	verb := "Executing"
	if p.IsArchive() {
		verb = "Extracting"
	}
	rep.Detail(fmt.Sprintf("%s: %s", verb, script))
	_ = logging.LogUpdateStart(p.Name, target, script)

	if in.CheckOnly {
		logging.Info("[CHECK ONLY] Skipping update", "program", p.Name, "command", script)
		out.Success = true
		out.Message = fmt.Sprintf("[CHECK ONLY] Would run: %s", script)
		out.Duration = time.Since(start)
		return out
	}

	timeout := in.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rep.Percent(-1)
	logging.Info("Running installer", "program", p.Name, "command", script, "timeout", timeout)
	res, err := in.Runner.Run(runCtx, in.PowerShell, shell.PowerShellArgs(script)...)
	out.Output = strings.TrimSpace(res.Stdout)

	switch {
	case shell.IsTimeout(err):
		return fail(fmt.Sprintf("Update timed out after %s", minutes(timeout)), err)
	case err != nil:
		return fail(fmt.Sprintf("Update error: %v", err), err)
	case res.ExitCode != 0:
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = "Unknown error occurred"
		}
		return fail(fmt.Sprintf("Update failed: %s", detail), nil)
	}

	out.Success = true
	out.Message = fmt.Sprintf("%s updated successfully!", p.Name)
	out.Duration = time.Since(start)
	logging.Info("Update completed", "program", p.Name, "duration", out.Duration)
	_ = logging.LogUpdateComplete(p.Name, target, out.Duration)
	rep.Percent(100)
	rep.Message(out.Message)
	return out
}

func minutes(d time.Duration) string {
	m := int(d.Minutes())
	if m == 1 {
		return "1 minute"
	}
	if m < 1 {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	return fmt.Sprintf("%d minutes", m)
}
