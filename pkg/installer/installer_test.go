package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/shell"
)

type fakeRunner struct {
	res   shell.Result
	err   error
	calls int
	name  string
	args  []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (shell.Result, error) {
	f.calls++
	f.name, f.args = name, args
	return f.res, f.err
}

type recorder struct {
	messages []string
	errs     []error
}

func (r *recorder) Message(txt string) { r.messages = append(r.messages, txt) }
func (r *recorder) Detail(txt string)  { r.messages = append(r.messages, txt) }
func (r *recorder) Percent(pct int)    {}
func (r *recorder) Error(err error)    { r.errs = append(r.errs, err) }

func installerFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildScript(t *testing.T) {
	tests := []struct {
		name    string
		program programs.Program
		want    string
	}{
		{
			name:    "exe with args",
			program: programs.Program{InstallerPath: `E:\kit\setup.exe`, SilentArgs: "/S /D=C:\\Tools"},
			want:    `Start-Process -FilePath 'E:\kit\setup.exe' -ArgumentList '/S /D=C:\Tools' -Wait`,
		},
		{
			name:    "exe without args",
			program: programs.Program{InstallerPath: `E:\kit\setup.exe`},
			want:    `Start-Process -FilePath 'E:\kit\setup.exe' -Wait`,
		},
		{
			name:    "zip",
			program: programs.Program{InstallerPath: `E:\kit\O'Tool.ZIP`, InstallPath: `C:\Tools\O'Tool`},
			want:    `Expand-Archive -Path 'E:\kit\O''Tool.ZIP' -DestinationPath 'C:\Tools\O''Tool' -Force`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildScript(tt.program); got != tt.want {
				t.Errorf("BuildScript = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateInstallerMissing(t *testing.T) {
	runner := &fakeRunner{}
	in := &Installer{Runner: runner}
	rec := &recorder{}
	missing := filepath.Join(t.TempDir(), "setup.exe")

	out := in.Update(context.Background(), programs.Program{Name: "Tool", InstallerPath: missing}, rec)
	if out.Success || out.Message != "Installer not found: "+missing {
		t.Errorf("unexpected outcome %+v", out)
	}
	if runner.calls != 0 {
		t.Error("runner should not be called")
	}
	if len(rec.errs) != 1 {
		t.Errorf("reporter errors = %v", rec.errs)
	}
	if len(rec.messages) == 0 || rec.messages[0] != "Starting update for Tool..." {
		t.Errorf("start message not reported first: %v", rec.messages)
	}
}

func TestUpdateReportsCommandVerb(t *testing.T) {
	tests := []struct {
		name    string
		program programs.Program
		want    string
	}{
		{"archive", programs.Program{Name: "KAPE", InstallerPath: installerFile(t, "kape.zip"), InstallPath: `C:\Tools\KAPE`}, "Extracting: Expand-Archive"},
		{"installer", programs.Program{Name: "Wireshark", InstallerPath: installerFile(t, "setup.exe"), SilentArgs: "/S"}, "Executing: Start-Process"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			in := &Installer{Runner: &fakeRunner{}}
			if out := in.Update(context.Background(), tt.program, rec); !out.Success {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if len(rec.messages) < 2 || rec.messages[0] != "Starting update for "+tt.program.Name+"..." {
				t.Fatalf("messages = %v", rec.messages)
			}
			if !strings.HasPrefix(rec.messages[1], tt.want) {
				t.Errorf("command line = %q, want prefix %q", rec.messages[1], tt.want)
			}
		})
	}
}

func TestUpdateOutcomes(t *testing.T) {
	path := installerFile(t, "setup.exe")
	p := programs.Program{Name: "Wireshark", InstallerPath: path, SilentArgs: "/S"}

	tests := []struct {
		name    string
		res     shell.Result
		err     error
		success bool
		message string
	}{
		{"success", shell.Result{}, nil, true, "Wireshark updated successfully!"},
		{"stderr", shell.Result{ExitCode: 1, Stderr: "access denied\r\n"}, nil, false, "Update failed: access denied"},
		{"no stderr", shell.Result{ExitCode: 1603}, nil, false, "Update failed: Unknown error occurred"},
		{"timeout", shell.Result{}, context.DeadlineExceeded, false, "Update timed out after 5 minutes"},
		{"start error", shell.Result{}, errors.New("powershell not found"), false, "Update error: powershell not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{res: tt.res, err: tt.err}
			in := &Installer{Runner: runner, PowerShell: "powershell.exe"}
			out := in.Update(context.Background(), p, nil)
			if out.Success != tt.success || out.Message != tt.message {
				t.Errorf("outcome = %+v, want success=%v message=%q", out, tt.success, tt.message)
			}
			if runner.name != "powershell.exe" {
				t.Errorf("ran %q", runner.name)
			}
			if script := runner.args[len(runner.args)-1]; !strings.HasPrefix(script, "Start-Process") {
				t.Errorf("script = %q", script)
			}
		})
	}
}

func TestUpdateCheckOnly(t *testing.T) {
	runner := &fakeRunner{}
	in := &Installer{Runner: runner, CheckOnly: true}
	out := in.Update(context.Background(), programs.Program{Name: "Tool", InstallerPath: installerFile(t, "tool.zip"), InstallPath: `C:\Tools\Tool`}, nil)
	if !out.Success || !strings.HasPrefix(out.Command, "Expand-Archive") {
		t.Errorf("unexpected outcome %+v", out)
	}
	if runner.calls != 0 {
		t.Error("check-only must not run anything")
	}
}

func TestUpdateHashMismatch(t *testing.T) {
	runner := &fakeRunner{}
	in := &Installer{Runner: runner, VerifyHash: true}
	p := programs.Program{Name: "Tool", InstallerPath: installerFile(t, "setup.exe"), InstallerSHA256: strings.Repeat("0", 64)}

	out := in.Update(context.Background(), p, nil)
	if out.Success || !strings.Contains(out.Message, "hash mismatch") {
		t.Errorf("unexpected outcome %+v", out)
	}
	if runner.calls != 0 {
		t.Error("runner should not be called after a hash mismatch")
	}

	p.InstallerSHA256 = "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"
	if out := in.Update(context.Background(), p, nil); !out.Success {
		t.Errorf("matching hash rejected: %+v", out)
	}
}

func TestUpdateBlockedByRunningApp(t *testing.T) {
	runner := &fakeRunner{}
	in := &Installer{
		Runner:              runner,
		RespectBlockingApps: true,
		RunningApps:         func(programs.Program) []string { return []string{"Wireshark.exe"} },
	}
	out := in.Update(context.Background(), programs.Program{Name: "Wireshark", InstallerPath: installerFile(t, "setup.exe")}, nil)
	if out.Success || out.Message != "Update blocked: close Wireshark.exe and try again" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if runner.calls != 0 {
		t.Error("runner should not be called while blocked")
	}
}

func TestMinutes(t *testing.T) {
	tests := map[time.Duration]string{
		5 * time.Minute:  "5 minutes",
		time.Minute:      "1 minute",
		30 * time.Second: "30 seconds",
	}
	for d, want := range tests {
		if got := minutes(d); got != want {
			t.Errorf("minutes(%v) = %q, want %q", d, got, want)
		}
	}
}
