package status

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/dfirupdater/pkg/probe"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/sysinfo"
)

type fixedProber map[string]string

func (f fixedProber) Version(ctx context.Context, p programs.Program) string {
	if v, ok := f[p.Name]; ok {
		return v
	}
	return probe.Unknown
}

func TestIsOlderVersion(t *testing.T) {
	tests := []struct {
		local, remote string
		want          bool
	}{
		{"4.2.4", "4.2.5", true},
		{"4.2.5", "4.2.5", false},
		{"4.2.5.0", "4.2.5", false},
		{"v1.10", "1.9", false},
		{"1.9", "1.10", true},
		{"4.3.0", "4.2.5", false},
		{"build-abc", "build-abd", true},
		{"same-tag", "same-tag", false},
	}
	for _, tt := range tests {
		if got := IsOlderVersion(tt.local, tt.remote); got != tt.want {
			t.Errorf("IsOlderVersion(%q, %q) = %v, want %v", tt.local, tt.remote, got, tt.want)
		}
	}
}

func TestUpdateVerdict(t *testing.T) {
	tests := []struct {
		current, target, want string
	}{
		{"4.2.4", "4.2.5", VerdictYes},
		{"4.2.5", "4.2.5", VerdictNo},
		{"5.0", "4.2.5", VerdictNo},
		{probe.NotInstalled, "4.2.5", VerdictNotInstalled},
		{probe.Unknown, "4.2.5", VerdictNo},
		{probe.Timeout, "4.2.5", VerdictYes},
		{probe.Failed, "4.2.5", VerdictYes},
		{probe.NotApplicable, "4.2.5", VerdictYes},
		{"4.2.4", "", VerdictNoTarget},
	}
	for _, tt := range tests {
		if got := UpdateVerdict(tt.current, tt.target); got != tt.want {
			t.Errorf("UpdateVerdict(%q, %q) = %q, want %q", tt.current, tt.target, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	installed := t.TempDir()
	absent := filepath.Join(installed, "absent")

	tests := []struct {
		name      string
		program   programs.Program
		current   string
		wantState State
		wantLine  string
	}{
		{
			name:      "update available",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed, NewVersion: "4.2.5"},
			current:   "4.2.4",
			wantState: UpdateAvailable,
			wantLine:  "Current: 4.2.4 → New: 4.2.5",
		},
		{
			name:      "current",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed, NewVersion: "4.2.5"},
			current:   "4.2.5.0",
			wantState: Installed,
			wantLine:  "Current: 4.2.5.0 → New: 4.2.5",
		},
		{
			name:      "no target",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed},
			current:   "4.2.5",
			wantState: Installed,
			wantLine:  "Current: 4.2.5",
		},
		{
			name:      "unknown version",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed, NewVersion: "4.2.5"},
			current:   probe.Unknown,
			wantState: Installed,
			wantLine:  "Version: Unknown",
		},
		{
			name:      "failed version read shows unknown",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed, NewVersion: "4.2.5"},
			current:   probe.Failed,
			wantState: Installed,
			wantLine:  "Version: Unknown",
		},
		{
			name:      "executable missing from install dir",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed, NewVersion: "4.2.5"},
			current:   probe.NotInstalled,
			wantState: UpdateAvailable,
			wantLine:  "Current: Not Installed → New: 4.2.5",
		},
		{
			name:      "timed out read with target",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed, NewVersion: "4.2.5"},
			current:   probe.Timeout,
			wantState: UpdateAvailable,
			wantLine:  "Current: Timeout → New: 4.2.5",
		},
		{
			name:      "no version check",
			program:   programs.Program{Name: "Wireshark", InstallPath: installed},
			current:   probe.NotApplicable,
			wantState: Installed,
			wantLine:  "Current: N/A",
		},
		{
			name:      "not installed with target",
			program:   programs.Program{Name: "Wireshark", InstallPath: absent, NewVersion: "4.2.5"},
			current:   probe.NotInstalled,
			wantState: NotInstalled,
			wantLine:  "New: 4.2.5",
		},
		{
			name:      "not installed without target",
			program:   programs.Program{Name: "Wireshark", InstallPath: absent, NewVersion: "N/A"},
			current:   probe.NotInstalled,
			wantState: NotInstalled,
			wantLine:  "Not Installed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(context.Background(), fixedProber{"Wireshark": tt.current}, tt.program)
			if r.State != tt.wantState {
				t.Errorf("State = %v, want %v", r.State, tt.wantState)
			}
			if r.VersionLine != tt.wantLine {
				t.Errorf("VersionLine = %q, want %q", r.VersionLine, tt.wantLine)
			}
		})
	}
}

func TestCheckAllStopsOnCancel(t *testing.T) {
	list := []programs.Program{{Name: "A"}, {Name: "B"}}

	results := CheckAll(context.Background(), fixedProber{}, list)
	if len(results) != 2 || results[0].Name != "A" || results[1].Name != "B" {
		t.Fatalf("unexpected results %+v", results)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := CheckAll(ctx, fixedProber{}, list); len(got) != 0 {
		t.Errorf("expected no results after cancel, got %d", len(got))
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	results := []Result{{Name: "KAPE", State: UpdateAvailable, CurrentVersion: "1.3.0", TargetVersion: "1.3.1"}}
	report := NewReport(results, sysinfo.Facts{Hostname: "ws01"})

	jsonPath := filepath.Join(dir, "out", "report.json")
	if err := WriteReport(jsonPath, report); err != nil {
		t.Fatalf("WriteReport json: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.Contains(string(data), `"state": "Update Available"`) {
		t.Errorf("state not rendered by name:\n%s", data)
	}

	yamlPath := filepath.Join(dir, "report.yaml")
	if err := WriteReport(yamlPath, report); err != nil {
		t.Fatalf("WriteReport yaml: %v", err)
	}
	data, err = os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Host struct {
			Hostname string `yaml:"hostname"`
		} `yaml:"host"`
		Programs []struct {
			Name  string `yaml:"name"`
			State string `yaml:"state"`
		} `yaml:"programs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if doc.Host.Hostname != "ws01" || len(doc.Programs) != 1 || doc.Programs[0].State != "Update Available" {
		t.Errorf("unexpected YAML document %+v", doc)
	}
}
