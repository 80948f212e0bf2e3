package blocking

import (
	"reflect"
	"testing"

	"github.com/windowsadmins/dfirupdater/pkg/programs"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		app, proc, exe string
		want           bool
	}{
		{"Wireshark", "Wireshark.exe", "", true},
		{"wireshark.exe", "Wireshark.exe", "", true},
		{"Wireshark", "Wireshark", "", true},
		{"Wireshark.exe", "Wireshark", "", false},
		{"tshark", "Wireshark.exe", "", false},
		{`C:\Program Files\Wireshark\Wireshark.exe`, "Wireshark.exe", `c:\program files\wireshark\wireshark.exe`, true},
		{`C:\Tools\Wireshark.exe`, "Wireshark.exe", `C:\Program Files\Wireshark\Wireshark.exe`, false},
	}
	for _, tt := range tests {
		if got := matches(tt.app, tt.proc, tt.exe); got != tt.want {
			t.Errorf("matches(%q, %q, %q) = %v, want %v", tt.app, tt.proc, tt.exe, got, tt.want)
		}
	}
}

func TestCandidates(t *testing.T) {
	explicit := programs.Program{BlockingApps: []string{"a.exe", "b.exe"}}
	if got := Candidates(explicit); !reflect.DeepEqual(got, []string{"a.exe", "b.exe"}) {
		t.Errorf("explicit: %v", got)
	}

	fromCheck := programs.Program{VersionCheck: &programs.VersionCheck{
		Type: programs.CheckExeVersion,
		Path: `C:\Program Files\Wireshark\Wireshark.exe`,
	}}
	if got := Candidates(fromCheck); !reflect.DeepEqual(got, []string{"Wireshark.exe"}) {
		t.Errorf("from version check: %v", got)
	}

	if got := Candidates(programs.Program{}); got != nil {
		t.Errorf("none: %v", got)
	}
}

func TestIsAppRunningUnknownApp(t *testing.T) {
	if IsAppRunning("definitely-not-a-running-process-4f1c.exe") {
		t.Error("unexpected match for a made-up process")
	}
}
