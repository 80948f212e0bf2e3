package main

import (
	"testing"

	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/status"
)

func TestSelectTargets(t *testing.T) {
	list := []programs.Program{{Name: "Wireshark"}, {Name: "KAPE"}, {Name: "Sysinternals"}}
	results := []status.Result{
		{Name: "Wireshark", State: status.UpdateAvailable},
		{Name: "KAPE", State: status.Installed},
		{Name: "Sysinternals", State: status.NotInstalled},
	}

	targets, unknown := selectTargets(list, results, nil, true)
	if len(targets) != 2 || targets[0].Name != "Wireshark" || targets[1].Name != "Sysinternals" || unknown != nil {
		t.Errorf("update-all: %+v %v", targets, unknown)
	}

	targets, unknown = selectTargets(list, results, []string{"kape", " ", "Volatility"}, false)
	if len(targets) != 1 || targets[0].Name != "KAPE" {
		t.Errorf("named targets: %+v", targets)
	}
	if len(unknown) != 1 || unknown[0] != "Volatility" {
		t.Errorf("unknown: %v", unknown)
	}
}

func TestReplaceResult(t *testing.T) {
	results := []status.Result{{Name: "A", State: status.NotInstalled}, {Name: "B"}}
	replaceResult(results, status.Result{Name: "A", State: status.Installed})
	if results[0].State != status.Installed {
		t.Errorf("result not replaced: %+v", results[0])
	}
}
