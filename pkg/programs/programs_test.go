package programs

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/windowsadmins/dfirupdater/pkg/config"
)

const sampleJSON = `[
    {
        "name": "Wireshark",
        "install_path": "C:\\Program Files\\Wireshark",
        "installer_path": "E:\\kit\\Wireshark-win64-4.2.5.exe",
        "silent_args": "/S",
        "new_version": "4.2.5",
        "version_check": {
            "type": "exe_version",
            "path": "C:\\Program Files\\Wireshark\\Wireshark.exe"
        }
    },
    {
        "name": "Sysinternals",
        "install_path": "C:\\Tools\\Sysinternals",
        "installer_path": "E:\\kit\\SysinternalsSuite.ZIP"
    }
]`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "programs.json", sampleJSON)

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d programs, want 2", len(list))
	}

	ws := list[0]
	if ws.TargetVersion() != "4.2.5" {
		t.Errorf("TargetVersion = %q", ws.TargetVersion())
	}
	if ws.VersionCheck == nil || ws.VersionCheck.Kind() != CheckExeVersion {
		t.Errorf("VersionCheck = %+v", ws.VersionCheck)
	}
	if ws.IsArchive() {
		t.Error("exe installer reported as archive")
	}
	if len(ws.MissingFields()) != 0 {
		t.Errorf("unexpected missing fields %v", ws.MissingFields())
	}

	si := list[1]
	if !si.IsArchive() {
		t.Error("upper-case .ZIP should be treated as an archive")
	}
	if !reflect.DeepEqual(si.MissingFields(), []string{"silent_args"}) {
		t.Errorf("MissingFields = %v, want [silent_args]", si.MissingFields())
	}
}

func TestLoadYAML(t *testing.T) {
	data := `
- name: KAPE
  install_path: C:\Tools\KAPE
  installer_path: E:\kit\kape.zip
  silent_args: ""
  new_version: N/A
  version_check:
    type: file_content
    path: C:\Tools\KAPE\ChangeLog.txt
    regex: 'Version (\d+\.\d+\.\d+)'
`
	path := writeFile(t, t.TempDir(), "programs.yaml", data)

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 1 || list[0].Name != "KAPE" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].TargetVersion() != "" {
		t.Errorf("N/A must count as no target, got %q", list[0].TargetVersion())
	}
	if list[0].VersionCheck.Regex != `Version (\d+\.\d+\.\d+)` {
		t.Errorf("Regex = %q", list[0].VersionCheck.Regex)
	}
}

func TestLoadRejectsObject(t *testing.T) {
	path := writeFile(t, t.TempDir(), "programs.json", `{"name": "x"}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-array document")
	}
}

func TestValidate(t *testing.T) {
	list := []Program{
		{Name: "A", InstallPath: "a", InstallerPath: "a.exe", VersionCheck: &VersionCheck{Type: "registry"}},
		{Name: "B", InstallPath: "b", InstallerPath: "b.exe", VersionCheck: &VersionCheck{Type: CheckCmdOutput}},
		{Name: "C", InstallPath: "c", InstallerPath: "c.exe", VersionCheck: &VersionCheck{}},
		{Name: "D", missing: []string{"install_path"}},
	}
	issues := Validate(list)
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3: %v", len(issues), issues)
	}
	if issues[0].Program != "A" || issues[1].Program != "B" || issues[2].Program != "D" {
		t.Errorf("unexpected issues %v", issues)
	}
	if issues[2].Problem != "Missing field 'install_path'" {
		t.Errorf("Problem = %q", issues[2].Problem)
	}
}

func TestFind(t *testing.T) {
	if p, ok := Find(Defaults(), "wireshark"); !ok || p.Name != "Wireshark" {
		t.Errorf("Find = %+v, %v", p, ok)
	}
	if _, ok := Find(Defaults(), "Volatility"); ok {
		t.Error("unexpected match")
	}
}

func TestLoadOrBootstrapUsesConfiguredPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "programs.json", sampleJSON)

	list, used, err := LoadOrBootstrap(&config.Configuration{ProgramsPath: path})
	if err != nil {
		t.Fatalf("LoadOrBootstrap: %v", err)
	}
	if used != path || len(list) != 2 {
		t.Errorf("used %q, %d programs", used, len(list))
	}
}

func TestLoadOrBootstrapCreatesFromTemplate(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)
	template := writeFile(t, t.TempDir(), TemplateFileName, sampleJSON)

	cfg := &config.Configuration{
		ProgramsPath: filepath.Join(work, "missing.json"),
		TemplatePath: template,
	}
	list, used, err := LoadOrBootstrap(cfg)
	if !errors.Is(err, ErrTemplateCreated) {
		t.Fatalf("err = %v, want ErrTemplateCreated", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list after bootstrap, got %d", len(list))
	}
	created, err := Load(used)
	if err != nil {
		t.Fatalf("created file unreadable: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("created file has %d programs", len(created))
	}
}

func TestLoadOrBootstrapFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := &config.Configuration{
		ProgramsPath: filepath.Join(dir, "missing.json"),
		TemplatePath: filepath.Join(dir, "missing_template.json"),
	}

	list, _, err := LoadOrBootstrap(cfg)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !reflect.DeepEqual(list, Defaults()) {
		t.Errorf("expected defaults, got %+v", list)
	}
}

func TestLoadOrBootstrapParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "programs.json", `[{"name": }`)

	list, _, err := LoadOrBootstrap(&config.Configuration{ProgramsPath: path})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if len(list) != len(Defaults()) {
		t.Errorf("expected defaults on parse error, got %d programs", len(list))
	}
}
