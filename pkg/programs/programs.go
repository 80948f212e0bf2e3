// pkg/programs/programs.go - the list of programs kept current on a workstation.

package programs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName  = "programs.json"
	TemplateFileName = "programs_template.json"
)

var (
	// ErrTemplateCreated means a programs file was written from the template and
	// the operator must fill it in before anything can be checked.
	ErrTemplateCreated = errors.New("created programs file from template")
	// ErrNotFound means neither a programs file nor a template was available.
	ErrNotFound = errors.New("programs file not found and template not available")
)

// CheckType selects how a program's installed version is read.
type CheckType string

const (
	CheckNone        CheckType = "none"
	CheckExeVersion  CheckType = "exe_version"
	CheckCmdOutput   CheckType = "cmd_output"
	CheckFileContent CheckType = "file_content"
)

// Valid reports whether t is one of the known strategies.
func (t CheckType) Valid() bool {
	switch t {
	case CheckNone, CheckExeVersion, CheckCmdOutput, CheckFileContent:
		return true
	}
	return false
}

// VersionCheck describes where the installed version comes from.
type VersionCheck struct {
	Type    CheckType `json:"type,omitempty" yaml:"type,omitempty"`
	Path    string    `json:"path,omitempty" yaml:"path,omitempty"`
	Command string    `json:"command,omitempty" yaml:"command,omitempty"`
	Regex   string    `json:"regex,omitempty" yaml:"regex,omitempty"`
}

// Kind returns the check type, treating an absent type as none.
func (vc VersionCheck) Kind() CheckType {
	if vc.Type == "" {
		return CheckNone
	}
	return vc.Type
}

// Program is one entry of programs.json.
type Program struct {
	Name          string        `json:"name" yaml:"name"`
	InstallPath   string        `json:"install_path" yaml:"install_path"`
	InstallerPath string        `json:"installer_path" yaml:"installer_path"`
	SilentArgs    string        `json:"silent_args" yaml:"silent_args"`
	NewVersion    string        `json:"new_version,omitempty" yaml:"new_version,omitempty"`
	VersionCheck  *VersionCheck `json:"version_check,omitempty" yaml:"version_check,omitempty"`

	InstallerSHA256 string   `json:"installer_sha256,omitempty" yaml:"installer_sha256,omitempty"`
	BlockingApps    []string `json:"blocking_applications,omitempty" yaml:"blocking_applications,omitempty"`

	missing []string
}

// TargetVersion returns the declared new_version, or "" when none is set.
// "Unknown" and "N/A" are placeholders and count as unset.
func (p Program) TargetVersion() string {
	v := strings.TrimSpace(p.NewVersion)
	if v == "Unknown" || v == "N/A" {
		return ""
	}
	return v
}

// IsArchive reports whether the installer is a zip to extract rather than run.
func (p Program) IsArchive() bool {
	return strings.EqualFold(filepath.Ext(p.InstallerPath), ".zip")
}

// MissingFields lists required keys that were absent from the source file.
func (p Program) MissingFields() []string {
	return p.missing
}

var requiredFields = []string{"name", "install_path", "installer_path", "silent_args"}

// Load parses a programs file; .yaml and .yml are read as YAML, anything else as JSON.
func Load(path string) ([]Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []Program
	var raw []map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	for i := range list {
		for _, field := range requiredFields {
			if _, ok := raw[i][field]; !ok {
				list[i].missing = append(list[i].missing, field)
			}
		}
	}
	return list, nil
}

// Save writes the list as indented JSON.
func Save(path string, list []Program) error {
	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Defaults is used when no programs file can be loaded.
func Defaults() []Program {
	return []Program{
		{
			Name:          "Wireshark",
			InstallPath:   `C:\Program Files\Wireshark`,
			InstallerPath: `C:\Installers\Wireshark-win64-4.2.5.exe`,
			SilentArgs:    "/S",
		},
		{
			Name:          "Sysinternals",
			InstallPath:   `C:\Tools\Sysinternals`,
			InstallerPath: `C:\Installers\sysinternals-suite.zip`,
			SilentArgs:    "",
		},
	}
}

// Find returns the program with the given name, matched case-insensitively.
func Find(list []Program, name string) (Program, bool) {
	for _, p := range list {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Program{}, false
}

// Issue is a validation problem with one entry.
type Issue struct {
	Index   int
	Program string
	Problem string
}

func (i Issue) String() string {
	return fmt.Sprintf("program %d (%s): %s", i.Index+1, i.Program, i.Problem)
}

// Validate reports missing required fields and unusable version checks.
func Validate(list []Program) []Issue {
	var issues []Issue
	for i, p := range list {
		for _, field := range p.missing {
			issues = append(issues, Issue{i, p.Name, fmt.Sprintf("Missing field '%s'", field)})
		}
		if p.VersionCheck == nil {
			continue
		}
		vc := *p.VersionCheck
		switch {
		case !vc.Kind().Valid():
			issues = append(issues, Issue{i, p.Name, fmt.Sprintf("Unknown version_check type '%s'", vc.Type)})
		case vc.Kind() == CheckCmdOutput && vc.Command == "":
			issues = append(issues, Issue{i, p.Name, "version_check cmd_output has no command"})
		case (vc.Kind() == CheckExeVersion || vc.Kind() == CheckFileContent) && vc.Path == "":
			issues = append(issues, Issue{i, p.Name, fmt.Sprintf("version_check %s has no path", vc.Type)})
		}
	}
	return issues
}
