// pkg/status/report.go - snapshot of a status run written to disk.

package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/sysinfo"
	"github.com/windowsadmins/dfirupdater/pkg/version"
)

// Report is the document written by WriteReport.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	SessionID   string        `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Tool        version.Info  `json:"tool" yaml:"tool"`
	Host        sysinfo.Facts `json:"host" yaml:"host"`
	Programs    []Result      `json:"programs" yaml:"programs"`
}

// NewReport wraps results with host facts and build information.
func NewReport(results []Result, facts sysinfo.Facts) Report {
	return Report{
		GeneratedAt: time.Now(),
		SessionID:   logging.GetSessionID(),
		Tool:        version.Version(),
		Host:        facts,
		Programs:    results,
	}
}

// WriteReport writes the report as YAML for .yaml/.yml paths and JSON otherwise.
func WriteReport(path string, report Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	logging.Info("Wrote status report", "path", path, "programs", len(report.Programs))
	return nil
}
