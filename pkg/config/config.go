// pkg/config/config.go - configuration settings for DFIR Updater.

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const ConfigPath = `C:\ProgramData\DFIRUpdater\Config.yaml`

// PolicyRegistryPath is the HKLM key holding policy-managed settings.
const PolicyRegistryPath = `SOFTWARE\DFIRUpdater\Config`

// ConfigEnvVar overrides ConfigPath when set.
const ConfigEnvVar = "DFIRUPDATER_CONFIG"

// Configuration holds the configurable options for DFIR Updater in YAML format
type Configuration struct {
	ProgramsPath        string `yaml:"ProgramsPath"`        // explicit programs.json location
	TemplatePath        string `yaml:"TemplatePath"`        // programs_template.json used to bootstrap a missing programs file
	LogPath             string `yaml:"LogPath"`             // base directory for session log directories
	LogLevel            string `yaml:"LogLevel"`            // ERROR, WARN, INFO or DEBUG
	Debug               bool   `yaml:"Debug"`
	Verbose             bool   `yaml:"Verbose"`
	CheckOnly           bool   `yaml:"CheckOnly"`           // report what would run without running installers
	PowerShellPath      string `yaml:"PowerShellPath"`      // scripting host used for installs and fallback probes
	VerifyInstallerHash bool   `yaml:"VerifyInstallerHash"` // honour installer_sha256 entries
	RespectBlockingApps bool   `yaml:"RespectBlockingApps"` // refuse updates while blocking_applications run

	ProbeTimeoutSeconds     int `yaml:"ProbeTimeoutSeconds"`
	InstallerTimeoutMinutes int `yaml:"InstallerTimeoutMinutes"`
}

// LoadConfig loads the configuration from the default location.
// If the YAML file doesn't exist, it falls back to registry policy settings
// and finally to the built-in defaults, so an unconfigured workstation still runs.
func LoadConfig() (*Configuration, error) {
	path := ConfigPath
	if env := os.Getenv(ConfigEnvVar); env != "" {
		path = env
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, policyErr := LoadConfigFromPolicy()
		if policyErr == nil {
			log.Printf("Loaded configuration from registry policy: %s", PolicyRegistryPath)
			return cfg, nil
		}
		return GetDefaultConfig(), nil
	}

	return LoadConfigFrom(path)
}

// LoadConfigFrom reads and parses a specific Config.yaml.
func LoadConfigFrom(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %s: %w", path, err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration file %s: %w", path, err)
	}
	config.applyDefaults()

	return config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Configuration, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		LogLevel:                "INFO",
		LogPath:                 defaultLogPath(),
		PowerShellPath:          defaultPowerShell(),
		VerifyInstallerHash:     true,
		RespectBlockingApps:     true,
		ProbeTimeoutSeconds:     30,
		InstallerTimeoutMinutes: 5,
	}
}

// applyDefaults fills zero values left by a partial file or policy.
func (c *Configuration) applyDefaults() {
	def := GetDefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.PowerShellPath == "" {
		c.PowerShellPath = def.PowerShellPath
	}
	if c.ProbeTimeoutSeconds <= 0 {
		c.ProbeTimeoutSeconds = def.ProbeTimeoutSeconds
	}
	if c.InstallerTimeoutMinutes <= 0 {
		c.InstallerTimeoutMinutes = def.InstallerTimeoutMinutes
	}
}

// ProbeTimeout bounds a single version probe.
func (c *Configuration) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// InstallerTimeout bounds a single installer or archive extraction.
func (c *Configuration) InstallerTimeout() time.Duration {
	return time.Duration(c.InstallerTimeoutMinutes) * time.Minute
}

func defaultLogPath() string {
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\DFIRUpdater\logs`
	}
	return filepath.Join(os.TempDir(), "dfirupdater", "logs")
}

// defaultPowerShell forces the inbox Windows PowerShell rather than whatever is first on PATH.
func defaultPowerShell() string {
	if runtime.GOOS == "windows" {
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return filepath.Join(windir, "system32", "WindowsPowerShell", "v1.0", "powershell.exe")
	}
	return "pwsh"
}
