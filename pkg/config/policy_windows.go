//go:build windows

package config

import (
	"fmt"
	"log"
	"strconv"

	"golang.org/x/sys/windows/registry"
)

// LoadConfigFromPolicy loads configuration from the HKLM policy key.
// This serves as a fallback when the Config.yaml file doesn't exist.
func LoadConfigFromPolicy() (*Configuration, error) {
	config := GetDefaultConfig()

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, PolicyRegistryPath, registry.READ)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy registry key %s: %w", PolicyRegistryPath, err)
	}
	defer key.Close()

	loadStringFromRegistry(key, "ProgramsPath", &config.ProgramsPath)
	loadStringFromRegistry(key, "TemplatePath", &config.TemplatePath)
	loadStringFromRegistry(key, "LogPath", &config.LogPath)
	loadStringFromRegistry(key, "LogLevel", &config.LogLevel)
	loadStringFromRegistry(key, "PowerShellPath", &config.PowerShellPath)

	loadIntFromRegistry(key, "ProbeTimeoutSeconds", &config.ProbeTimeoutSeconds)
	loadIntFromRegistry(key, "InstallerTimeoutMinutes", &config.InstallerTimeoutMinutes)

	loadBoolFromRegistry(key, "Debug", &config.Debug)
	loadBoolFromRegistry(key, "Verbose", &config.Verbose)
	loadBoolFromRegistry(key, "CheckOnly", &config.CheckOnly)
	loadBoolFromRegistry(key, "VerifyInstallerHash", &config.VerifyInstallerHash)
	loadBoolFromRegistry(key, "RespectBlockingApps", &config.RespectBlockingApps)

	config.applyDefaults()
	return config, nil
}

func loadStringFromRegistry(key registry.Key, valueName string, target *string) {
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		*target = val
		log.Printf("Policy: Loaded %s = %s", valueName, val)
	}
}

// loadBoolFromRegistry accepts "true"/"false", "1"/"0" strings or a DWORD.
func loadBoolFromRegistry(key registry.Key, valueName string, target *bool) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.ParseBool(val); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = val != 0
	}
}

func loadIntFromRegistry(key registry.Key, valueName string, target *int) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.Atoi(val); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = int(val)
	}
}
