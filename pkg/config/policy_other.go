//go:build !windows

package config

import "errors"

// LoadConfigFromPolicy is only backed by the registry on Windows.
func LoadConfigFromPolicy() (*Configuration, error) {
	return nil, errors.New("registry policy is only available on Windows")
}
