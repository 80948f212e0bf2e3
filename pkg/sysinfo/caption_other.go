//go:build !windows
// +build !windows

package sysinfo

import "errors"

func osCaption() (string, string, error) {
	return "", "", errors.New("WMI is only available on Windows")
}
