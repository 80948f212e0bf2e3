// pkg/utils/hash.go - utility functions for hashing files.

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/windowsadmins/dfirupdater/pkg/logging"
)

// FileSHA256 returns the SHA256 sum of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifySHA256 checks a file against the expected hex digest, ignoring case.
func VerifySHA256(path, expected string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	logging.Debug("Calculated SHA256 hash", "path", path, "hash", actual)
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("installer hash mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}
