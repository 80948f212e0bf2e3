package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifySHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.exe")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	const digest = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	sum, err := FileSHA256(path)
	if err != nil || sum != digest {
		t.Fatalf("FileSHA256 = %q, %v", sum, err)
	}
	if err := VerifySHA256(path, strings.ToUpper(digest)); err != nil {
		t.Errorf("upper-case digest rejected: %v", err)
	}
	if err := VerifySHA256(path, strings.Repeat("0", 64)); err == nil {
		t.Error("mismatch not reported")
	}
	if err := VerifySHA256(filepath.Join(t.TempDir(), "missing"), digest); err == nil {
		t.Error("missing file not reported")
	}
}
