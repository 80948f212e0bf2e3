//go:build !windows

package logging

import "os"

func enableColors(*os.File) bool { return true }
