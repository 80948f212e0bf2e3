//go:build windows

package logging

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableColors turns on virtual terminal processing for the console behind f.
func enableColors(f *os.File) bool {
	handle := windows.Handle(f.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return false
	}
	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	return windows.SetConsoleMode(handle, mode) == nil
}
