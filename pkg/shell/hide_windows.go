//go:build windows

package shell

import (
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// CREATE_NO_WINDOW from the Win32 API
const createNoWindow = 0x08000000

// prepareCommand hides the console window and hands cmd.exe the command line
// verbatim; /S makes cmd strip exactly the outer pair of quotes.
func prepareCommand(cmd *exec.Cmd) {
	attr := &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
	if strings.EqualFold(filepath.Base(cmd.Path), "cmd.exe") && len(cmd.Args) == 3 && strings.EqualFold(cmd.Args[1], "/C") {
		attr.CmdLine = `cmd.exe /S /C "` + cmd.Args[2] + `"`
	}
	cmd.SysProcAttr = attr
}
