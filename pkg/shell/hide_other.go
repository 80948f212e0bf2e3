//go:build !windows

package shell

import "os/exec"

func prepareCommand(*exec.Cmd) {}
