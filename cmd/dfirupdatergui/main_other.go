//go:build !windows
// +build !windows

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "dfirupdatergui requires Windows; use dfirupdater for the console interface.")
	os.Exit(1)
}
