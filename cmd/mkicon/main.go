// cmd/mkicon/main.go - writes assets/icon.ico for the status window.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/dfirupdater/pkg/icon"
)

func main() {
	out := pflag.StringP("out", "o", "assets/icon.ico", "Where to write the icon.")
	pflag.Parse()

	if err := icon.WriteFile(*out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write icon: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Icon created at %s\n", *out)
}
