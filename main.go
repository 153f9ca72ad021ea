package main

import (
	"os"

	"github.com/thaw-dev/thaw-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
