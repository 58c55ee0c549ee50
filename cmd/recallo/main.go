package main

import (
	"os"

	"github.com/recallo/recallo-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
