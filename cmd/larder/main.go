// Package main is the entry point for the larder CLI.
package main

import (
	"os"

	"github.com/jmylchreest/larder/cmd/larder/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
