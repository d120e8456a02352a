package main

import (
	"os"

	"cuaderno/cmd/server/commands"
)

// set with -ldflags at build time
var version = "dev"

func main() {
	commands.SetVersion(version)
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
