package main

import (
	"os"

	"github.com/IronSpiderMan/OneSite/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
