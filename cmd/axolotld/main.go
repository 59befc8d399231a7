package main

import (
	"os"

	"axolotld/cmd/axolotld/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
