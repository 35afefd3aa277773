package main

import (
	"os"

	"zkpass/cmd/zkpass/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
