package main

import (
	"os"

	"github.com/gerrardelliot83-create/bankrecon/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
