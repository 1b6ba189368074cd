package main

import (
	"os"

	"github.com/filesmanager/backend/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
