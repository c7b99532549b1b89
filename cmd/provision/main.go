package main

import (
	"os"

	"github.com/erp/provisioner/cmd/provision/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
