package main

import (
	"os"

	"github.com/rezkam/tasks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
