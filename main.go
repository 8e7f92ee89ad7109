package main

import (
	"os"

	"github.com/atelio/fieldops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
