// Package main is the entry point for the groupwarden CLI.
package main

import (
	"os"

	"github.com/groupwarden/groupwarden/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
