// Package main provides the CLI entry point for pqlc.
package main

import (
	"os"

	"github.com/pqlc-dev/pqlc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
