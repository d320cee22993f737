// Package main provides the CLI entry point for ShelfTalk.
package main

import (
	"os"

	"github.com/leapstack-labs/shelftalk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
