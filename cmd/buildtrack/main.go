// Package main provides the entry point for the buildtrack CLI.
package main

import (
	"fmt"
	"os"

	"github.com/buildtrack/buildtrack/cmd/buildtrack/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
