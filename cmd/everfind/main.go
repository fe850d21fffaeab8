// Package main provides the entry point for the everfind CLI.
package main

import (
	"os"

	"github.com/everfind/everfind/cmd/everfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
