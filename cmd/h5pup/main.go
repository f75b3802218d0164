// Package main provides the h5pup command, which upgrades H5P content
// parameters between library versions.
package main

import (
	"os"

	"github.com/leapstack-labs/h5pup/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
