// Package main provides the entry point for the policyragctl operator CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/policyrag/cmd/policyragctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
