// Package main is the entry point for the paygtax CLI.
package main

import (
	"os"

	"github.com/manageitwa/payg-tax/cmd/paygtax/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
