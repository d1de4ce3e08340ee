// Package main is the entry point for the budget-notifier CLI.
package main

import (
	"os"

	"github.com/donaldgifford/gcp-budget-notifier/cmd/budget-notifier/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
