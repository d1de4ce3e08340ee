// Package main generates the budget-notifier CLI reference from its cobra
// command tree, as markdown, man pages or YAML.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/gcp-budget-notifier/cmd/budget-notifier/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory")
	format := flag.String("format", "markdown", "output format: markdown, man or yaml")
	flag.Parse()

	if err := generate(cmd.Root(), *format, *output); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CLI %s docs generated in %s/\n", *format, *output)
}

func generate(root *cobra.Command, format, dir string) error {
	root.DisableAutoGenTag = true

	var gen func() error
	switch format {
	case "markdown":
		gen = func() error { return doc.GenMarkdownTree(root, dir) }
	case "man":
		gen = func() error {
			return doc.GenManTree(root, &doc.GenManHeader{Title: "BUDGET-NOTIFIER", Section: "1"}, dir)
		}
	case "yaml":
		gen = func() error { return doc.GenYamlTree(root, dir) }
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := gen(); err != nil {
		return fmt.Errorf("generating %s docs: %w", format, err)
	}
	return nil
}
