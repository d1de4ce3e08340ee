package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/gcp-budget-notifier/tools/dashgen/dashboards"
	"github.com/donaldgifford/gcp-budget-notifier/tools/dashgen/rules"
	"github.com/donaldgifford/gcp-budget-notifier/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	rulesFormat := flag.String("rules-format", FormatOperator, "rule output format: operator or plain")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	cfg.RulesFormat = *rulesFormat

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// artifact is one generated file relative to the output directory.
type artifact struct {
	path string
	data []byte
}

func run(cfg Config, validateOnly bool) error {
	artifacts, err := generate(cfg)
	if err != nil {
		return err
	}

	if validateOnly {
		fmt.Println("validation passed")
		return nil
	}

	for _, a := range artifacts {
		path := filepath.Join(cfg.OutputDir, a.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, a.data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("dashgen: wrote %s\n", path)
	}
	return nil
}

// generate builds and validates every enabled artifact.
func generate(cfg Config) ([]artifact, error) {
	var (
		out    []artifact
		result validate.Result
	)

	if cfg.DashboardEnabled {
		dash, err := dashboards.BuildOverview().Build()
		if err != nil {
			return nil, fmt.Errorf("building dashboard: %w", err)
		}
		res := validate.Dashboard(dash, KnownMetrics)
		result.Errors = append(result.Errors, res.Errors...)

		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding dashboard: %w", err)
		}
		out = append(out, artifact{
			path: filepath.Join("grafana", "data", "budget-notifier-overview.json"),
			data: append(data, '\n'),
		})
	}

	if cfg.RulesEnabled {
		for file, cr := range map[string]rules.PrometheusRule{
			"budget-notifier-recording-rules.yaml": rules.RecordingRules(),
			"budget-notifier-alerts.yaml":          rules.AlertRules(),
		} {
			res := validate.Rules(cr, KnownMetrics)
			result.Errors = append(result.Errors, res.Errors...)

			var doc any = cr
			if cfg.RulesFormat == FormatPlain {
				doc = cr.Standalone()
			}

			data, err := yaml.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", file, err)
			}
			out = append(out, artifact{
				path: filepath.Join("prometheus", file),
				data: append([]byte(generatedHeader), data...),
			})
		}
	}

	if !result.Ok() {
		return nil, errors.New("validation failed:\n  " + strings.Join(result.Errors, "\n  "))
	}
	return out, nil
}

