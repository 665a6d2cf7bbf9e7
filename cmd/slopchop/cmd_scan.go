package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"slopchop/internal/check"
	"slopchop/internal/config"
	"slopchop/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Run the structural analysis engine over the given paths",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := config.Load(filepath.Join(ws, "slopchop.yaml"))
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths, err = discoverSourceFiles(ws)
		if err != nil {
			return err
		}
	}

	report, err := scan.Run(context.Background(), paths, scan.Options{
		Rules:    cfg.CheckRules(),
		Locality: cfg.LocalityValidatorConfig(),
	})
	if err != nil {
		return err
	}

	for _, f := range scan.SortedByPath(report.Files) {
		for _, v := range f.Violations {
			fmt.Printf("%s:%d: [%s/%s] %s\n", f.Path, v.Row, v.RuleCode, v.Confidence, v.Message)
		}
	}
	fmt.Printf("\n%d files scanned, %d violations, %d tokens, %dms\n",
		len(report.Files), report.TotalViolations, report.TotalTokens, report.DurationMS)

	localityFailed := report.Locality != nil && !report.Locality.Passed
	if localityFailed {
		fmt.Println("locality: FAILED")
	}

	high := 0
	for _, f := range report.Files {
		for _, v := range f.Violations {
			if v.Confidence == check.High {
				high++
			}
		}
	}
	if high > 0 || localityFailed {
		os.Exit(1)
	}
	return nil
}

func discoverSourceFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".slopchop", "node_modules", "vendor", "target", "__pycache__", ".venv", "venv":
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".go", ".rs", ".py", ".ts", ".tsx", ".js", ".jsx":
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
