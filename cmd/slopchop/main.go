// Package main implements the slopchop CLI: the entry point wiring the
// structural analysis engine, the edit application protocol, and the
// surgical patch engine into scan/apply/promote/reset/init subcommands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"slopchop/internal/audit"
)

var (
	verbose   bool
	workspace string
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "slopchop",
	Short: "slopchop - a structural governance engine for source code",
	Long: `slopchop enforces structural invariants on a codebase (file size,
cognitive complexity, nesting, module locality) and mediates AI-authored
edits through a transactional stage-and-promote protocol.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := audit.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize audit log: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		audit.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Repository root (default: current directory)")

	rootCmd.AddCommand(scanCmd, applyCmd, promoteCmd, resetCmd, initCmd)
}

func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return "", err
		}
		return ws, nil
	}
	abs, err := filepath.Abs(ws)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
