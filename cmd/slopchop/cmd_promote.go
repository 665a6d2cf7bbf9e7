package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"slopchop/internal/config"
	"slopchop/internal/stage"
	"slopchop/internal/verify"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Verify the stage and promote it to the real workspace",
	RunE:  runPromote,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current stage",
	RunE:  runReset,
}

func runPromote(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := config.Load(filepath.Join(ws, "slopchop.yaml"))
	if err != nil {
		return err
	}

	mgr := stage.New(ws)
	if !mgr.Exists() {
		return fmt.Errorf("no stage to promote")
	}

	paths, err := discoverSourceFiles(mgr.EffectiveCWD())
	if err != nil {
		return err
	}
	checkReport, err := verify.Run(context.Background(), mgr.EffectiveCWD(), paths, verify.Options{
		Commands: cfg.Commands.Check,
		Rules:    cfg.CheckRules(),
		Locality: cfg.LocalityValidatorConfig(),
	})
	if err != nil {
		return err
	}
	if !checkReport.Passed {
		return fmt.Errorf("verification failed: %d violations, %d command(s) run", checkReport.Scan.TotalViolations, len(checkReport.Commands))
	}

	result, err := mgr.Promote(cfg.Preferences.BackupRetention)
	if err != nil {
		return err
	}

	fmt.Printf("promoted: %d written, %d deleted, backup at %s\n",
		len(result.FilesWritten), len(result.FilesDeleted), result.BackupPath)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	mgr := stage.New(ws)
	if err := mgr.Reset(); err != nil {
		return err
	}
	fmt.Println("stage reset")
	return nil
}
