package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"slopchop/internal/manifest"
	"slopchop/internal/patch"
	"slopchop/internal/payload"
	"slopchop/internal/stage"
)

var applyCmd = &cobra.Command{
	Use:   "apply <payload-file>",
	Short: "Parse and stage a sigil-delimited edit payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	blocks, err := payload.Parse(string(raw), payload.Options{})
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	entries, contents, patches := splitBlocks(blocks)
	if err := manifest.Validate(entries, contents); err != nil {
		return err
	}

	mgr := stage.New(ws)
	if _, err := mgr.EnsureStage(); err != nil {
		return fmt.Errorf("ensure stage: %w", err)
	}

	for path, content := range contents {
		dest := filepath.Join(mgr.EffectiveCWD(), path)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
			return err
		}
		if err := mgr.RecordWrite(path, content); err != nil {
			return err
		}
	}

	for path, body := range patches {
		target := filepath.Join(mgr.EffectiveCWD(), path)
		original, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("read staged %s: %w", path, err)
		}
		p, err := patch.Parse(body)
		if err != nil {
			return fmt.Errorf("parse patch for %s: %w", path, err)
		}
		result, err := patch.Apply(string(original), p)
		if err != nil {
			return fmt.Errorf("apply patch to %s: %w", path, err)
		}
		if err := os.WriteFile(target, []byte(result), 0644); err != nil {
			return err
		}
		if err := mgr.RecordWrite(path, result); err != nil {
			return err
		}
	}

	if err := mgr.RecordApply(); err != nil {
		return err
	}

	fmt.Printf("staged %d file(s) and %d patch(es)\n", len(contents), len(patches))
	return nil
}

func splitBlocks(blocks []payload.Block) ([]manifest.Entry, map[string]string, map[string]string) {
	var entries []manifest.Entry
	contents := map[string]string{}
	patches := map[string]string{}

	for _, b := range blocks {
		switch b.Kind {
		case payload.Manifest:
			entries = append(entries, parseManifestLines(b.Text)...)
		case payload.File:
			contents[b.Arg] = b.Text
		case payload.Patch:
			patches[b.Arg] = b.Text
		}
	}
	return entries, contents, patches
}

func parseManifestLines(text string) []manifest.Entry {
	var entries []manifest.Entry
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op := manifest.Update
		path := fields[0]
		if len(fields) > 1 {
			switch fields[1] {
			case "[NEW]":
				op = manifest.New
			case "[DELETE]":
				op = manifest.Delete
			}
		}
		entries = append(entries, manifest.Entry{Path: path, Op: op})
	}
	return entries
}
