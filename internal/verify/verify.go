// Package verify implements the verification pipeline (C13): external
// check-command execution, the internal structural scan, and locality
// gating, aggregated into one pass/fail report.
package verify

import (
	"context"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"slopchop/internal/check"
	"slopchop/internal/locality"
	"slopchop/internal/scan"
)

// CommandResult is the outcome of running one configured check command.
type CommandResult struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// CheckReport aggregates the full verification pass.
type CheckReport struct {
	Commands []CommandResult
	Scan     scan.Report
	Locality *locality.Report
	Passed   bool
}

// Options configures a verification run.
type Options struct {
	Commands []string
	Rules    check.Rules
	Locality locality.Config
}

// Run executes every configured check command against cwd, then the
// internal structural scan over paths, and locality validation, returning
// one aggregated report.
func Run(ctx context.Context, cwd string, paths []string, opts Options) (CheckReport, error) {
	var report CheckReport
	report.Passed = true

	for _, cmdline := range opts.Commands {
		result, err := runCommand(ctx, cwd, cmdline)
		if err != nil {
			return CheckReport{}, err
		}
		if result.ExitCode != 0 {
			report.Passed = false
		}
		report.Commands = append(report.Commands, result)
	}

	scanReport, err := scan.Run(ctx, paths, scan.Options{Rules: opts.Rules, Locality: opts.Locality})
	if err != nil {
		return CheckReport{}, err
	}
	report.Scan = scanReport
	for _, f := range scanReport.Files {
		for _, v := range f.Violations {
			if v.Confidence == check.High {
				report.Passed = false
			}
		}
	}
	if scanReport.Locality != nil {
		report.Locality = scanReport.Locality
		if !scanReport.Locality.Passed {
			report.Passed = false
		}
	}

	return report, nil
}

func runCommand(ctx context.Context, cwd, cmdline string) (CommandResult, error) {
	parts, err := shlex.Split(cmdline)
	if err != nil || len(parts) == 0 {
		return CommandResult{Command: cmdline, ExitCode: -1}, nil
	}

	// The context gates the start only; a command already running is not killed.
	if err := ctx.Err(); err != nil {
		return CommandResult{}, err
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = cwd

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return CommandResult{
		Command:  cmdline,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// ExtractLabel mirrors the convention of shortening a command line to a
// human-readable progress label ("cargo test" -> "cargo test").
func ExtractLabel(cmdline string) string {
	parts := strings.Fields(cmdline)
	switch len(parts) {
	case 0:
		return "command"
	case 1:
		return parts[0]
	default:
		return parts[0] + " " + parts[1]
	}
}
