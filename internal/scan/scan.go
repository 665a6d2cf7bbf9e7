// Package scan implements the scan orchestrator (C8): a bounded parallel
// fan-out over discovered files into C5, merged with C7's locality report
// into a single ScanReport.
package scan

import (
	"context"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"slopchop/internal/check"
	"slopchop/internal/graph"
	"slopchop/internal/lang"
	"slopchop/internal/locality"
)

// Options configures a scan run.
type Options struct {
	Rules           check.Rules
	Locality        locality.Config
	MaxConcurrency  int
	OnFileScanned   func(path string)
	OnStatus        func(status string)
}

// DefaultConcurrency mirrors the teacher's scanner-config convention:
// runtime.NumCPU() clamped to [4, 20].
func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if n < 4 {
		return 4
	}
	if n > 20 {
		return 20
	}
	return n
}

// Report is the run aggregate C8 produces.
type Report struct {
	Files           []check.FileReport
	TotalTokens     int
	TotalViolations int
	DurationMS      int64
	Locality        *locality.Report
}

// Run scans every path in paths (read via a simple os.ReadFile, a real
// caller could swap this for any content source). Cancellation is
// cooperative: ctx is checked between files.
func Run(ctx context.Context, paths []string, opts Options) (Report, error) {
	start := time.Now()
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultConcurrency()
	}

	results := make([]check.FileReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = check.File(path, content, opts.Rules)
			if opts.OnFileScanned != nil {
				opts.OnFileScanned(path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Files: results}
	for _, r := range results {
		report.TotalTokens += r.TokenCount
		report.TotalViolations += len(r.Violations)
	}

	localityReport := buildLocalityReport(paths, opts.Locality)
	report.Locality = &localityReport
	report.DurationMS = time.Since(start).Milliseconds()

	if opts.OnStatus != nil {
		opts.OnStatus("scan complete")
	}

	return report, nil
}

// SortedByPath returns a copy of reports sorted by file path, for callers
// needing a stable order (the raw scan result order is index-stable here,
// but sorting is the documented way to get a path-ordered view).
func SortedByPath(reports []check.FileReport) []check.FileReport {
	out := make([]check.FileReport, len(reports))
	copy(out, reports)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func buildLocalityReport(paths []string, cfg locality.Config) locality.Report {
	var symbols []graph.FileSymbols
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		l, ok := lang.FromExtension(extOf(path))
		if !ok {
			continue
		}
		facts, err := lang.Analyze(l, content)
		if err != nil || !facts.ParseOK {
			continue
		}
		symbols = append(symbols, graph.FileSymbols{Path: path, Defs: facts.Defs, Refs: facts.Refs})
	}
	g := graph.Build(symbols)
	return locality.Validate(g, cfg)
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
