package preflight

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"animexport/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks an export needs before it starts: the scratch
// directory, the output directory and, when the output already exists, the
// output file itself. The history database directory is checked when
// configured.
func RunAll(cfg *config.Config, output string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))

	output = strings.TrimSpace(output)
	if output != "" {
		results = append(results, CheckDirectoryAccess("Output directory", filepath.Dir(output)))
		if r, exists := CheckFileWritable("Output file", output); exists {
			results = append(results, r)
		}
	}

	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// Err joins every failed check into one error, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range Failed(results) {
		errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
	}
	return errors.Join(errs...)
}
