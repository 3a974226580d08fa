package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"animexport/internal/exporter"
)

// exitAborted distinguishes an export that ran but produced no file from
// usage and configuration failures.
const exitAborted = 2

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	if errors.Is(err, exporter.ErrAborted) {
		return exitAborted
	}
	return 1
}
