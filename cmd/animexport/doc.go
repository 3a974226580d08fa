// Package main hosts the animexport CLI entrypoint and command graph.
//
// The Cobra command tree loads the configuration once, builds the logger, and
// hands the real work to internal packages: exporter for exports, history for
// past reports, compat for tag-level inspection.
package main
