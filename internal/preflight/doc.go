// Package preflight checks the filesystem locations an export writes to.
//
// The exporter runs RunAll before it creates any session state so an
// unwritable output directory fails fast with a clear message instead of
// surfacing as an OutputWriteError after the whole project has been walked.
// The CLI "config validate" command prints the same results.
package preflight
