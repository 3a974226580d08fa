package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"animexport/internal/diag"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

// marker tags a status line. Warnings and errors come from diag.Severity so
// the summary lines and the diagnostics table agree.
type marker struct {
	label string
	color string
}

var (
	markInfo = marker{"INFO", ansiBlue}
	markOK   = marker{"OK", ansiGreen}
)

func severityMarker(s diag.Severity) marker {
	if s == diag.SeverityError {
		return marker{"ERROR", ansiRed}
	}
	return marker{"WARN", ansiYellow}
}

// worstMarker summarizes a diagnostics count: clean, or the worst severity seen.
func worstMarker(warnings, errs int) marker {
	switch {
	case errs > 0:
		return severityMarker(diag.SeverityError)
	case warnings > 0:
		return severityMarker(diag.SeverityWarning)
	default:
		return markOK
	}
}

// resultMarker marks the outcome line of a report.
func resultMarker(completed bool) marker {
	if completed {
		return markOK
	}
	return severityMarker(diag.SeverityError)
}

func renderStatusLine(label string, m marker, message string, colorize bool) string {
	status := "[" + m.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize {
		return m.color + line + ansiReset
	}
	return line
}

func colorizeSeverity(label string, s diag.Severity, colorize bool) string {
	if !colorize {
		return label
	}
	return severityMarker(s).color + label + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		return []string{ansiBlue + line + ansiReset, ansiBlue + rule + ansiReset}
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
