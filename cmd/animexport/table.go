package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"animexport/internal/diag"
	"animexport/internal/exporter"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// messageWidth caps free-text columns; longer cells wrap on word boundaries.
const messageWidth = 72

type column struct {
	title string
	align columnAlignment
	// wrap is the maximum cell width; zero leaves the column unbounded.
	wrap int
}

func col(title string) column { return column{title: title} }

func (c column) right() column { c.align = alignRight; return c }

func (c column) wrapped(width int) column { c.wrap = width; return c }

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		header[i] = c.title
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.align == alignRight {
			cfg.Align = text.AlignRight
		}
		if c.wrap > 0 {
			cfg.WidthMax = c.wrap
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		configs = append(configs, cfg)
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// diagnosticRow is one grouped line of live or stored diagnostics.
type diagnosticRow struct {
	severity diag.Severity
	kind     string
	message  string
	count    int
}

func renderDiagnostics(diags []diagnosticRow, colorize bool) string {
	rows := make([][]string, 0, len(diags))
	for i, d := range diags {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			colorizeSeverity(severityLabel(d.severity), d.severity, colorize),
			d.kind,
			strconv.Itoa(d.count),
			d.message,
		})
	}
	return renderTable([]column{
		col("#").right(), col("Severity"), col("Kind"), col("Count").right(), col("Message").wrapped(messageWidth),
	}, rows)
}

func renderSequences(seqs []exporter.Sequence) string {
	rows := make([][]string, 0, len(seqs))
	for _, s := range seqs {
		rows = append(rows, []string{
			s.Name,
			formatRatio(s.Requested.Scale),
			formatRatio(s.Factor.Scale),
			formatRatio(s.Factor.FPS),
			s.Policy.String(),
			strconv.Itoa(s.Ignored),
		})
	}
	return renderTable([]column{
		col("Sequence"), col("Requested").right(), col("Scale").right(), col("FPS ratio").right(), col("Policy"), col("Ignored").right(),
	}, rows)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
