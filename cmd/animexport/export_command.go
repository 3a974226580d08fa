package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"animexport/internal/diag"
	"animexport/internal/exporter"
	"animexport/internal/history"
	"animexport/internal/host/manifest"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	var comps []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "export <manifest>",
		Short: "Export compositions from a project manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(output) == "" {
				return errors.New("--output is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			project, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withHistory(func(store *history.Store) error {
				var opts []exporter.Option
				if store != nil {
					opts = append(opts, exporter.WithHistory(store))
				}
				report, runErr := exporter.New(cfg, logger, opts...).Run(runCtx, exporter.Request{
					Project:      project,
					Manifest:     args[0],
					Output:       output,
					Compositions: comps,
				})
				if report != nil {
					if jsonOut {
						if err := writeJSON(cmd, newReportView(report)); err != nil {
							return err
						}
					} else {
						printReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
					}
				}
				if runErr != nil && runCtx.Err() != nil {
					return fmt.Errorf("export interrupted: %w", runErr)
				}
				return runErr
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	cmd.Flags().StringSliceVar(&comps, "comp", nil, "Root composition to export (repeatable; default: every unreferenced composition)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

type diagnosticView struct {
	Kind          string `json:"kind"`
	Severity      string `json:"severity"`
	CompositionID uint32 `json:"composition_id,omitempty"`
	LayerID       uint32 `json:"layer_id,omitempty"`
	Extra         string `json:"extra,omitempty"`
	Message       string `json:"message"`
}

type sequenceView struct {
	CompositionID  uint32  `json:"composition_id"`
	Name           string  `json:"name"`
	RequestedScale float64 `json:"requested_scale"`
	RequestedFPS   float64 `json:"requested_fps,omitempty"`
	Scale          float64 `json:"scale"`
	FPSRatio       float64 `json:"fps_ratio"`
	Policy         string  `json:"policy"`
	Ignored        int     `json:"ignored_requests,omitempty"`
}

// reportView carries every drained record; grouping is for the terminal only.
type reportView struct {
	SessionID   string           `json:"session_id"`
	Status      string           `json:"status"`
	Output      string           `json:"output"`
	TagMode     string           `json:"tag_mode"`
	TagLevel    int              `json:"tag_level"`
	Language    string           `json:"language,omitempty"`
	Bytes       int64            `json:"bytes"`
	Warnings    int              `json:"warnings"`
	Errors      int              `json:"errors"`
	Dropped     int              `json:"dropped,omitempty"`
	Error       string           `json:"error,omitempty"`
	Sequences   []sequenceView   `json:"sequences,omitempty"`
	Diagnostics []diagnosticView `json:"diagnostics"`
}

func newReportView(r *exporter.Report) reportView {
	warnings, errs := r.Counts()
	view := reportView{
		SessionID:   r.SessionID,
		Status:      string(r.Status),
		Output:      r.Output,
		TagMode:     r.TagMode,
		TagLevel:    r.TagLevel,
		Language:    r.Language,
		Bytes:       r.Bytes,
		Warnings:    warnings,
		Errors:      errs,
		Dropped:     r.Dropped,
		Error:       r.Error,
		Diagnostics: []diagnosticView{},
	}
	for _, s := range r.Sequences {
		view.Sequences = append(view.Sequences, sequenceView{
			CompositionID:  uint32(s.CompositionID),
			Name:           s.Name,
			RequestedScale: s.Requested.Scale,
			RequestedFPS:   s.Requested.FPS,
			Scale:          s.Factor.Scale,
			FPSRatio:       s.Factor.FPS,
			Policy:         s.Policy.String(),
			Ignored:        s.Ignored,
		})
	}
	for _, d := range r.Diagnostics {
		view.Diagnostics = append(view.Diagnostics, diagnosticView{
			Kind:          d.Kind.String(),
			Severity:      d.Kind.Severity().String(),
			CompositionID: uint32(d.CompositionID),
			LayerID:       uint32(d.LayerID),
			Extra:         d.Extra,
			Message:       d.Message,
		})
	}
	return view
}

func printReport(out io.Writer, r *exporter.Report, colorize bool) {
	warnings, errs := r.Counts()
	for _, line := range renderSectionHeader("Export "+r.SessionID, colorize) {
		fmt.Fprintln(out, line)
	}
	if r.Completed() {
		fmt.Fprintln(out, renderStatusLine("Result", resultMarker(true), fmt.Sprintf("wrote %d bytes", r.Bytes), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Result", resultMarker(false), "aborted: "+r.Error, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Output", markInfo, r.Output, colorize))
	fmt.Fprintln(out, renderStatusLine("Tag level", markInfo, fmt.Sprintf("%s (%d)", r.TagMode, r.TagLevel), colorize))
	fmt.Fprintln(out, renderStatusLine("Diagnostics", worstMarker(warnings, errs), fmt.Sprintf("%d warnings, %d errors", warnings, errs), colorize))
	if r.Dropped > 0 {
		fmt.Fprintln(out, renderStatusLine("Dropped", severityMarker(diag.SeverityWarning), fmt.Sprintf("%d oldest records", r.Dropped), colorize))
	}
	if len(r.Sequences) > 0 {
		fmt.Fprintln(out, renderSequences(r.Sequences))
	}
	if len(r.Groups) == 0 {
		return
	}

	rows := make([]diagnosticRow, 0, len(r.Groups))
	for _, g := range r.Groups {
		rows = append(rows, diagnosticRow{severity: g.Kind.Severity(), kind: g.Kind.String(), message: g.Message, count: g.Count})
	}
	fmt.Fprintln(out, renderDiagnostics(rows, colorize))
}
