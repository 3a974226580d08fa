package main

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"animexport/internal/diag"
	"animexport/internal/history"
	"animexport/internal/host"
)

var errHistoryDisabled = errors.New("export history is disabled (paths.history_db is empty)")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past export reports",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if store == nil {
					return errHistoryDisabled
				}
				sessions, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]sessionView, 0, len(sessions))
					for _, s := range sessions {
						views = append(views, newSessionView(s))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No exports recorded")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						shortID(s.ID),
						s.StartedAt.Local().Format("2006-01-02 15:04:05"),
						string(s.Status),
						fmt.Sprintf("%s (%d)", s.TagMode, s.TagLevel),
						fmt.Sprint(s.Warnings),
						fmt.Sprint(s.Errors),
						s.Output,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					col("Session"), col("Started"), col("Status"), col("Tag level"),
					col("Warnings").right(), col("Errors").right(), col("Output"),
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print sessions as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Show one export report with its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if store == nil {
					return errHistoryDisabled
				}
				sess, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, newSessionView(*sess))
				}
				printSession(cmd, sess)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the session as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if store == nil {
					return errHistoryDisabled
				}
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d sessions\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "Number of sessions to keep")
	return cmd
}

func printSession(cmd *cobra.Command, s *history.Session) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Export "+s.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	if s.Status == history.StatusCompleted {
		fmt.Fprintln(out, renderStatusLine("Result", resultMarker(true), fmt.Sprintf("wrote %d bytes", s.OutputBytes), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Result", resultMarker(false), "aborted: "+s.Error, colorize))
	}
	if s.Manifest != "" {
		fmt.Fprintln(out, renderStatusLine("Manifest", markInfo, s.Manifest, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Output", markInfo, s.Output, colorize))
	fmt.Fprintln(out, renderStatusLine("Tag level", markInfo, fmt.Sprintf("%s (%d)", s.TagMode, s.TagLevel), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", markInfo, s.Duration().Round(time.Millisecond).String(), colorize))
	fmt.Fprintln(out, renderStatusLine("Diagnostics", worstMarker(s.Warnings, s.Errors), fmt.Sprintf("%d warnings, %d errors", s.Warnings, s.Errors), colorize))

	if len(s.Diagnostics) == 0 {
		return
	}
	fmt.Fprintln(out, renderDiagnostics(storedGroups(s.Diagnostics), colorize))
}

// storedGroups folds stored diagnostics the same way a live report is folded.
// Kind names this build does not know keep their stored severity and stay
// apart from each other.
func storedGroups(diags []history.Diagnostic) []diagnosticRow {
	records := make([]diag.Record, 0, len(diags))
	for _, d := range diags {
		rec := diag.Record{
			CompositionID: host.ID(d.CompositionID),
			LayerID:       host.ID(d.LayerID),
			Extra:         d.Extra,
		}
		kind, ok := diag.ParseKind(d.Kind)
		switch {
		case ok:
			rec.Kind = kind
		case d.Severity == diag.SeverityError.String():
			rec.Kind, rec.Extra = diag.UnknownError, d.Kind+"\x00"+d.Extra
		default:
			rec.Kind, rec.Extra = diag.UnknownWarning, d.Kind+"\x00"+d.Extra
		}
		records = append(records, rec)
	}

	entries := diag.Distinct(slices.Values(records))
	rows := make([]diagnosticRow, 0, len(entries))
	for _, e := range entries {
		first := diags[e.First]
		rows = append(rows, diagnosticRow{severity: e.Severity(), kind: first.Kind, message: first.Message, count: e.Count})
	}
	return rows
}

type sessionView struct {
	ID          string           `json:"id"`
	Manifest    string           `json:"manifest,omitempty"`
	Output      string           `json:"output"`
	Status      string           `json:"status"`
	TagMode     string           `json:"tag_mode"`
	TagLevel    int              `json:"tag_level"`
	Warnings    int              `json:"warnings"`
	Errors      int              `json:"errors"`
	Bytes       int64            `json:"bytes"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at,omitzero"`
	Diagnostics []diagnosticView `json:"diagnostics,omitempty"`
}

func newSessionView(s history.Session) sessionView {
	view := sessionView{
		ID:         s.ID,
		Manifest:   s.Manifest,
		Output:     s.Output,
		Status:     string(s.Status),
		TagMode:    s.TagMode,
		TagLevel:   s.TagLevel,
		Warnings:   s.Warnings,
		Errors:     s.Errors,
		Bytes:      s.OutputBytes,
		Error:      s.Error,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	for _, d := range s.Diagnostics {
		view.Diagnostics = append(view.Diagnostics, diagnosticView{
			Kind:          d.Kind,
			Severity:      d.Severity,
			CompositionID: d.CompositionID,
			LayerID:       d.LayerID,
			Extra:         d.Extra,
			Message:       d.Message,
		})
	}
	return view
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
