package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/handlers"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printPushResult(w io.Writer, r *handlers.PushResult) error {
	tw := newTabWriter(w)
	tw.writef("Invocation:\t%s\n", r.InvocationID)
	tw.writef("Outcome:\t%s\n", r.Outcome)
	if r.Record != "" {
		tw.writef("Record:\t%s\n", r.Record)
	}
	if r.Version != "" {
		tw.writef("Version:\t%s\n", r.Version)
	}
	if r.State != nil {
		tw.writef("Interval:\t%s\n", formatInterval(r.State.LastInterval))
		tw.writef("Threshold:\t%g%%\n", r.State.LastThreshold)
	}
	if r.Outcome == "notified" {
		tw.writef("Delivered:\t%v\n", r.Delivered)
	}
	return tw.finish()
}

func printState(w io.Writer, s *handlers.StateBody) error {
	tw := newTabWriter(w)
	tw.writef("Project:\t%s\n", s.Key.ProjectID)
	tw.writef("Topic:\t%s\n", s.Key.TopicID)
	tw.writef("Billing account:\t%s\n", s.Key.BillingAccountID)
	tw.writef("Budget:\t%s\n", s.Key.BudgetID)
	tw.writef("Interval:\t%s\n", formatInterval(s.State.LastInterval))
	tw.writef("Threshold:\t%g%%\n", s.State.LastThreshold)
	return tw.finish()
}

func formatInterval(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
