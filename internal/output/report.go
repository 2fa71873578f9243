// Package output renders run summaries as text, JSON and HTML and exports
// scored loan requests.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/torosent/loanlens/internal/dataset"
	"github.com/torosent/loanlens/internal/metrics"
	"github.com/torosent/loanlens/internal/model"
	"github.com/torosent/loanlens/internal/scoring"
)

// TreeSummary describes the fitted decision tree.
type TreeSummary struct {
	Depth  int `json:"depth"`
	Leaves int `json:"leaves"`
}

// Summary is everything a run reports.
type Summary struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Train       dataset.LoadReport      `json:"train"`
	Test        dataset.LoadReport      `json:"test"`
	Requests    dataset.LoadReport      `json:"requests"`
	AgeFilter   dataset.AgeFilterResult `json:"age_filter"`
	Borrowers   metrics.Stats           `json:"borrowers"`
	Features    []string                `json:"features"`
	Tree        TreeSummary             `json:"tree"`
	Evaluation  model.Evaluation        `json:"evaluation"`
	Scoring     scoring.Summary         `json:"scoring"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n--- Loan Default Results (run %s) ---\n", s.RunID)
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "Generated:          %s\n", s.GeneratedAt.Format(time.RFC3339))
	}

	fmt.Fprintln(w, "\nData Cleaning:")
	writeLoad(w, "Train", s.Train)
	writeLoad(w, "Test", s.Test)
	writeLoad(w, "Requests", s.Requests)
	fmt.Fprintf(w, "  Age filter:       removed %d borrowers aged %d or over", s.AgeFilter.Removed, s.AgeFilter.MaxAge)
	if s.AgeFilter.Skipped > 0 {
		fmt.Fprintf(w, ", skipped %d without an integer age", s.AgeFilter.Skipped)
	}
	fmt.Fprintf(w, ", %d remaining\n", s.AgeFilter.Remained)

	b := s.Borrowers
	fmt.Fprintln(w, "\nTraining Borrowers:")
	fmt.Fprintf(w, "  Total:            %d\n", b.Total)
	fmt.Fprintf(w, "  Defaulted:        %d\n", b.Defaulted)
	fmt.Fprintf(w, "  Not defaulted:    %d\n", b.NotDefaulted)
	fmt.Fprintf(w, "  Default rate:     %.1f%%\n", b.DefaultRate*100)
	fmt.Fprintf(w, "  Age:              %s\n", formatSummary(b.Age, "%.0f"))
	fmt.Fprintf(w, "  Income:           %s\n", formatSummary(b.Income, "$%.0f"))
	fmt.Fprintf(w, "  Homeowners:       %d defaulted, %d not defaulted\n", b.HomeOwners.Defaulted, b.HomeOwners.NotDefaulted)

	fmt.Fprintln(w, "\nModel:")
	fmt.Fprintf(w, "  Features:         %s\n", strings.Join(s.Features, ", "))
	fmt.Fprintf(w, "  Tree:             depth %d, %d leaves\n", s.Tree.Depth, s.Tree.Leaves)
	fmt.Fprintf(w, "  Test samples:     %d\n", s.Evaluation.Samples)
	fmt.Fprintf(w, "  Accuracy:         %.4f\n", s.Evaluation.Accuracy)

	if len(s.Evaluation.Classes) > 0 {
		fmt.Fprintln(w, "\nClassification Report:")
		fmt.Fprintln(w, ClassificationTable(s.Evaluation))
		fmt.Fprintln(w, "\nConfusion Matrix (rows true, columns predicted):")
		fmt.Fprintln(w, ConfusionTable(s.Evaluation))
	}

	fmt.Fprintln(w, "\nScoring:")
	fmt.Fprintf(w, "  Scored:           %d\n", s.Scoring.Scored)
	fmt.Fprintf(w, "  Skipped:          %d\n", s.Scoring.Skipped)
	fmt.Fprintf(w, "  Will default:     %d\n", s.Scoring.Defaults)
	fmt.Fprintf(w, "  Will not default: %d\n", s.Scoring.Accepted)
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ClassificationTable renders per-class precision, recall, F1 and support
// followed by the macro and weighted averages.
func ClassificationTable(e model.Evaluation) string {
	rows := make([][]string, 0, len(e.Classes)+2)
	for _, c := range append(append([]model.ClassMetrics(nil), e.Classes...), e.MacroAvg, e.WeightedAvg) {
		rows = append(rows, []string{
			c.Label,
			strconv.FormatFloat(c.Precision, 'f', 2, 64),
			strconv.FormatFloat(c.Recall, 'f', 2, 64),
			strconv.FormatFloat(c.F1, 'f', 2, 64),
			strconv.Itoa(c.Support),
		})
	}
	return renderTable(
		[]string{"Class", "Precision", "Recall", "F1", "Support"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignRight},
	)
}

// ConfusionTable renders the confusion matrix with true labels as rows.
func ConfusionTable(e model.Evaluation) string {
	headers := make([]string, 0, len(e.Labels)+1)
	headers = append(headers, "True \\ Predicted")
	aligns := []text.Align{text.AlignLeft}
	for _, l := range e.Labels {
		headers = append(headers, strconv.Itoa(l))
		aligns = append(aligns, text.AlignRight)
	}
	rows := make([][]string, 0, len(e.Confusion))
	for i, counts := range e.Confusion {
		row := []string{strconv.Itoa(e.Labels[i])}
		for _, n := range counts {
			row = append(row, strconv.Itoa(n))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func writeLoad(w io.Writer, name string, r dataset.LoadReport) {
	if r.Path == "" {
		return
	}
	fmt.Fprintf(w, "  %-17s %s (kept %d, dropped %d)\n", name+":", r.Path, r.Kept, r.Dropped)
}

func formatSummary(s metrics.Summary, format string) string {
	f := func(v float64) string { return fmt.Sprintf(format, v) }
	return fmt.Sprintf("min %s | mean %s | p50 %s | p90 %s | p99 %s | max %s",
		f(s.Min), f(s.Mean), f(s.P50), f(s.P90), f(s.P99), f(s.Max))
}
