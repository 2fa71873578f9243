// Package browser lets a user step through scored loan requests, either as a
// line-oriented prompt loop or as a bubbletea TUI.
package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/torosent/loanlens/internal/record"
)

// Separator frames every card in line mode.
var Separator = strings.Repeat("-", 55)

// Navigator is the part of the carousel the browser drives.
type Navigator interface {
	Current() (record.Record, error)
	Next() error
	Previous() error
	Len() int
	Position() (int, bool)
}

// CardLine is one labelled value on a loan card.
type CardLine struct {
	Label string
	Value string
}

// Card returns the borrower and loan lines shown for r. Missing columns
// render as empty values.
func Card(r record.Record) []CardLine {
	v := func(name string) string {
		s, _ := r.Value(name)
		return s
	}
	defaults := "No"
	if v("cb_person_default_on_file") == "Y" {
		defaults = "Yes"
	}
	return []CardLine{
		{"Borrower", v("borrower")},
		{"Age", v("person_age")},
		{"Income", "$" + v("person_income")},
		{"Home_ownership", v("person_home_ownership")},
		{"Employment", v("person_emp_length")},
		{"Loan intent", v("loan_intent")},
		{"Loan grade", v("loan_grade")},
		{"Amount", "$" + v("loan_amnt")},
		{"Interest Rate", v("loan_int_rate")},
		{"Loan percent income", v("loan_percent_income")},
		{"Historical Defaults", defaults},
		{"Credit History", v("cb_person_cred_hist_length") + " years"},
	}
}

// PredictionLine is the predicted status sentence for r.
func PredictionLine(r record.Record) string {
	return "Predicted loan_status: " + r.Outcome()
}

// RecommendLine is the recommendation sentence for r.
func RecommendLine(r record.Record) string {
	return "Recommend: " + r.Recommendation()
}

// RenderRecord writes the line-mode card for r.
func RenderRecord(w io.Writer, r record.Record) error {
	var b strings.Builder
	b.WriteString("\n" + Separator + "\n")
	for _, line := range Card(r) {
		fmt.Fprintf(&b, "%s: %s\n", line.Label, line.Value)
	}
	b.WriteString(Separator + "\n")
	b.WriteString(PredictionLine(r) + "\n")
	b.WriteString(RecommendLine(r) + "\n")
	b.WriteString(Separator + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
