package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/torosent/loanlens/internal/dataset"
	"github.com/torosent/loanlens/internal/metrics"
	"github.com/torosent/loanlens/internal/model"
	"github.com/torosent/loanlens/internal/scoring"
)

func sampleSummary(t *testing.T) Summary {
	t.Helper()
	eval, err := model.Evaluate([]int{0, 0, 1, 1, 0}, []int{0, 1, 1, 1, 0})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	c := metrics.NewCollector()
	c.RecordBorrower(metrics.Borrower{Age: 25, Income: 40000, HomeOwnership: "OWN", Defaulted: true})
	c.RecordBorrower(metrics.Borrower{Age: 45, Income: 90000, HomeOwnership: "RENT", Defaulted: false})

	return Summary{
		RunID:       "01HZYRUN",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Train:       dataset.LoadReport{Path: "train.csv", Kept: 10, Dropped: 2},
		Test:        dataset.LoadReport{Path: "test.csv", Kept: 5},
		Requests:    dataset.LoadReport{Path: "requests.csv", Kept: 3, Dropped: 1},
		AgeFilter:   dataset.AgeFilterResult{MaxAge: 90, Removed: 1, Skipped: 1, Remained: 8},
		Borrowers:   c.Stats(),
		Features:    []string{"loan_amnt", "person_income"},
		Tree:        TreeSummary{Depth: 3, Leaves: 5},
		Evaluation:  eval,
		Scoring:     scoring.Summary{Scored: 3, Defaults: 1, Accepted: 2},
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleSummary(t))

	out := buf.String()
	for _, want := range []string{
		"run 01HZYRUN",
		"train.csv (kept 10, dropped 2)",
		"removed 1 borrowers aged 90 or over, skipped 1 without an integer age, 8 remaining",
		"Default rate:     50.0%",
		"loan_amnt, person_income",
		"depth 3, 5 leaves",
		"Accuracy:         0.8000",
		"Classification Report:",
		"macro avg",
		"weighted avg",
		"Confusion Matrix",
		"True \\ Predicted",
		"Will default:     1",
		"Will not default: ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}

func TestPrintReportAlignsValues(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleSummary(t))

	const valueColumn = 20
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "   ") {
			continue
		}
		label, _, ok := strings.Cut(line, ":")
		if !ok || strings.ContainsAny(label, "│╭╰├") {
			continue
		}
		if len(line) <= valueColumn || line[valueColumn-1] != ' ' || line[valueColumn] == ' ' {
			t.Errorf("value not at column %d: %q", valueColumn, line)
		}
	}
}

func TestPrintReportWithoutEvaluation(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, Summary{RunID: "x"})
	if strings.Contains(buf.String(), "Classification Report") {
		t.Errorf("expected no classification table without evaluation")
	}
}

func TestClassificationTable(t *testing.T) {
	s := sampleSummary(t)
	out := ClassificationTable(s.Evaluation)

	for _, want := range []string{"CLASS", "PRECISION", "SUPPORT", "0.67", "1.00"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("classification table missing %q\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines < 7 {
		t.Errorf("expected header, 4 rows and borders, got %d lines\n%s", lines, out)
	}
}

func TestConfusionTable(t *testing.T) {
	out := ConfusionTable(sampleSummary(t).Evaluation)
	// true 0: two correct, one predicted 1; true 1: both correct.
	rows := strings.Split(out, "\n")
	var found0, found1 bool
	for _, row := range rows {
		fields := strings.Fields(strings.NewReplacer("│", " ", "|", " ").Replace(row))
		if len(fields) == 3 && fields[0] == "0" {
			found0 = fields[1] == "2" && fields[2] == "1"
		}
		if len(fields) == 3 && fields[0] == "1" {
			found1 = fields[1] == "0" && fields[2] == "2"
		}
	}
	if !found0 || !found1 {
		t.Errorf("confusion rows not found\n%s", out)
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleSummary(t)); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["run_id"] != "01HZYRUN" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	for _, key := range []string{"train", "age_filter", "borrowers", "evaluation", "scoring", "tree"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	eval := decoded["evaluation"].(map[string]interface{})
	if eval["accuracy"].(float64) != 0.8 {
		t.Errorf("accuracy = %v", eval["accuracy"])
	}
}
