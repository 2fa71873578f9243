// Package threshold implements quality gates checked against a finished run,
// such as "model:accuracy >= 0.8" or "scoring:default_rate < 0.5".
package threshold

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/torosent/loanlens/internal/output"
)

var pattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9_]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Supported metric and aggregate pairs.
var aggregates = map[string][]string{
	"model":     {"accuracy", "precision", "recall", "f1", "samples"},
	"scoring":   {"count", "skipped", "default_rate"},
	"borrowers": {"count", "default_rate"},
}

var operators = []string{"<", "<=", ">", ">=", "=="}

// Threshold represents a quality assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "model", "scoring" or "borrowers"
	Aggregate string  // e.g. "accuracy", "default_rate", "count"
	Operator  string  // "<", "<=", ">", ">=" or "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold `json:"-"`
	Raw       string    `json:"threshold"`
	Actual    float64   `json:"actual"`
	Pass      bool      `json:"pass"`
	Message   string    `json:"message"`
}

// Evaluator evaluates thresholds against a run summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against s.
func (e *Evaluator) Evaluate(s output.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, s))
	}
	return results
}

func evaluateOne(t Threshold, s output.Summary) Result {
	actual, err := extractValue(t, s)
	if err != nil {
		return Result{Threshold: t, Raw: t.Raw, Message: fmt.Sprintf("error: %v", err)}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Raw:       t.Raw,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.4f %s %.4f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

// PrintResults writes one line per result under a heading.
func PrintResults(w io.Writer, results []Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "Thresholds")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	fmt.Fprintln(w)
}

// Parse parses a threshold string into a Threshold.
// Supported formats:
// - "model:accuracy >= 0.8"         (fraction of test rows predicted correctly)
// - "model:f1 > 0.5"                (macro averaged precision, recall or F1)
// - "scoring:default_rate < 0.5"    (share of requests predicted to default)
// - "scoring:skipped == 0"          (requests that could not be scored)
// - "borrowers:count >= 1000"       (training borrowers after cleaning)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'model:accuracy >= 0.8')", s)
	}
	metric, aggregate, operator, valueStr := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	valid, ok := aggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: model, scoring, borrowers)", metric)
	}
	if !slices.Contains(valid, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(valid, ", "))
	}
	if !slices.Contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

func extractValue(t Threshold, s output.Summary) (float64, error) {
	switch t.Metric {
	case "model":
		return extractModel(t.Aggregate, s)
	case "scoring":
		return extractScoring(t.Aggregate, s)
	case "borrowers":
		return extractBorrowers(t.Aggregate, s)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractModel(aggregate string, s output.Summary) (float64, error) {
	e := s.Evaluation
	switch aggregate {
	case "accuracy":
		return e.Accuracy, nil
	case "precision":
		return e.MacroAvg.Precision, nil
	case "recall":
		return e.MacroAvg.Recall, nil
	case "f1":
		return e.MacroAvg.F1, nil
	case "samples":
		return float64(e.Samples), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for model", aggregate)
	}
}

func extractScoring(aggregate string, s output.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(s.Scoring.Scored), nil
	case "skipped":
		return float64(s.Scoring.Skipped), nil
	case "default_rate":
		if s.Scoring.Scored == 0 {
			return 0, nil
		}
		return float64(s.Scoring.Defaults) / float64(s.Scoring.Scored), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for scoring", aggregate)
	}
}

func extractBorrowers(aggregate string, s output.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(s.Borrowers.Total), nil
	case "default_rate":
		return s.Borrowers.DefaultRate, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for borrowers", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
