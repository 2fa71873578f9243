package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torosent/loanlens/internal/config"
)

func fixtureArgs(extra ...string) []string {
	args := []string{
		"--train=testdata/train.csv",
		"--test=testdata/test.csv",
		"--requests=testdata/requests.csv",
	}
	return append(args, extra...)
}

func runWith(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, streams{
		in:  strings.NewReader(stdin),
		out: &stdout,
		err: &stderr,
	})
	return stdout.String(), stderr.String(), err
}

func TestRunHelp(t *testing.T) {
	if _, _, err := runWith(t, "", "--help"); err != nil {
		t.Fatalf("run(--help) error = %v, want nil", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	_, _, err := runWith(t, "", fixtureArgs("--max-age=0")...)
	if err == nil || !strings.Contains(err.Error(), "max age") {
		t.Fatalf("run() error = %v, want max age validation error", err)
	}
}

func TestRunMissingTrainingData(t *testing.T) {
	_, _, err := runWith(t, "", "--train=testdata/missing.csv", "--browse=none")
	if err == nil || !strings.HasPrefix(err.Error(), "load_train:") {
		t.Fatalf("run() error = %v, want load_train error", err)
	}
}

func TestRunLineBrowse(t *testing.T) {
	stdout, stderr, err := runWith(t, "\n1\n1\n0\n", fixtureArgs("--browse=line")...)
	if err != nil {
		t.Fatalf("run() error = %v\nstderr:\n%s", err, stderr)
	}

	wants := []string{
		"--- Loan Default Results",
		"removed 1 borrowers aged 90 or over",
		"Accuracy:         1.0000",
		msgCarouselBuilt,
		"Borrower: Ada",
		"Recommend: Reject",
		"Borrower: Bo",
		"Recommend: Accept",
		"Exiting.",
	}
	for _, want := range wants {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Borrower: Cy") {
		t.Errorf("unscorable request was shown:\n%s", stdout)
	}
	// Ada, Bo, then wrapped back to Ada.
	if got := strings.Count(stdout, "Borrower: Ada"); got != 2 {
		t.Errorf("Ada shown %d times, want 2", got)
	}
	if !strings.Contains(stderr, "carousel built with all predictions") {
		t.Errorf("stderr missing scoring log:\n%s", stderr)
	}
}

func TestRunNoValidRows(t *testing.T) {
	const header = "borrower,person_age,person_income,person_home_ownership,person_emp_length,loan_intent,loan_grade,loan_amnt,loan_int_rate,loan_percent_income,cb_person_default_on_file,cb_person_cred_hist_length\n"
	tests := []struct {
		name string
		data string
	}{
		{"unparsable feature", header + "Cy,28,30000,RENT,1.0,VENTURE,C,abc,13.0,0.1,N,2\n"},
		{"blank field", header + "Cy,28,30000,RENT,,VENTURE,C,5000,13.0,0.1,N,2\n"},
		{"header only", header},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := filepath.Join(t.TempDir(), "requests.csv")
			if err := os.WriteFile(requests, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}

			stdout, _, err := runWith(t, "\n", "--train=testdata/train.csv", "--test=testdata/test.csv",
				"--requests="+requests, "--browse=line")
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if !strings.Contains(stdout, msgNoValidRows) || !strings.Contains(stdout, "Empty carousel.") {
				t.Errorf("stdout = %s", stdout)
			}
		})
	}
}

func TestRunJSONWithReports(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "report.html")
	exportPath := filepath.Join(dir, "scored.json")

	stdout, _, err := runWith(t, "", fixtureArgs(
		"--json-output",
		"--html-output="+htmlPath,
		"--export="+exportPath,
		"--log-format=json",
	)...)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var report struct {
		RunID   string `json:"run_id"`
		Scoring struct {
			Scored int `json:"scored"`
		} `json:"scoring"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if report.RunID == "" || report.Scoring.Scored != 2 {
		t.Errorf("report = %+v", report)
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read html report: %v", err)
	}
	if !strings.Contains(string(html), "Loan Default Report") || !strings.Contains(string(html), report.RunID) {
		t.Errorf("html report missing title or run id")
	}

	exported, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var export struct {
		RunID   string           `json:"run_id"`
		Count   int              `json:"count"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(exported, &export); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if export.RunID != report.RunID || export.Count != 2 || export.Records[0]["borrower"] != "Ada" {
		t.Errorf("export = %+v", export)
	}
}

func TestResolveBrowse(t *testing.T) {
	pipe := streams{in: strings.NewReader(""), out: &bytes.Buffer{}}
	tests := []struct {
		name string
		cfg  config.Config
		want config.BrowseMode
	}{
		{"explicit tui", config.Config{Browse: config.BrowseTUI}, config.BrowseTUI},
		{"explicit line with json", config.Config{Browse: config.BrowseLine, JSONOutput: true}, config.BrowseLine},
		{"auto json", config.Config{Browse: config.BrowseAuto, JSONOutput: true}, config.BrowseNone},
		{"auto without terminal", config.Config{Browse: config.BrowseAuto}, config.BrowseLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveBrowse(&tt.cfg, pipe); got != tt.want {
				t.Errorf("resolveBrowse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunThresholds(t *testing.T) {
	stdout, stderr, err := runWith(t, "", fixtureArgs(
		"--browse=none",
		"--threshold=model:accuracy >= 0.9",
		"--threshold=scoring:skipped == 0",
	)...)
	if err == nil || err.Error() != "1 threshold(s) failed" {
		t.Fatalf("run() error = %v, want one failed threshold", err)
	}
	if !strings.Contains(stdout, "✓ model:accuracy >= 0.9") || !strings.Contains(stdout, "✗ scoring:skipped == 0") {
		t.Errorf("stdout missing threshold lines:\n%s", stdout)
	}
	if !strings.Contains(stderr, "threshold failed") {
		t.Errorf("stderr missing threshold warning:\n%s", stderr)
	}
}

func TestRunInvalidThreshold(t *testing.T) {
	_, _, err := runWith(t, "", fixtureArgs("--threshold=latency:p99 < 5")...)
	if err == nil || !strings.Contains(err.Error(), "unsupported metric") {
		t.Fatalf("run() error = %v, want threshold parse error", err)
	}
}
