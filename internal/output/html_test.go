package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/torosent/loanlens/internal/metrics"
)

func TestGenerateHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, sampleSummary(t)); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Run: 01HZYRUN",
		"2024-03-01T12:00:00Z",
		"Loans in Default",
		"Loans Not in Default",
		"Homeowners: Default vs Not Defaulted",
		"Defaulted 1",
		"weighted avg",
		"loan_amnt, person_income",
		"train.csv",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(html), "</html>") {
		t.Error("HTML report not terminated")
	}
}

func TestGenerateHTMLReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, Summary{}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "No borrowers") || !strings.Contains(html, "No homeowners") {
		t.Error("expected empty-state placeholders")
	}
}

func TestGenerateHTMLReportEscapes(t *testing.T) {
	s := sampleSummary(t)
	s.Train.Path = "<script>alert(1)</script>.csv"

	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, s); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)") {
		t.Error("path was not escaped")
	}
}

func TestAgeBars(t *testing.T) {
	bars := ageBars([]metrics.AgeBin{
		{Low: 20, High: 30, Defaulted: 2, NotDefaulted: 4},
		{Low: 30, High: 40, Defaulted: 1, NotDefaulted: 0},
	})
	if len(bars) != 2 || bars[0].Label != "20-30" {
		t.Fatalf("ageBars() = %+v", bars)
	}
	if bars[0].NotDefaultedWidth != 100 || bars[0].DefaultedWidth != 50 || bars[1].DefaultedWidth != 25 {
		t.Errorf("widths = %+v", bars)
	}

	empty := ageBars([]metrics.AgeBin{{Low: 20, High: 30}})
	if empty[0].DefaultedWidth != 0 {
		t.Errorf("expected zero width without data")
	}
}

func TestHomeownerShares(t *testing.T) {
	d, r := homeownerShares(metrics.HomeOwners{Defaulted: 1, NotDefaulted: 3})
	if d != 25 || r != 75 {
		t.Errorf("homeownerShares() = %v, %v", d, r)
	}
	if d, r := homeownerShares(metrics.HomeOwners{}); d != 0 || r != 0 {
		t.Errorf("empty homeownerShares() = %v, %v", d, r)
	}
}
