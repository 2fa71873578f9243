package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/loanlens/internal/config"
	"github.com/torosent/loanlens/internal/logging"
	"github.com/torosent/loanlens/internal/pipeline"
	"github.com/torosent/loanlens/internal/scoring"
)

const trainHeader = "person_age,person_income,person_home_ownership,person_emp_length,loan_intent,loan_grade,loan_amnt,loan_int_rate,loan_status,loan_percent_income,cb_person_default_on_file,cb_person_cred_hist_length"

const requestHeader = "borrower,person_age,person_income,person_home_ownership,person_emp_length,loan_intent,loan_grade,loan_amnt,loan_int_rate,loan_percent_income,cb_person_default_on_file,cb_person_cred_hist_length"

// borrowers writes n rows where only loan_amnt separates defaults.
func borrowers(n int, extra ...string) string {
	incomes := []int{30000, 60000, 90000}
	history := []int{2, 5, 8}
	lines := []string{trainHeader}
	for i := 0; i < n; i++ {
		status, amount, home := 0, 1000+100*i, "RENT"
		if i%2 == 1 {
			status, amount = 1, 20000+100*i
		}
		if i%4 == 0 {
			home = "OWN"
		}
		lines = append(lines, fmt.Sprintf("%d,%d,%s,3.0,PERSONAL,B,%d,11.1,%d,0.2,N,%d",
			22+i%40, incomes[i%3], home, amount, status, history[(i/2)%3]))
	}
	lines = append(lines, extra...)
	return strings.Join(lines, "\n") + "\n"
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		TrainPath: writeFile(t, dir, "train.csv", borrowers(24,
			"95,50000,OWN,3.0,PERSONAL,B,1500,11.1,0,0.2,N,4",
			"30,50000,,3.0,PERSONAL,B,1500,11.1,0,0.2,N,4",
		)),
		TestPath: writeFile(t, dir, "test.csv", borrowers(10)),
		RequestsPath: writeFile(t, dir, "requests.csv", strings.Join([]string{
			requestHeader,
			"Ada,31,60000,RENT,4.0,EDUCATION,B,25000,11.5,0.4,Y,3",
			"Bo,45,90000,OWN,10.0,HOMEIMPROVEMENT,A,3000,7.5,0.03,N,12",
			"Cy,28,30000,RENT,1.0,VENTURE,C,abc,13.0,0.1,N,2",
		}, "\n")+"\n"),
		MaxAge:    90,
		AgeColumn: config.DefaultAgeColumn,
		Label:     config.DefaultLabelColumn,
		Features:  append([]string(nil), config.DefaultFeatures...),
		Tree:      config.TreeConfig{MinSamplesSplit: 2, Seed: 42},
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	res, err := pipeline.New(cfg, logger, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s := res.Summary

	if _, err := ulid.Parse(s.RunID); err != nil {
		t.Errorf("RunID %q is not a ULID: %v", s.RunID, err)
	}
	if s.Train.Kept != 25 || s.Train.Dropped != 1 {
		t.Errorf("Train load = %+v, want 25 kept and 1 dropped", s.Train)
	}
	if s.AgeFilter.Removed != 1 || s.AgeFilter.Remained != 24 {
		t.Errorf("AgeFilter = %+v", s.AgeFilter)
	}
	if s.Borrowers.Total != 24 || s.Borrowers.Defaulted != 12 {
		t.Errorf("Borrowers = %d total, %d defaulted", s.Borrowers.Total, s.Borrowers.Defaulted)
	}
	if s.Evaluation.Samples != 10 || s.Evaluation.Accuracy != 1 {
		t.Errorf("Evaluation = %d samples, accuracy %v", s.Evaluation.Samples, s.Evaluation.Accuracy)
	}
	if s.Tree.Leaves != 2 {
		t.Errorf("Tree = %+v, want a single split", s.Tree)
	}
	if s.Scoring.Scored != 2 || s.Scoring.Skipped != 1 || s.Scoring.Defaults != 1 {
		t.Errorf("Scoring = %+v", s.Scoring)
	}

	if res.Records.Len() != 2 {
		t.Fatalf("Records.Len() = %d, want 2", res.Records.Len())
	}
	first, err := res.Records.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if name, _ := first.Value("borrower"); name != "Ada" || first.Recommendation() != "Reject" {
		t.Errorf("first record = %s, %s", name, first.Recommendation())
	}
	if err := res.Records.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	second, _ := res.Records.Current()
	if name, _ := second.Value("borrower"); name != "Bo" || second.Recommendation() != "Accept" {
		t.Errorf("second record = %s, %s", name, second.Recommendation())
	}

	if !strings.Contains(logs.String(), s.RunID) || !strings.Contains(logs.String(), `"stage":"fit"`) {
		t.Errorf("logs missing run id or stage:\n%s", logs.String())
	}
}

func TestRunJSONRequests(t *testing.T) {
	cfg := testConfig(t)
	cfg.RequestsPath = writeFile(t, t.TempDir(), "requests.json", `[
		{"borrower": "Ada", "person_age": 31, "person_income": 60000, "loan_amnt": 25000, "cb_person_cred_hist_length": 3},
		{"borrower": "Bo", "person_age": 45, "person_income": 90000, "loan_amnt": 3000, "cb_person_cred_hist_length": 12}
	]`)

	res, err := pipeline.New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Summary.Scoring.Scored != 2 || res.Summary.Scoring.Defaults != 1 {
		t.Errorf("Scoring = %+v", res.Summary.Scoring)
	}
}

func TestRunNoValidRequests(t *testing.T) {
	cfg := testConfig(t)
	cfg.RequestsPath = writeFile(t, t.TempDir(), "requests.csv",
		requestHeader+"\nCy,28,30000,RENT,1.0,VENTURE,C,abc,13.0,0.1,N,2\n")

	res, err := pipeline.New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Records.Len() != 0 || res.Summary.Scoring.Skipped != 1 {
		t.Errorf("expected an empty carousel, got %d records, %+v", res.Records.Len(), res.Summary.Scoring)
	}
}

func TestRunRequestsEmptiedByCleaning(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantDropped int
	}{
		{"header only", requestHeader + "\n", 0},
		{"blank field", requestHeader + "\nCy,28,30000,RENT,,VENTURE,C,5000,13.0,0.1,N,2\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.RequestsPath = writeFile(t, t.TempDir(), "requests.csv", tt.content)

			res, err := pipeline.New(cfg, nil, nil).Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Records == nil || res.Records.Len() != 0 {
				t.Fatalf("Records = %v, want an empty carousel", res.Records)
			}
			if res.Summary.Scoring != (scoring.Summary{}) {
				t.Errorf("Scoring = %+v, want zero summary", res.Summary.Scoring)
			}
			if res.Summary.Requests.Dropped != tt.wantDropped || res.Summary.Requests.Kept != 0 {
				t.Errorf("Requests = %+v", res.Summary.Requests)
			}
		})
	}
}

func TestRunStageErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		prefix string
	}{
		{"missing train", func(c *config.Config) { c.TrainPath = filepath.Join(t.TempDir(), "nope.csv") }, "load_train:"},
		{"unknown feature", func(c *config.Config) { c.Features = []string{"shoe_size"} }, "fit:"},
		{"missing test", func(c *config.Config) { c.TestPath = filepath.Join(t.TempDir(), "nope.csv") }, "evaluate:"},
		{"missing requests", func(c *config.Config) { c.RequestsPath = filepath.Join(t.TempDir(), "nope.csv") }, "score:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			_, err := pipeline.New(cfg, nil, nil).Run(context.Background())
			if err == nil || !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Fatalf("Run() error = %v, want prefix %q", err, tt.prefix)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.New(testConfig(t), nil, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunEmitsStageSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	if _, err := pipeline.New(testConfig(t), nil, tp.Tracer("test")).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	names := map[string]bool{}
	for _, span := range exporter.GetSpans() {
		names[span.Name] = true
	}
	for _, want := range []string{"loanlens.run", "loanlens.load_train", "loanlens.stats", "loanlens.fit", "loanlens.evaluate", "loanlens.score"} {
		if !names[want] {
			t.Errorf("missing span %q in %v", want, names)
		}
	}
}
