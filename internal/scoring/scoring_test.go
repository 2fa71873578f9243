package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/torosent/loanlens/internal/carousel"
	"github.com/torosent/loanlens/internal/dataset"
)

type identityScaler struct{}

func (identityScaler) Transform(x [][]float64) ([][]float64, error) { return x, nil }

// thresholdModel predicts a default when the first feature exceeds limit.
type thresholdModel struct{ limit float64 }

func (m thresholdModel) Predict(x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i, row := range x {
		if row[0] > m.limit {
			out[i] = 1
		}
	}
	return out, nil
}

type failingModel struct{}

func (failingModel) Predict([][]float64) ([]int, error) { return nil, errors.New("boom") }

func requestTable() *dataset.Table {
	return dataset.NewTable(
		[]string{"borrower", "person_income", "loan_amnt"},
		[][]string{
			{"Ada", "59000", "35000"},
			{"Bo", "9600", "oops"},
			{"Cy", "65500", "1000"},
		},
	)
}

func TestScoreBuildsCarouselInOrder(t *testing.T) {
	results, summary, err := Score(context.Background(), requestTable(), Options{
		Features: []string{"loan_amnt", "person_income"},
		Scaler:   identityScaler{},
		Model:    thresholdModel{limit: 10000},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if results.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", results.Len())
	}
	if summary.Scored != 2 || summary.Skipped != 1 || summary.Defaults != 1 || summary.Accepted != 1 {
		t.Errorf("summary = %+v", summary)
	}

	first, err := results.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if name, _ := first.Value("borrower"); name != "Ada" {
		t.Errorf("first borrower = %q, want Ada", name)
	}
	if first.Recommendation() != "Reject" {
		t.Errorf("first recommendation = %q, want Reject", first.Recommendation())
	}
	if got := len(first.Fields()); got != 3 {
		t.Errorf("len(Fields()) = %d, want 3", got)
	}

	_ = results.Next()
	second, _ := results.Current()
	if name, _ := second.Value("borrower"); name != "Cy" {
		t.Errorf("second borrower = %q, want Cy", name)
	}
	if second.Recommendation() != "Accept" {
		t.Errorf("second recommendation = %q, want Accept", second.Recommendation())
	}
}

func TestScoreNoValidRowsGivesEmptyCarousel(t *testing.T) {
	table := dataset.NewTable([]string{"loan_amnt"}, [][]string{{"x"}, {"y"}})
	results, summary, err := Score(context.Background(), table, Options{
		Features: []string{"loan_amnt"},
		Scaler:   identityScaler{},
		Model:    thresholdModel{},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if _, err := results.Current(); !errors.Is(err, carousel.ErrEmpty) {
		t.Errorf("Current() error = %v, want ErrEmpty", err)
	}
}

func TestScoreErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing model", Options{Features: []string{"loan_amnt"}, Scaler: identityScaler{}}},
		{"missing column", Options{Features: []string{"loan_int_rate"}, Scaler: identityScaler{}, Model: thresholdModel{}}},
		{"model failure", Options{Features: []string{"person_income"}, Scaler: identityScaler{}, Model: failingModel{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Score(context.Background(), requestTable(), tt.opts); err == nil {
				t.Errorf("Score() error = nil, want error")
			}
		})
	}
}
