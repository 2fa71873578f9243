package metrics

import (
	"context"
	"strings"
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/loanlens/internal/dataset"
)

// AgeBinEdges are the histogram edges used for the age charts. Every bin is
// half-open except the last, which includes its upper edge.
var AgeBinEdges = []int{20, 30, 40, 50, 60, 70, 80, 90}

// HomeOwnershipOwn is the home ownership category tracked separately.
const HomeOwnershipOwn = "OWN"

// Borrower is the subset of a training row the collector needs.
type Borrower struct {
	Age           int
	Income        float64
	HomeOwnership string
	Defaulted     bool
}

// Collector aggregates borrower statistics in a thread-safe manner.
type Collector struct {
	mu           sync.Mutex
	ages         *hdrhistogram.Histogram
	incomes      *hdrhistogram.Histogram
	defaulted    int64
	notDefaulted int64
	ageSum       int64
	incomeSum    float64
	ownDefault   int64
	ownRepaid    int64
	binDefault   []int
	binRepaid    []int
}

// Summary describes the distribution of one numeric attribute.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P99  float64 `json:"p99"`
}

// AgeBin is one bar of the age histogram.
type AgeBin struct {
	Low          int `json:"low"`
	High         int `json:"high"`
	Defaulted    int `json:"defaulted"`
	NotDefaulted int `json:"not_defaulted"`
}

// HomeOwners splits borrowers who own their home by outcome.
type HomeOwners struct {
	Defaulted    int64 `json:"defaulted"`
	NotDefaulted int64 `json:"not_defaulted"`
}

// Stats represents aggregated borrower statistics.
type Stats struct {
	Total        int64      `json:"total"`
	Defaulted    int64      `json:"defaulted"`
	NotDefaulted int64      `json:"not_defaulted"`
	DefaultRate  float64    `json:"default_rate"`
	Age          Summary    `json:"age"`
	Income       Summary    `json:"income"`
	AgeBins      []AgeBin   `json:"age_bins"`
	HomeOwners   HomeOwners `json:"home_owners"`
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	// Ages up to 200 years and incomes up to one billion with 3 significant figures.
	return &Collector{
		ages:       hdrhistogram.New(1, 200, 3),
		incomes:    hdrhistogram.New(1, 1_000_000_000, 3),
		binDefault: make([]int, len(AgeBinEdges)-1),
		binRepaid:  make([]int, len(AgeBinEdges)-1),
	}
}

// RecordBorrower adds one borrower to the aggregates.
func (c *Collector) RecordBorrower(b Borrower) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ages.RecordValue(clamp(int64(b.Age), c.ages))
	_ = c.incomes.RecordValue(clamp(int64(b.Income), c.incomes))
	c.ageSum += int64(b.Age)
	c.incomeSum += b.Income

	if b.Defaulted {
		c.defaulted++
	} else {
		c.notDefaulted++
	}

	if strings.EqualFold(strings.TrimSpace(b.HomeOwnership), HomeOwnershipOwn) {
		if b.Defaulted {
			c.ownDefault++
		} else {
			c.ownRepaid++
		}
	}

	if bin := ageBin(b.Age); bin >= 0 {
		if b.Defaulted {
			c.binDefault[bin]++
		} else {
			c.binRepaid[bin]++
		}
	}
}

func clamp(v int64, h *hdrhistogram.Histogram) int64 {
	if v < h.LowestTrackableValue() {
		return h.LowestTrackableValue()
	}
	if v > h.HighestTrackableValue() {
		return h.HighestTrackableValue()
	}
	return v
}

// ageBin returns the index of the bin holding age, or -1 when out of range.
func ageBin(age int) int {
	last := len(AgeBinEdges) - 1
	if age < AgeBinEdges[0] || age > AgeBinEdges[last] {
		return -1
	}
	for i := 0; i < last; i++ {
		if age < AgeBinEdges[i+1] {
			return i
		}
	}
	return last - 1
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.defaulted + c.notDefaulted
	stats := Stats{
		Total:        total,
		Defaulted:    c.defaulted,
		NotDefaulted: c.notDefaulted,
		HomeOwners: HomeOwners{
			Defaulted:    c.ownDefault,
			NotDefaulted: c.ownRepaid,
		},
	}

	if total > 0 {
		stats.DefaultRate = float64(c.defaulted) / float64(total)
		stats.Age = summarize(c.ages, float64(c.ageSum)/float64(total))
		stats.Income = summarize(c.incomes, c.incomeSum/float64(total))
	}

	stats.AgeBins = make([]AgeBin, len(c.binDefault))
	for i := range c.binDefault {
		stats.AgeBins[i] = AgeBin{
			Low:          AgeBinEdges[i],
			High:         AgeBinEdges[i+1],
			Defaulted:    c.binDefault[i],
			NotDefaulted: c.binRepaid[i],
		}
	}

	return stats
}

func summarize(h *hdrhistogram.Histogram, mean float64) Summary {
	if h.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Min:  float64(h.Min()),
		Max:  float64(h.Max()),
		Mean: mean,
		P50:  float64(h.ValueAtQuantile(50)),
		P90:  float64(h.ValueAtQuantile(90)),
		P99:  float64(h.ValueAtQuantile(99)),
	}
}

// Columns names the table columns CollectTable reads.
type Columns struct {
	Age           string
	Income        string
	HomeOwnership string
	Label         string
}

// DefaultColumns matches the credit risk dataset header.
var DefaultColumns = Columns{
	Age:           "person_age",
	Income:        "person_income",
	HomeOwnership: "person_home_ownership",
	Label:         "loan_status",
}

// CollectTable records every row of t whose age, income and label parse.
// It returns the number of rows skipped.
func (c *Collector) CollectTable(ctx context.Context, t *dataset.Table, cols Columns) (int, error) {
	idx, err := t.Require(cols.Age, cols.Income, cols.HomeOwnership, cols.Label)
	if err != nil {
		return 0, err
	}

	skipped := 0
	for i, row := range t.Rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return skipped, err
			}
		}
		age, err := dataset.ParseLabel(row[idx[0]])
		if err != nil {
			skipped++
			continue
		}
		income, err := dataset.ParseFloat(row[idx[1]])
		if err != nil {
			skipped++
			continue
		}
		label, err := dataset.ParseLabel(row[idx[3]])
		if err != nil || (label != 0 && label != 1) {
			skipped++
			continue
		}
		c.RecordBorrower(Borrower{
			Age:           age,
			Income:        income,
			HomeOwnership: row[idx[2]],
			Defaulted:     label == 1,
		})
	}
	return skipped, nil
}
