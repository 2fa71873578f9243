// Package dashboard renders terminal charts of the cleaned training data.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/loanlens/internal/metrics"
)

// Chart titles.
const (
	TitleDefaulted    = "Loans in Default"
	TitleNotDefaulted = "Loans Not in Default"
	TitleHomeowners   = "Homeowners: Default vs Not Defaulted"
)

// Dashboard shows borrower statistics until the user closes it.
type Dashboard struct {
	mu    sync.Mutex
	stats metrics.Stats

	grid         *ui.Grid
	defaultBars  *widgets.BarChart
	repaidBars   *widgets.BarChart
	homeowners   *widgets.PieChart
	summaryPara  *widgets.Paragraph
	homeownerKey *widgets.Paragraph
}

// Show initialises the terminal, draws the charts and blocks until q, esc or
// ctrl+c is pressed or ctx is cancelled.
func Show(ctx context.Context, stats metrics.Stats) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize termui: %w", err)
	}
	defer ui.Close()

	d := newDashboard(stats)
	termWidth, termHeight := ui.TerminalDimensions()
	d.setupGrid(termWidth, termHeight)
	d.render()

	uiEvents := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<Escape>", "<C-c>":
				return nil
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.setupGrid(payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		}
	}
}

func newDashboard(stats metrics.Stats) *Dashboard {
	d := &Dashboard{stats: stats}
	d.initWidgets()
	return d
}

// initWidgets fills every widget from the stats snapshot.
func (d *Dashboard) initWidgets() {
	labels := binLabels(d.stats.AgeBins)

	d.defaultBars = widgets.NewBarChart()
	d.defaultBars.Title = TitleDefaulted
	d.defaultBars.Labels = labels
	d.defaultBars.Data = binCounts(d.stats.AgeBins, true)
	d.defaultBars.BarColors = []ui.Color{ui.ColorRed}
	d.defaultBars.NumStyles = []ui.Style{ui.NewStyle(ui.ColorWhite)}
	d.defaultBars.BarWidth = 6
	d.defaultBars.BorderStyle.Fg = ui.ColorCyan

	d.repaidBars = widgets.NewBarChart()
	d.repaidBars.Title = TitleNotDefaulted
	d.repaidBars.Labels = labels
	d.repaidBars.Data = binCounts(d.stats.AgeBins, false)
	d.repaidBars.BarColors = []ui.Color{ui.ColorGreen}
	d.repaidBars.NumStyles = []ui.Style{ui.NewStyle(ui.ColorBlack)}
	d.repaidBars.BarWidth = 6
	d.repaidBars.BorderStyle.Fg = ui.ColorCyan

	d.homeowners = widgets.NewPieChart()
	d.homeowners.Title = TitleHomeowners
	d.homeowners.Data = pieData(d.stats.HomeOwners)
	d.homeowners.Colors = []ui.Color{ui.ColorRed, ui.ColorGreen}
	d.homeowners.AngleOffset = -.5 * 3.141592653589793
	d.homeowners.LabelFormatter = func(i int, v float64) string {
		return pieLabel(d.stats.HomeOwners, i)
	}
	d.homeowners.BorderStyle.Fg = ui.ColorCyan

	d.homeownerKey = widgets.NewParagraph()
	d.homeownerKey.Title = "Homeowners"
	d.homeownerKey.Text = homeownerText(d.stats.HomeOwners)
	d.homeownerKey.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Training Data (press q to close)"
	d.summaryPara.Text = summaryText(d.stats)
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, width, height)
	d.grid.Set(
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.4,
			ui.NewCol(0.5, d.defaultBars),
			ui.NewCol(0.5, d.repaidBars),
		),
		ui.NewRow(0.4,
			ui.NewCol(0.65, d.homeowners),
			ui.NewCol(0.35, d.homeownerKey),
		),
	)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func binLabels(bins []metrics.AgeBin) []string {
	labels := make([]string, len(bins))
	for i, b := range bins {
		labels[i] = fmt.Sprintf("%d-%d", b.Low, b.High)
	}
	return labels
}

func binCounts(bins []metrics.AgeBin, defaulted bool) []float64 {
	data := make([]float64, len(bins))
	for i, b := range bins {
		if defaulted {
			data[i] = float64(b.Defaulted)
		} else {
			data[i] = float64(b.NotDefaulted)
		}
	}
	return data
}

// pieData never returns an all-zero slice; termui divides by the total.
func pieData(h metrics.HomeOwners) []float64 {
	if h.Defaulted+h.NotDefaulted == 0 {
		return []float64{1}
	}
	return []float64{float64(h.Defaulted), float64(h.NotDefaulted)}
}

func pieLabel(h metrics.HomeOwners, i int) string {
	total := h.Defaulted + h.NotDefaulted
	if total == 0 {
		return "no homeowners"
	}
	count, name := h.Defaulted, "Defaulted"
	if i == 1 {
		count, name = h.NotDefaulted, "Not Defaulted"
	}
	return fmt.Sprintf("%s %.1f%%", name, 100*float64(count)/float64(total))
}

func homeownerText(h metrics.HomeOwners) string {
	return fmt.Sprintf("[Defaulted:](fg:red)     %d\n[Not Defaulted:](fg:green) %d", h.Defaulted, h.NotDefaulted)
}

func summaryText(stats metrics.Stats) string {
	lines := []string{
		fmt.Sprintf("Borrowers: %d | Defaulted: %d | Not Defaulted: %d | Default Rate: %.1f%%",
			stats.Total, stats.Defaulted, stats.NotDefaulted, stats.DefaultRate*100),
		fmt.Sprintf("Age:    min %.0f | mean %.1f | p50 %.0f | p90 %.0f | max %.0f",
			stats.Age.Min, stats.Age.Mean, stats.Age.P50, stats.Age.P90, stats.Age.Max),
		fmt.Sprintf("Income: min %.0f | mean %.0f | p50 %.0f | p90 %.0f | max %.0f",
			stats.Income.Min, stats.Income.Mean, stats.Income.P50, stats.Income.P90, stats.Income.Max),
	}
	return strings.Join(lines, "\n")
}
