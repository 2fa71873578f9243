package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/loanlens/internal/metrics"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt string
	Summary     Summary
	AgeBars     []AgeBar
	OwnDefault  float64
	OwnRepaid   float64
}

// AgeBar is one row of the age histogram with widths relative to the
// largest bin count.
type AgeBar struct {
	Label             string
	Defaulted         int
	NotDefaulted      int
	DefaultedWidth    float64
	NotDefaultedWidth float64
}

// GenerateHTMLReport generates a standalone HTML report with CSS bar charts.
func GenerateHTMLReport(w io.Writer, s Summary) error {
	generated := s.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	ownDefault, ownRepaid := homeownerShares(s.Borrowers.HomeOwners)
	data := HTMLReportData{
		GeneratedAt: generated.Format(time.RFC3339),
		Summary:     s,
		AgeBars:     ageBars(s.Borrowers.AgeBins),
		OwnDefault:  ownDefault,
		OwnRepaid:   ownRepaid,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(f float64) string {
			return fmt.Sprintf("%.1f", f*100)
		},
		"label": func(labels []int, i int) int {
			return labels[i]
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func ageBars(bins []metrics.AgeBin) []AgeBar {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Defaulted, b.NotDefaulted)
	}
	bars := make([]AgeBar, len(bins))
	for i, b := range bins {
		bars[i] = AgeBar{
			Label:        fmt.Sprintf("%d-%d", b.Low, b.High),
			Defaulted:    b.Defaulted,
			NotDefaulted: b.NotDefaulted,
		}
		if peak > 0 {
			bars[i].DefaultedWidth = 100 * float64(b.Defaulted) / float64(peak)
			bars[i].NotDefaultedWidth = 100 * float64(b.NotDefaulted) / float64(peak)
		}
	}
	return bars
}

func homeownerShares(h metrics.HomeOwners) (float64, float64) {
	total := h.Defaulted + h.NotDefaulted
	if total == 0 {
		return 0, 0
	}
	d := 100 * float64(h.Defaulted) / float64(total)
	return d, 100 - d
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Loan Default Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #1e3a8a 0%, #0f766e 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #1e3a8a;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value { font-size: 2rem; font-weight: bold; }
        .card .subvalue { font-size: 0.85rem; color: #6c757d; margin-top: 5px; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .section { margin-bottom: 40px; }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e5e7eb; }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
        }
        .bars td.label { width: 80px; font-weight: 600; }
        .bar { height: 18px; border-radius: 3px; display: inline-block; vertical-align: middle; }
        .bar.default { background: #ef4444; }
        .bar.repaid { background: #10b981; }
        .count { margin-left: 8px; font-size: 0.85rem; color: #4b5563; }
        .split { display: flex; height: 28px; border-radius: 6px; overflow: hidden; }
        .split div { color: white; font-size: 0.85rem; padding: 4px 8px; white-space: nowrap; }
        .no-data { text-align: center; padding: 40px; color: #6c757d; font-style: italic; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Loan Default Report</h1>
            <div class="meta">Run: {{.Summary.RunID}} | Generated: {{.GeneratedAt}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Training Borrowers</h3>
                    <div class="value">{{.Summary.Borrowers.Total}}</div>
                    <div class="subvalue">{{.Summary.AgeFilter.Removed}} removed by age filter</div>
                </div>
                <div class="card error">
                    <h3>Defaulted</h3>
                    <div class="value">{{.Summary.Borrowers.Defaulted}}</div>
                    <div class="subvalue">{{formatPercent .Summary.Borrowers.DefaultRate}}%</div>
                </div>
                <div class="card success">
                    <h3>Accuracy</h3>
                    <div class="value">{{formatFloat .Summary.Evaluation.Accuracy}}</div>
                    <div class="subvalue">{{.Summary.Evaluation.Samples}} test samples</div>
                </div>
                <div class="card">
                    <h3>Requests Scored</h3>
                    <div class="value">{{.Summary.Scoring.Scored}}</div>
                    <div class="subvalue">{{.Summary.Scoring.Defaults}} rejected, {{.Summary.Scoring.Accepted}} accepted</div>
                </div>
            </div>

            <div class="section">
                <h2>Age Distribution</h2>
                {{if .AgeBars}}
                <table class="bars">
                    <thead>
                        <tr><th>Age</th><th>Loans in Default</th><th>Loans Not in Default</th></tr>
                    </thead>
                    <tbody>
                        {{range .AgeBars}}
                        <tr>
                            <td class="label">{{.Label}}</td>
                            <td><span class="bar default" style="width: {{formatFloat .DefaultedWidth}}%"></span><span class="count">{{.Defaulted}}</span></td>
                            <td><span class="bar repaid" style="width: {{formatFloat .NotDefaultedWidth}}%"></span><span class="count">{{.NotDefaulted}}</span></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <div class="no-data">No borrowers</div>
                {{end}}
            </div>

            <div class="section">
                <h2>Homeowners: Default vs Not Defaulted</h2>
                {{if or .Summary.Borrowers.HomeOwners.Defaulted .Summary.Borrowers.HomeOwners.NotDefaulted}}
                <div class="split">
                    <div style="width: {{formatFloat .OwnDefault}}%; background: #ef4444;">Defaulted {{.Summary.Borrowers.HomeOwners.Defaulted}}</div>
                    <div style="width: {{formatFloat .OwnRepaid}}%; background: #10b981;">Not Defaulted {{.Summary.Borrowers.HomeOwners.NotDefaulted}}</div>
                </div>
                {{else}}
                <div class="no-data">No homeowners</div>
                {{end}}
            </div>

            <div class="section">
                <h2>Classification Report</h2>
                <p>Features: {{range $i, $f := .Summary.Features}}{{if $i}}, {{end}}{{$f}}{{end}} | Tree depth {{.Summary.Tree.Depth}}, {{.Summary.Tree.Leaves}} leaves</p>
                <table>
                    <thead>
                        <tr><th>Class</th><th>Precision</th><th>Recall</th><th>F1</th><th>Support</th></tr>
                    </thead>
                    <tbody>
                        {{range .Summary.Evaluation.Classes}}
                        <tr><td><strong>{{.Label}}</strong></td><td>{{formatFloat .Precision}}</td><td>{{formatFloat .Recall}}</td><td>{{formatFloat .F1}}</td><td>{{.Support}}</td></tr>
                        {{end}}
                        {{with .Summary.Evaluation.MacroAvg}}
                        <tr><td>{{.Label}}</td><td>{{formatFloat .Precision}}</td><td>{{formatFloat .Recall}}</td><td>{{formatFloat .F1}}</td><td>{{.Support}}</td></tr>
                        {{end}}
                        {{with .Summary.Evaluation.WeightedAvg}}
                        <tr><td>{{.Label}}</td><td>{{formatFloat .Precision}}</td><td>{{formatFloat .Recall}}</td><td>{{formatFloat .F1}}</td><td>{{.Support}}</td></tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .Summary.Evaluation.Confusion}}
            <div class="section">
                <h2>Confusion Matrix</h2>
                <table>
                    <thead>
                        <tr><th>True \ Predicted</th>{{range .Summary.Evaluation.Labels}}<th>{{.}}</th>{{end}}</tr>
                    </thead>
                    <tbody>
                        {{range $i, $row := .Summary.Evaluation.Confusion}}
                        <tr><td><strong>{{label $.Summary.Evaluation.Labels $i}}</strong></td>{{range $row}}<td>{{.}}</td>{{end}}</tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <div class="section">
                <h2>Data Cleaning</h2>
                <table>
                    <thead>
                        <tr><th>File</th><th>Path</th><th>Kept</th><th>Dropped</th></tr>
                    </thead>
                    <tbody>
                        <tr><td>Train</td><td>{{.Summary.Train.Path}}</td><td>{{.Summary.Train.Kept}}</td><td>{{.Summary.Train.Dropped}}</td></tr>
                        <tr><td>Test</td><td>{{.Summary.Test.Path}}</td><td>{{.Summary.Test.Kept}}</td><td>{{.Summary.Test.Dropped}}</td></tr>
                        <tr><td>Requests</td><td>{{.Summary.Requests.Path}}</td><td>{{.Summary.Requests.Kept}}</td><td>{{.Summary.Requests.Dropped}}</td></tr>
                    </tbody>
                </table>
            </div>
        </div>
    </div>
</body>
</html>
`
