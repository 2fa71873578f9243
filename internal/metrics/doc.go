// Package metrics aggregates borrower statistics for reporting and charts.
//
// The [Collector] keeps HdrHistogram distributions of age and income, class
// counts, the age histogram used by the charts, and the home owner
// default split:
//
//	collector := metrics.NewCollector()
//	skipped, err := collector.CollectTable(ctx, table, metrics.DefaultColumns)
//	stats := collector.Stats()
//
// # Age histogram
//
// Bins follow [AgeBinEdges]: [20,30), [30,40), ... [80,90]. Ages outside the
// edges still count toward totals and summaries but not toward any bin.
//
// # Thread Safety
//
// RecordBorrower and Stats may be called from multiple goroutines.
package metrics
