// Package pipeline runs the loanlens stages in order: load and clean the
// training and test data, collect borrower statistics, fit the scaler and
// decision tree, evaluate, and score the loan requests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/loanlens/internal/carousel"
	"github.com/torosent/loanlens/internal/config"
	"github.com/torosent/loanlens/internal/dataset"
	"github.com/torosent/loanlens/internal/logging"
	"github.com/torosent/loanlens/internal/metrics"
	"github.com/torosent/loanlens/internal/model"
	"github.com/torosent/loanlens/internal/output"
	"github.com/torosent/loanlens/internal/record"
	"github.com/torosent/loanlens/internal/scoring"
	"github.com/torosent/loanlens/internal/tracing"
)

// Result is the outcome of a run.
type Result struct {
	Summary output.Summary
	Records *carousel.Carousel[record.Record]
}

// Pipeline holds the collaborators shared by every stage.
type Pipeline struct {
	cfg    config.Config
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New returns a pipeline for cfg. A nil logger or tracer disables that output.
func New(cfg config.Config, logger *slog.Logger, tracer trace.Tracer) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("loanlens")
	}
	return &Pipeline{cfg: cfg, logger: logger, tracer: tracer, now: time.Now}
}

// Run executes every stage and returns the report summary together with the
// scored requests. Requests that cannot be scored do not fail the run; the
// returned carousel is empty instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := ulid.Make().String()
	logger := logging.WithRun(p.logger, runID)
	summary := output.Summary{
		RunID:       runID,
		GeneratedAt: p.now().UTC(),
		Features:    append([]string(nil), p.cfg.Features...),
	}

	ctx, span := tracing.StartStage(ctx, p.tracer, "run", tracing.RunID(runID))
	res, err := p.run(ctx, logger, &summary)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, summary *output.Summary) (*Result, error) {
	var (
		train, test, requests *dataset.Table
		testSamples           model.Samples
		records               *carousel.Carousel[record.Record]
	)
	scaler := &model.Scaler{}
	tree := model.NewDecisionTree(model.TreeOptions{
		MaxDepth:        p.cfg.Tree.MaxDepth,
		MinSamplesSplit: p.cfg.Tree.MinSamplesSplit,
		Seed:            p.cfg.Tree.Seed,
	})

	err := p.stage(ctx, logger, "load_train", func(ctx context.Context, log *slog.Logger) ([]attribute.KeyValue, error) {
		t, report, err := dataset.Load(p.cfg.TrainPath, dataset.KindCSV)
		summary.Train = report
		if err != nil {
			return nil, err
		}
		kept, filter, err := dataset.FilterAge(ctx, t, p.cfg.AgeColumn, p.cfg.MaxAge)
		if err != nil {
			return nil, err
		}
		train = kept
		summary.AgeFilter = filter
		log.Info("training data cleaned",
			logging.FieldPath, report.Path,
			"kept", report.Kept,
			"dropped", report.Dropped,
			"age_removed", filter.Removed,
			"remaining", filter.Remained,
		)
		return []attribute.KeyValue{
			attribute.Int("loanlens.rows", filter.Remained),
			attribute.Int("loanlens.dropped", report.Dropped),
			attribute.Int("loanlens.age_removed", filter.Removed),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, logger, "stats", func(ctx context.Context, log *slog.Logger) ([]attribute.KeyValue, error) {
		collector := metrics.NewCollector()
		cols := metrics.DefaultColumns
		cols.Age = p.cfg.AgeColumn
		cols.Label = p.cfg.Label
		skipped, err := collector.CollectTable(ctx, train, cols)
		if err != nil {
			return nil, err
		}
		summary.Borrowers = collector.Stats()
		log.Info("borrower statistics collected",
			"defaulted", summary.Borrowers.Defaulted,
			"not_defaulted", summary.Borrowers.NotDefaulted,
			"skipped", skipped,
		)
		return []attribute.KeyValue{
			attribute.Int64("loanlens.defaulted", summary.Borrowers.Defaulted),
			attribute.Int64("loanlens.not_defaulted", summary.Borrowers.NotDefaulted),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, logger, "fit", func(ctx context.Context, log *slog.Logger) ([]attribute.KeyValue, error) {
		s, err := model.Features(ctx, train, p.cfg.Features, p.cfg.Label)
		if err != nil {
			return nil, err
		}
		scaled, err := scaler.FitTransform(s.X)
		if err != nil {
			return nil, err
		}
		if err := tree.Fit(ctx, scaled, s.Y); err != nil {
			return nil, err
		}
		summary.Tree = output.TreeSummary{Depth: tree.Depth(), Leaves: tree.Leaves()}
		log.Info("decision tree fitted",
			"samples", len(s.X),
			"skipped", s.Skipped,
			"depth", tree.Depth(),
			"leaves", tree.Leaves(),
		)
		log.Debug("scaler fitted", "mean", scaler.Mean, "scale", scaler.Scale)
		return []attribute.KeyValue{
			attribute.Int("loanlens.samples", len(s.X)),
			attribute.Int("loanlens.depth", tree.Depth()),
			attribute.Int("loanlens.leaves", tree.Leaves()),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, logger, "evaluate", func(ctx context.Context, log *slog.Logger) ([]attribute.KeyValue, error) {
		t, report, err := dataset.Load(p.cfg.TestPath, dataset.KindCSV)
		summary.Test = report
		if err != nil {
			return nil, err
		}
		test, _, err = dataset.FilterAge(ctx, t, p.cfg.AgeColumn, p.cfg.MaxAge)
		if err != nil {
			return nil, err
		}
		testSamples, err = model.Features(ctx, test, p.cfg.Features, p.cfg.Label)
		if err != nil {
			return nil, err
		}
		scaled, err := scaler.Transform(testSamples.X)
		if err != nil {
			return nil, err
		}
		predicted, err := tree.Predict(scaled)
		if err != nil {
			return nil, err
		}
		eval, err := model.Evaluate(testSamples.Y, predicted)
		if err != nil {
			return nil, err
		}
		summary.Evaluation = eval
		log.Info("model evaluated",
			logging.FieldPath, report.Path,
			"samples", eval.Samples,
			"accuracy", eval.Accuracy,
		)
		return []attribute.KeyValue{
			attribute.Int("loanlens.samples", eval.Samples),
			attribute.Float64("loanlens.accuracy", eval.Accuracy),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, logger, "score", func(ctx context.Context, log *slog.Logger) ([]attribute.KeyValue, error) {
		t, report, err := dataset.Load(p.cfg.RequestsPath, dataset.Kind(p.cfg.RequestsType))
		summary.Requests = report
		var (
			scored *carousel.Carousel[record.Record]
			s      scoring.Summary
		)
		switch {
		case errors.Is(err, dataset.ErrNoRows):
			scored = carousel.New[record.Record]()
		case err != nil:
			return nil, err
		default:
			requests = t
			scored, s, err = scoring.Score(ctx, requests, scoring.Options{
				Features: p.cfg.Features,
				Scaler:   scaler,
				Model:    tree,
			})
			if err != nil {
				return nil, err
			}
		}
		records = scored
		summary.Scoring = s
		if s.Scored == 0 {
			log.Warn("no valid rows for prediction",
				logging.FieldPath, report.Path,
				"dropped", report.Dropped,
				"skipped", s.Skipped,
			)
		} else {
			log.Info("carousel built with all predictions",
				"scored", s.Scored,
				"skipped", s.Skipped,
				"predicted_defaults", s.Defaults,
			)
		}
		return []attribute.KeyValue{
			attribute.Int("loanlens.scored", s.Scored),
			attribute.Int("loanlens.skipped", s.Skipped),
			attribute.Int("loanlens.predicted_defaults", s.Defaults),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{Summary: *summary, Records: records}, nil
}

type stageFunc func(ctx context.Context, logger *slog.Logger) ([]attribute.KeyValue, error)

// stage runs fn inside a loanlens.<name> span and wraps its error with name.
func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, name string, fn stageFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := p.now()
	ctx, span := tracing.StartStage(ctx, p.tracer, name)
	log := logging.WithStage(logger, name)

	attrs, err := fn(ctx, log)
	tracing.EndSpan(span, err, attrs...)
	if err != nil {
		log.Debug("stage failed", "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug("stage complete", "elapsed", time.Since(start))
	return nil
}
