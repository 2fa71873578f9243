package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/torosent/loanlens/internal/browser"
	"github.com/torosent/loanlens/internal/config"
	"github.com/torosent/loanlens/internal/dashboard"
	"github.com/torosent/loanlens/internal/logging"
	"github.com/torosent/loanlens/internal/output"
	"github.com/torosent/loanlens/internal/pipeline"
	"github.com/torosent/loanlens/internal/threshold"
	"github.com/torosent/loanlens/internal/tracing"
)

const (
	msgCarouselBuilt = "Carousel built with all predictions."
	msgNoValidRows   = "No valid rows for prediction."
	shutdownTimeout  = 5 * time.Second
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, std streams) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gates, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: std.err,
	})
	if err != nil {
		return err
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	res, err := pipeline.New(*cfg, logger, provider.Tracer()).Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Plots {
		if err := dashboard.Show(ctx, res.Summary.Borrowers); err != nil {
			return fmt.Errorf("plots: %w", err)
		}
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(std.out, res.Summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(std.out, res.Summary)
	}

	results := threshold.NewEvaluator(gates).Evaluate(res.Summary)
	if !cfg.JSONOutput {
		threshold.PrintResults(std.out, results)
	}
	for _, r := range results {
		if !r.Pass {
			logger.Warn("threshold failed", "threshold", r.Raw, "actual", r.Actual)
		}
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, res.Summary); err != nil {
			return err
		}
		logger.Info("html report written", logging.FieldPath, cfg.HTMLOutput)
	}

	if cfg.ExportPath != "" {
		if err := output.ExportRecords(ctx, cfg.ExportPath, res.Summary.RunID, res.Records.Items()); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		logger.Info("scored requests exported", logging.FieldPath, cfg.ExportPath, "records", res.Records.Len())
	}

	if !cfg.JSONOutput {
		if res.Records.Len() > 0 {
			fmt.Fprintln(std.out, msgCarouselBuilt)
		} else {
			fmt.Fprintln(std.out, msgNoValidRows)
		}
	}

	if err := browse(ctx, resolveBrowse(cfg, std), res, std, logger); err != nil {
		return err
	}

	if failed := threshold.Failed(results); failed > 0 {
		return fmt.Errorf("%d threshold(s) failed", failed)
	}
	return nil
}

// resolveBrowse turns auto into a concrete mode. JSON output never browses
// unless a mode was chosen explicitly.
func resolveBrowse(cfg *config.Config, std streams) config.BrowseMode {
	if cfg.Browse != config.BrowseAuto {
		return cfg.Browse
	}
	if cfg.JSONOutput {
		return config.BrowseNone
	}
	if isTerminal(std.in) && isTerminal(std.out) {
		return config.BrowseTUI
	}
	return config.BrowseLine
}

func browse(ctx context.Context, mode config.BrowseMode, res *pipeline.Result, std streams, logger *slog.Logger) error {
	logger.Debug("browsing scored requests", "mode", string(mode), "records", res.Records.Len())
	var err error
	switch mode {
	case config.BrowseTUI:
		err = browser.RunTUI(ctx, res.Records, std.in, std.out)
	case config.BrowseLine:
		err = browser.NewLine(std.in, std.out).Run(ctx, res.Records)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

func writeHTMLReport(path string, s output.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, s); err != nil {
		_ = f.Close()
		return fmt.Errorf("html report: %w", err)
	}
	return f.Close()
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
