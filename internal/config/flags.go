package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "loanlens",
		Short:         "Train a loan default classifier and browse scored loan requests",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Input flags
	flags.String("train", "credit_risk_train.csv", "Training dataset (CSV)")
	flags.String("test", "credit_risk_test.csv", "Evaluation dataset (CSV)")
	flags.String("requests", "loan_requests.csv", "Loan requests to score (CSV or JSON)")
	flags.String("requests-type", "", "Type of requests file: 'csv' or 'json' (inferred from extension when empty)")

	// Cleaning and model flags
	flags.Int("max-age", 90, "Drop borrowers at or above this age")
	flags.String("age-column", DefaultAgeColumn, "Column holding the borrower age")
	flags.String("label", DefaultLabelColumn, "Column holding the default label")
	flags.StringSlice("feature", nil, "Feature column used by the model (repeatable)")
	flags.Int("max-depth", 0, "Maximum decision tree depth (0 means unlimited)")
	flags.Int("min-samples-split", 2, "Minimum samples required to split a tree node")
	flags.Int64("seed", 42, "Seed for the decision tree feature order")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Quality gates (repeatable, e.g., 'model:accuracy >= 0.8')")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted report")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.String("export", "", "Write scored requests to a .yaml or .json file")
	flags.Bool("plots", false, "Show terminal charts of the training data")
	flags.StringP("browse", "b", string(BrowseAuto), "Browse scored requests: auto, tui, line or none")
	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")

	// Logging flags
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP endpoint for pipeline spans (disabled when empty)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of runs to trace (0.0-1.0)")
	flags.String("tracing-service-name", "", "Service name reported with spans")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	stringFlags := map[string]*string{
		"train":                &cfg.TrainPath,
		"test":                 &cfg.TestPath,
		"requests":             &cfg.RequestsPath,
		"requests-type":        &cfg.RequestsType,
		"age-column":           &cfg.AgeColumn,
		"label":                &cfg.Label,
		"html-output":          &cfg.HTMLOutput,
		"export":               &cfg.ExportPath,
		"log-level":            &cfg.Log.Level,
		"log-format":           &cfg.Log.Format,
		"tracing-endpoint":     &cfg.Tracing.Endpoint,
		"tracing-protocol":     &cfg.Tracing.Protocol,
		"tracing-service-name": &cfg.Tracing.ServiceName,
	}
	for name, dst := range stringFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
	}

	intFlags := map[string]*int{
		"max-age":           &cfg.MaxAge,
		"max-depth":         &cfg.Tree.MaxDepth,
		"min-samples-split": &cfg.Tree.MinSamplesSplit,
	}
	for name, dst := range intFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	boolFlags := map[string]*bool{
		"json-output":      &cfg.JSONOutput,
		"plots":            &cfg.Plots,
		"tracing-insecure": &cfg.Tracing.Insecure,
	}
	for name, dst := range boolFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Tree.Seed = val
	}
	if fs.Changed("feature") {
		val, err := fs.GetStringSlice("feature")
		if err != nil {
			return err
		}
		cfg.Features = trimAll(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = trimAll(val)
	}
	if fs.Changed("browse") {
		val, err := fs.GetString("browse")
		if err != nil {
			return err
		}
		cfg.Browse = BrowseMode(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
