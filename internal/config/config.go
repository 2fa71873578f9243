package config

import (
	"fmt"
	"strings"
)

// BrowseMode selects how scored requests are browsed.
type BrowseMode string

const (
	BrowseAuto BrowseMode = "auto"
	BrowseTUI  BrowseMode = "tui"
	BrowseLine BrowseMode = "line"
	BrowseNone BrowseMode = "none"
)

// Default column names of the credit risk dataset.
const (
	DefaultAgeColumn   = "person_age"
	DefaultLabelColumn = "loan_status"
)

// DefaultFeatures are the model inputs used when none are configured.
var DefaultFeatures = []string{"loan_amnt", "person_income", "cb_person_cred_hist_length"}

type Config struct {
	TrainPath    string        `mapstructure:"train"`
	TestPath     string        `mapstructure:"test"`
	RequestsPath string        `mapstructure:"requests"`
	RequestsType string        `mapstructure:"requests_type"` // "csv", "json" or empty to infer
	MaxAge       int           `mapstructure:"max_age"`
	AgeColumn    string        `mapstructure:"age_column"`
	Label        string        `mapstructure:"label"`
	Features     []string      `mapstructure:"features"`
	Tree         TreeConfig    `mapstructure:"tree"`
	Thresholds   []string      `mapstructure:"thresholds"`
	JSONOutput   bool          `mapstructure:"json_output"`
	HTMLOutput   string        `mapstructure:"html_output"`
	ExportPath   string        `mapstructure:"export"`
	Plots        bool          `mapstructure:"plots"`
	Browse       BrowseMode    `mapstructure:"browse"`
	Log          LogConfig     `mapstructure:"log"`
	Tracing      TracingConfig `mapstructure:"tracing"`
	ConfigFile   string        `mapstructure:"-"`
}

type TreeConfig struct {
	MaxDepth        int   `mapstructure:"max_depth"`         // 0 = unlimited
	MinSamplesSplit int   `mapstructure:"min_samples_split"` // at least 2
	Seed            int64 `mapstructure:"seed"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// TracingConfig configures OTLP export of pipeline stage spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // grpc or http
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TrainPath) == "" {
		issues = append(issues, "train path is required")
	}
	if strings.TrimSpace(c.TestPath) == "" {
		issues = append(issues, "test path is required")
	}
	if strings.TrimSpace(c.RequestsPath) == "" {
		issues = append(issues, "requests path is required")
	}
	switch strings.ToLower(c.RequestsType) {
	case "", "csv", "json":
	default:
		issues = append(issues, fmt.Sprintf("requests type must be csv or json, got %q", c.RequestsType))
	}

	if c.MaxAge < 1 {
		issues = append(issues, "max age must be at least 1")
	}
	if strings.TrimSpace(c.AgeColumn) == "" {
		issues = append(issues, "age column is required")
	}
	if strings.TrimSpace(c.Label) == "" {
		issues = append(issues, "label column is required")
	}
	if len(c.Features) == 0 {
		issues = append(issues, "at least one feature column is required")
	}
	for i, f := range c.Features {
		if strings.TrimSpace(f) == "" {
			issues = append(issues, fmt.Sprintf("features[%d] is empty", i))
		}
	}

	if c.Tree.MaxDepth < 0 {
		issues = append(issues, "tree max depth must be >= 0")
	}
	if c.Tree.MinSamplesSplit < 2 {
		issues = append(issues, "tree min samples split must be >= 2")
	}

	switch c.Browse {
	case BrowseAuto, BrowseTUI, BrowseLine, BrowseNone:
	default:
		issues = append(issues, fmt.Sprintf("browse must be auto, tui, line or none, got %q", c.Browse))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format must be text or json, got %q", c.Log.Format))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http, got %q", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
