package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Settings from the config file are applied first; flags set on the command
// line override them.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		TrainPath:    "credit_risk_train.csv",
		TestPath:     "credit_risk_test.csv",
		RequestsPath: "loan_requests.csv",
		MaxAge:       90,
		AgeColumn:    DefaultAgeColumn,
		Label:        DefaultLabelColumn,
		Features:     append([]string(nil), DefaultFeatures...),
		Tree:         TreeConfig{MinSamplesSplit: 2, Seed: 42},
		Browse:       BrowseAuto,
		Log:          LogConfig{Level: "info", Format: "text"},
		Tracing:      TracingConfig{Protocol: "grpc", SampleRate: 1.0},
		ConfigFile:   configPath,
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.RequestsType = strings.ToLower(strings.TrimSpace(cfg.RequestsType))
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Tracing.Protocol = strings.ToLower(cfg.Tracing.Protocol)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	stringSettings := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.TrainPath, []string{"train", "train_path"}},
		{&cfg.TestPath, []string{"test", "test_path"}},
		{&cfg.RequestsPath, []string{"requests", "requests_path"}},
		{&cfg.RequestsType, []string{"requests_type", "requests-type"}},
		{&cfg.AgeColumn, []string{"age_column", "age-column"}},
		{&cfg.Label, []string{"label"}},
		{&cfg.HTMLOutput, []string{"html_output", "html-output"}},
		{&cfg.ExportPath, []string{"export"}},
	}
	for _, s := range stringSettings {
		raw, ok := lookupSetting(settings, s.keys...)
		if !ok {
			continue
		}
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.keys[0], err)
		}
		*s.dst = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "max_age", "max-age"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("max_age: %w", err)
		}
		cfg.MaxAge = val
	}

	if raw, ok := lookupSetting(settings, "features"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("features: %w", err)
		}
		cfg.Features = trimAll(val)
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = trimAll(val)
	}

	if raw, ok := lookupSetting(settings, "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "plots"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("plots: %w", err)
		}
		cfg.Plots = val
	}

	if raw, ok := lookupSetting(settings, "browse"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("browse: %w", err)
		}
		cfg.Browse = BrowseMode(strings.ToLower(strings.TrimSpace(val)))
	}

	if raw, ok := lookupSetting(settings, "tree"); ok {
		tree, err := parseTree(raw, cfg.Tree)
		if err != nil {
			return fmt.Errorf("tree: %w", err)
		}
		cfg.Tree = tree
	}

	if raw, ok := lookupSetting(settings, "log"); ok {
		logCfg, err := parseLog(raw, cfg.Log)
		if err != nil {
			return fmt.Errorf("log: %w", err)
		}
		cfg.Log = logCfg
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTree(value interface{}, tree TreeConfig) (TreeConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return tree, err
	}
	if raw, ok := lookupSetting(settings, "max_depth", "max-depth"); ok {
		val, err := asInt(raw)
		if err != nil {
			return tree, fmt.Errorf("max_depth: %w", err)
		}
		tree.MaxDepth = val
	}
	if raw, ok := lookupSetting(settings, "min_samples_split", "min-samples-split"); ok {
		val, err := asInt(raw)
		if err != nil {
			return tree, fmt.Errorf("min_samples_split: %w", err)
		}
		tree.MinSamplesSplit = val
	}
	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt(raw)
		if err != nil {
			return tree, fmt.Errorf("seed: %w", err)
		}
		tree.Seed = int64(val)
	}
	return tree, nil
}

func parseLog(value interface{}, logCfg LogConfig) (LogConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return logCfg, err
	}
	if raw, ok := lookupSetting(settings, "level"); ok {
		val, err := asString(raw)
		if err != nil {
			return logCfg, fmt.Errorf("level: %w", err)
		}
		logCfg.Level = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return logCfg, fmt.Errorf("format: %w", err)
		}
		logCfg.Format = strings.TrimSpace(val)
	}
	return logCfg, nil
}

func parseTracing(value interface{}, tracing TracingConfig) (TracingConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return tracing, err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return tracing, fmt.Errorf("endpoint: %w", err)
		}
		tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return tracing, fmt.Errorf("protocol: %w", err)
		}
		tracing.Protocol = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return tracing, fmt.Errorf("insecure: %w", err)
		}
		tracing.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return tracing, fmt.Errorf("sample_rate: %w", err)
		}
		tracing.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return tracing, fmt.Errorf("service_name: %w", err)
		}
		tracing.ServiceName = strings.TrimSpace(val)
	}
	return tracing, nil
}
