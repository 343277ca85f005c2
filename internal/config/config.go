package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	PipelineVersion    string  `mapstructure:"pipeline_version" yaml:"pipeline_version"`
	CertaintyThreshold float64 `mapstructure:"certainty_threshold" yaml:"certainty_threshold"`
	FrequencyMin       int     `mapstructure:"frequency_min" yaml:"frequency_min"`
	MaxErrors          int     `mapstructure:"max_errors" yaml:"max_errors"`
	PipelineStage      string  `mapstructure:"pipeline_stage" yaml:"pipeline_stage"`
	ScanLimit          int     `mapstructure:"scan_limit" yaml:"scan_limit"`
	Workers            int     `mapstructure:"workers" yaml:"workers"`
	SpeciesOverview    bool    `mapstructure:"species_overview" yaml:"species_overview"`

	// Inputs
	SchemaPath    string `mapstructure:"schema_path" yaml:"schema_path"`
	ClassesPath   string `mapstructure:"classes_path" yaml:"classes_path"`
	MappingPath   string `mapstructure:"mapping_path" yaml:"mapping_path"`
	NameCanonPath string `mapstructure:"name_canon_path" yaml:"name_canon_path"`
	OutDir        string `mapstructure:"out_dir" yaml:"out_dir"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Validate rejects values the pipeline cannot run with.
func (c *Global) Validate() error {
	switch c.PipelineStage {
	case "full", "headers":
	default:
		return fmt.Errorf("pipeline_stage must be full or headers, got %q", c.PipelineStage)
	}
	if c.CertaintyThreshold < 0 || c.CertaintyThreshold > 100 {
		return fmt.Errorf("certainty_threshold must be within 0..100, got %v", c.CertaintyThreshold)
	}
	if c.FrequencyMin < 1 {
		return errors.New("frequency_min must be at least 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	return nil
}

// DefaultDir is ~/.treebot.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".treebot"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.treebot/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first when present; it never overrides variables
// that are already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	v := viper.New()
	v.SetEnvPrefix("TREEBOT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("pipeline_version", "v1.0")
	v.SetDefault("certainty_threshold", 80)
	v.SetDefault("frequency_min", 2)
	v.SetDefault("max_errors", 50)
	v.SetDefault("pipeline_stage", "full")
	v.SetDefault("scan_limit", 200)
	v.SetDefault("workers", 1)
	v.SetDefault("species_overview", true)
	v.SetDefault("schema_path", "")
	v.SetDefault("classes_path", "")
	v.SetDefault("mapping_path", "")
	v.SetDefault("name_canon_path", "")
	v.SetDefault("out_dir", "runs")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
