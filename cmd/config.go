package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	cfgpkg "github.com/wagner-austin/tree-bot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TreeBot configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "pipeline_version: %s\n", cfg.PipelineVersion)
		fmt.Fprintf(out, "pipeline_stage: %s\n", cfg.PipelineStage)
		fmt.Fprintf(out, "certainty_threshold: %.1f\n", cfg.CertaintyThreshold)
		fmt.Fprintf(out, "frequency_min: %d\n", cfg.FrequencyMin)
		fmt.Fprintf(out, "max_errors: %d\n", cfg.MaxErrors)
		fmt.Fprintf(out, "scan_limit: %d\n", cfg.ScanLimit)
		fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
		fmt.Fprintf(out, "species_overview: %t\n", cfg.SpeciesOverview)
		for _, kv := range [][2]string{
			{"schema_path", cfg.SchemaPath},
			{"classes_path", cfg.ClassesPath},
			{"mapping_path", cfg.MappingPath},
			{"name_canon_path", cfg.NameCanonPath},
		} {
			if kv[1] != "" {
				fmt.Fprintf(out, "%s: %s\n", kv[0], kv[1])
			}
		}
		fmt.Fprintf(out, "out_dir: %s\n", cfg.OutDir)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "pipeline_version":
			cfg.PipelineVersion = val
		case "pipeline_stage":
			switch val {
			case "full", "headers":
				cfg.PipelineStage = val
			default:
				return fmt.Errorf("invalid pipeline_stage: %s (use full or headers)", val)
			}
		case "certainty_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 || f > 100 {
				return fmt.Errorf("invalid float for certainty_threshold: %v", val)
			}
			cfg.CertaintyThreshold = f
		case "frequency_min", "max_errors", "scan_limit", "workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			switch key {
			case "frequency_min":
				cfg.FrequencyMin = i
			case "max_errors":
				cfg.MaxErrors = i
			case "scan_limit":
				cfg.ScanLimit = i
			case "workers":
				cfg.Workers = i
			}
		case "species_overview":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for species_overview: %w", err)
			}
			cfg.SpeciesOverview = b
		case "schema_path":
			cfg.SchemaPath = val
		case "classes_path":
			cfg.ClassesPath = val
		case "mapping_path":
			cfg.MappingPath = val
		case "name_canon_path":
			cfg.NameCanonPath = val
		case "out_dir":
			cfg.OutDir = val
		case "log_level":
			cfg.LogLevel = val
		case "log_format":
			cfg.LogFormat = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
