package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	cfgpkg "github.com/wagner-austin/tree-bot/internal/config"
	"github.com/wagner-austin/tree-bot/internal/logging"
	"github.com/wagner-austin/tree-bot/internal/manifest"
	"github.com/wagner-austin/tree-bot/internal/pipeline"
	"github.com/wagner-austin/tree-bot/internal/resolve"
	"github.com/wagner-austin/tree-bot/internal/summary"
	"github.com/wagner-austin/tree-bot/internal/table"
	"github.com/wagner-austin/tree-bot/internal/utils"
	"github.com/wagner-austin/tree-bot/internal/workbook"
)

// SummaryFileName is the Markdown report written into every run directory.
const SummaryFileName = "summary.md"

var (
	runInput        string
	runClasses      string
	runMapping      string
	runCanon        string
	runSchema       string
	runOut          string
	runStage        string
	runWorkers      int
	runThreshold    float64
	runFrequencyMin int
	runPrintSummary bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Standardize a results workbook and write summaries",
	Long: `Process every sheet of a GC-MS results workbook and write a timestamped run directory
containing the standardized workbook, summary.md, logs.jsonl and run_manifest.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, &c)
		if c.ClassesPath == "" && c.PipelineStage != string(pipeline.StageHeaders) {
			return errors.New("--classes is required (or set classes_path in config)")
		}
		if runInput == "" {
			return errors.New("--input is required")
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		stage, err := pipeline.ParseStage(c.PipelineStage)
		if err != nil {
			return err
		}

		opt, err := loadRunInputs(c)
		if err != nil {
			return err
		}
		opt.Stage = stage
		sheets, err := workbook.ReadSheets(runInput)
		if err != nil {
			return err
		}

		started := time.Now()
		runDir, stamp, err := manifest.NewRunDir(c.OutDir, started)
		if err != nil {
			return err
		}
		m := manifest.New(runDir, c.PipelineVersion, started)
		logger, closer, err := logging.WithRunLog(slog.Default(), runDir)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = logger.With("run_id", m.RunID)
		logger.Info("run started", "input", runInput, "stage", stage, "run_dir", runDir)
		opt.Logger = logger

		for _, in := range []struct {
			role, path string
			optional   bool
		}{
			{"results", runInput, false}, {"classes", c.ClassesPath, false}, {"mapping", c.MappingPath, false},
			{"name_canon", c.NameCanonPath, true}, {"schema", c.SchemaPath, false},
		} {
			if err := m.AddInput(in.role, in.path); err != nil && !(in.optional && errors.Is(err, fs.ErrNotExist)) {
				return err
			}
		}
		m.Parameters = manifest.Parameters{
			CertaintyThreshold: c.CertaintyThreshold,
			FrequencyMin:       c.FrequencyMin,
			MaxErrors:          c.MaxErrors,
			PipelineStage:      string(stage),
			ScanLimit:          c.ScanLimit,
			Workers:            c.Workers,
			SpeciesOverview:    c.SpeciesOverview,
		}

		res, runErr := pipeline.New(opt).Run(cmd.Context(), sheets)
		if runErr != nil && !errors.Is(runErr, pipeline.ErrNoUsableSheets) {
			return runErr
		}
		m.Outputs = manifest.Outputs{
			SkippedSheets: len(res.Skipped),
			Issues:        len(res.Issues),
			Unmapped:      len(res.Unmapped),
		}

		if runErr == nil {
			name := fmt.Sprintf("standardized_%s.xlsx", stamp)
			book := workbook.Book{
				Routes:       res.Summaries,
				Overview:     res.Overview,
				WithOverview: c.SpeciesOverview && stage == pipeline.StageFull,
			}
			for _, s := range res.Sheets {
				book.Sheets = append(book.Sheets, workbook.Data{Name: s.Name, Table: s.Table})
				m.Outputs.Rows += s.Table.Len()
			}
			if err := workbook.Write(filepath.Join(runDir, name), book); err != nil {
				return err
			}
			m.Outputs.Workbook = name
			m.Outputs.Sheets = len(res.Sheets)
			fmt.Printf("✓ Wrote %s (%d sheets, %d rows)\n", name, m.Outputs.Sheets, m.Outputs.Rows)
		}

		report := &summary.Report{
			Workbook:    filepath.Base(runInput),
			Sheets:      len(res.Sheets),
			Routes:      res.Summaries,
			Overview:    res.Overview,
			Unmapped:    res.Unmapped,
			Skipped:     res.Skipped,
			Issues:      res.Issues,
			MaxUnmapped: c.MaxErrors,
		}
		md := report.Markdown()
		if err := utils.SafeWriteFile(filepath.Join(runDir, SummaryFileName), []byte(md)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := m.Save(time.Now()); err != nil {
			return fmt.Errorf("save manifest: %w", err)
		}
		logger.Info("run finished", "sheets", len(res.Sheets), "skipped", len(res.Skipped), "issues", len(res.Issues))

		for _, s := range res.Skipped {
			fmt.Printf("⚠ Warning: skipped sheet %q (%s)\n", s.Name, s.Reason)
		}
		if n := len(res.Unmapped); n > 0 {
			fmt.Printf("⚠ Warning: %d compound(s) have no class mapping (see %s)\n", n, SummaryFileName)
		}
		if runPrintSummary {
			fmt.Println(md)
		}
		fmt.Printf("✓ Run directory: %s\n", runDir)
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "results workbook (.xlsx)")
	runCmd.Flags().StringVar(&runClasses, "classes", "", "compound class map YAML (overrides config)")
	runCmd.Flags().StringVar(&runMapping, "mapping", "", "species mapping table (.xlsx, .csv, .tsv)")
	runCmd.Flags().StringVar(&runCanon, "canon", "", "name canonicalization YAML")
	runCmd.Flags().StringVar(&runSchema, "schema", "", "schema YAML (default: built-in)")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "output base directory (overrides config)")
	runCmd.Flags().StringVar(&runStage, "stage", "", "pipeline stage: full or headers (overrides config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "sheets processed concurrently (overrides config)")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "certainty threshold for HQ summaries (overrides config)")
	runCmd.Flags().IntVar(&runFrequencyMin, "frequency-min", 0, "minimum count for Multiple summaries (overrides config)")
	runCmd.Flags().BoolVar(&runPrintSummary, "print-summary", false, "print summary.md to stdout")
}

// applyRunFlags copies explicitly set run flags over the configuration.
func applyRunFlags(cmd *cobra.Command, c *cfgpkg.Global) {
	f := cmd.Flags()
	if f.Changed("classes") {
		c.ClassesPath = runClasses
	}
	if f.Changed("mapping") {
		c.MappingPath = runMapping
	}
	if f.Changed("canon") {
		c.NameCanonPath = runCanon
	}
	if f.Changed("schema") {
		c.SchemaPath = runSchema
	}
	if f.Changed("out") && runOut != "" {
		c.OutDir = runOut
	}
	if f.Changed("stage") {
		c.PipelineStage = runStage
	}
	if f.Changed("workers") {
		c.Workers = runWorkers
	}
	if f.Changed("threshold") {
		c.CertaintyThreshold = runThreshold
	}
	if f.Changed("frequency-min") {
		c.FrequencyMin = runFrequencyMin
	}
}

// loadRunInputs reads the schema, class, canon and species tables.
func loadRunInputs(c cfgpkg.Global) (pipeline.Options, error) {
	opt := pipeline.Options{
		ScanLimit:   c.ScanLimit,
		Workers:     c.Workers,
		MaxReported: c.MaxErrors,
		Routes:      summary.Routes(c.CertaintyThreshold, c.FrequencyMin),
	}
	if c.SpeciesOverview {
		opt.Overview = &pipeline.OverviewOptions{QualityMin: c.CertaintyThreshold, FrequencyMin: c.FrequencyMin}
	}
	var err error
	if c.SchemaPath != "" {
		if opt.Schema, err = table.LoadSchemaConfig(c.SchemaPath); err != nil {
			return opt, err
		}
	}
	if c.ClassesPath != "" {
		if opt.Classes, err = resolve.LoadClassMap(c.ClassesPath); err != nil {
			return opt, err
		}
	}
	if opt.Canon, err = resolve.LoadCanonMap(c.NameCanonPath); err != nil {
		return opt, err
	}
	if c.MappingPath != "" {
		tables, err := workbook.ReadTables(c.MappingPath)
		if err != nil {
			return opt, fmt.Errorf("read species mapping: %w", err)
		}
		opt.Species, opt.Ambiguous = resolve.BuildSpeciesMap(resolve.DefaultSiteKeys, tables)
		fmt.Printf("✓ Loaded species mapping: %d keys", len(opt.Species))
		if n := len(opt.Ambiguous); n > 0 {
			fmt.Printf(", %d ambiguous", n)
		}
		fmt.Println()
	}
	return opt, nil
}
