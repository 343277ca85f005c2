// Package pipeline runs located, normalized and resolved sheets through
// to summaries. Each sheet yields a typed outcome; the run fails only when
// no sheet produced output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wagner-austin/tree-bot/internal/issues"
	"github.com/wagner-austin/tree-bot/internal/resolve"
	"github.com/wagner-austin/tree-bot/internal/summary"
	"github.com/wagner-austin/tree-bot/internal/table"
)

// ErrNoUsableSheets is returned when every sheet was skipped.
var ErrNoUsableSheets = errors.New("no sheets produced usable output")

// Stage selects how far sheets are processed.
type Stage string

const (
	StageFull    Stage = "full"
	StageHeaders Stage = "headers"
)

// ParseStage validates a stage name; "" means StageFull.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case "", StageFull:
		return StageFull, nil
	case StageHeaders:
		return StageHeaders, nil
	}
	return "", fmt.Errorf("unknown pipeline stage %q (want full or headers)", s)
}

// OverviewOptions enables the cross-site species overview.
type OverviewOptions struct {
	QualityMin   float64
	FrequencyMin int
}

// Options configure a Pipeline. Maps are read-only once passed in.
type Options struct {
	Schema    *table.SchemaConfig
	ScanLimit int
	Classes   resolve.ClassMap
	Canon     resolve.CanonMap
	Species   resolve.SpeciesMap
	// Ambiguous species keys are reported once per run.
	Ambiguous []resolve.SiteCartridge
	Sites     resolve.SiteKeys
	Stage     Stage
	Workers   int
	Routes    []summary.Route
	Overview  *OverviewOptions
	// MaxReported caps the row numbers listed per warning; 0 means 50.
	MaxReported int
	Logger      *slog.Logger
}

// Sheet is a processed worksheet.
type Sheet struct {
	Name         string
	Schema       table.Schema
	Site         string
	HeaderRow    int
	FirstDataRow int
	// Table is the standardized table in table.OutputColumns order, or the
	// header-normalized table when only the headers stage ran.
	Table    *table.Table
	Rows     []table.NormalizedRow
	Warnings []string
	Fills    []resolve.FillReport
	Species  resolve.SpeciesFill
	Unmapped []resolve.UnmappedCompound
}

// SheetResult is the outcome of one sheet: exactly one of Sheet and
// Skipped is set.
type SheetResult struct {
	Name    string
	Sheet   *Sheet
	Skipped *table.SkippedSheet
	Issues  []issues.Issue
}

// Result is the outcome of a run.
type Result struct {
	Stage     Stage
	Sheets    []Sheet
	Skipped   []table.SkippedSheet
	Issues    []issues.Issue
	Unmapped  []resolve.UnmappedCompound
	Summaries []summary.Routed
	Overview  []summary.OverviewRow
}

// SummaryInput returns the processed sheets in summary form.
func (r *Result) SummaryInput() []summary.SheetRows {
	out := make([]summary.SheetRows, 0, len(r.Sheets))
	for _, s := range r.Sheets {
		out = append(out, summary.SheetRows{Name: s.Name, Rows: s.Rows})
	}
	return out
}

// Pipeline processes workbooks with one fixed configuration.
type Pipeline struct {
	opt         Options
	locator     *table.Locator
	transformer resolve.Transformer
	log         *slog.Logger
}

// New builds a pipeline. A nil schema uses table.DefaultSchemaConfig and
// nil sites use resolve.DefaultSiteKeys.
func New(opt Options) *Pipeline {
	if opt.Schema == nil {
		opt.Schema = table.DefaultSchemaConfig()
	}
	if opt.Sites == nil {
		opt.Sites = resolve.DefaultSiteKeys
	}
	if opt.Stage == "" {
		opt.Stage = StageFull
	}
	if opt.Workers < 1 {
		opt.Workers = 1
	}
	if opt.MaxReported <= 0 {
		opt.MaxReported = 50
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		opt:         opt,
		locator:     table.NewLocator(opt.Schema, opt.ScanLimit),
		transformer: resolve.Transformer{Classes: opt.Classes, Canon: opt.Canon},
		log:         log,
	}
}

// ProcessSheet runs one raw sheet through every stage.
func (p *Pipeline) ProcessSheet(raw table.RawSheet) SheetResult {
	log := p.log.With("sheet", raw.Name)
	res := SheetResult{Name: raw.Name}
	if raw.ReadErr != nil {
		return skip(res, log, table.ReasonReadError+": "+raw.ReadErr.Error(), issues.CodeReadError)
	}
	in, skipped := p.locator.Locate(raw.Name, raw.Grid)
	if skipped != nil {
		return skip(res, log, skipped.Reason, skipped.Reason)
	}
	log.Info("sheet located", "schema", in.Schema, "header_row", in.HeaderRow, "rows", in.Table.Len())

	sh := &Sheet{
		Name:         raw.Name,
		Schema:       in.Schema,
		HeaderRow:    in.HeaderRow,
		FirstDataRow: in.FirstDataRow,
	}
	t := p.locator.Headers().NormalizeTable(in.Table)
	if p.opt.Stage == StageHeaders {
		sh.Table = t
		res.Sheet = sh
		return res
	}

	t, sh.Fills = resolve.ForwardFillIdentities(t)
	for _, f := range sh.Fills {
		if f.Count() > 0 {
			log.Debug("forward-filled identity", "column", f.Column, "count", f.Count())
		}
	}
	t = resolve.TrimCartridge(t)

	if site, ok := p.opt.Sites.Lookup(raw.Name); ok {
		sh.Site = site
		t, sh.Species = resolve.ApplySpeciesMap(t, site, p.opt.Species)
		if sh.Species.Filled > 0 {
			log.Info("species filled from mapping", "site", site, "filled", sh.Species.Filled, "examples", sh.Species.Examples)
		}
	} else {
		log.Debug("no site key for sheet; species mapping skipped")
	}

	var dateWarnings []string
	t, dateWarnings = resolve.ParseDates(t, in.FirstDataRow)
	sh.Warnings = append(sh.Warnings, dateWarnings...)
	for i, w := range dateWarnings {
		if i >= p.opt.MaxReported {
			log.Warn("date warnings truncated", "remaining", len(dateWarnings)-i)
			break
		}
		log.Warn(w)
	}

	if in.Schema == table.SchemaOld {
		d := p.transformer.OldToNew(raw.Name, t, in.FirstDataRow)
		t = d.Table
		res.Issues = append(res.Issues, d.Issues...)
		sh.Unmapped = d.Unmapped
		if len(d.Unmapped) > 0 {
			log.Warn("compounds without class", "unmapped", len(d.Unmapped), "rows", len(d.Issues))
		}
	} else {
		t = resolve.ScoreNew(t)
	}

	sh.Table = t.Project(table.OutputColumns)
	sh.Rows = table.Normalized(sh.Table, in.FirstDataRow)
	for _, w := range p.emptyFieldWarnings(sh) {
		sh.Warnings = append(sh.Warnings, w)
		log.Warn(w)
	}
	log.Info("sheet processed", "rows", len(sh.Rows), "site", sh.Site)
	res.Sheet = sh
	return res
}

func skip(res SheetResult, log *slog.Logger, reason, code string) SheetResult {
	res.Skipped = &table.SkippedSheet{Name: res.Name, Reason: reason}
	res.Issues = append(res.Issues, issues.Issue{
		Category: issues.SchemaError,
		Code:     code,
		Message:  "sheet skipped: " + reason,
		Sheet:    res.Name,
	})
	log.Warn("sheet skipped", "reason", reason)
	return res
}

var emptyFieldColumns = []string{
	table.ColSpecies, table.ColCartridgeNum, table.ColDataFolderName, table.ColMatch1Quality,
}

func (p *Pipeline) emptyFieldWarnings(sh *Sheet) []string {
	var out []string
	for _, col := range emptyFieldColumns {
		var rows []string
		n := 0
		for i, c := range sh.Table.Column(col) {
			if !c.IsBlank() {
				continue
			}
			n++
			if len(rows) < p.opt.MaxReported {
				rows = append(rows, strconv.Itoa(sh.FirstDataRow+i))
			}
		}
		if n > 0 {
			out = append(out, fmt.Sprintf("%s empty in %d row(s): %s", col, n, strings.Join(rows, ", ")))
		}
	}
	return out
}

// Run processes every sheet, in workbook order, and builds the summaries.
// With Workers > 1 sheets are processed concurrently; results keep
// workbook order.
func (p *Pipeline) Run(ctx context.Context, sheets []table.RawSheet) (*Result, error) {
	results := make([]SheetResult, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opt.Workers)
	for i := range sheets {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessSheet(sheets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("process sheets: %w", err)
	}

	res := &Result{Stage: p.opt.Stage}
	for _, k := range p.opt.Ambiguous {
		res.Issues = append(res.Issues, issues.Issue{
			Category: issues.DuplicateKey,
			Code:     issues.CodeSpeciesAmbiguous,
			Message:  fmt.Sprintf("species mapping key (%s, %s) maps to more than one species; excluded", k.Site, k.Cartridge),
		})
	}
	var unmapped [][]resolve.UnmappedCompound
	for _, r := range results {
		res.Issues = append(res.Issues, r.Issues...)
		if r.Skipped != nil {
			res.Skipped = append(res.Skipped, *r.Skipped)
			continue
		}
		res.Sheets = append(res.Sheets, *r.Sheet)
		unmapped = append(unmapped, r.Sheet.Unmapped)
	}
	res.Unmapped = resolve.MergeUnmapped(unmapped...)
	p.log.Info("sheets done", "processed", len(res.Sheets), "skipped", len(res.Skipped), "issues", len(res.Issues))
	if len(res.Sheets) == 0 {
		return res, ErrNoUsableSheets
	}
	if p.opt.Stage == StageFull {
		in := res.SummaryInput()
		res.Summaries = summary.BuildRoutes(in, p.opt.Routes)
		if p.opt.Overview != nil {
			res.Overview = summary.BuildOverview(in, p.opt.Overview.QualityMin, p.opt.Overview.FrequencyMin)
		}
	}
	return res, nil
}
