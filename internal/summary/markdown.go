package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/wagner-austin/tree-bot/internal/issues"
	"github.com/wagner-austin/tree-bot/internal/resolve"
	"github.com/wagner-austin/tree-bot/internal/table"
)

// Report collects everything rendered into summary.md.
type Report struct {
	Workbook string
	Sheets   int
	Routes   []Routed
	Overview []OverviewRow
	Unmapped []resolve.UnmappedCompound
	Skipped  []table.SkippedSheet
	Issues   []issues.Issue
	// MaxUnmapped caps the unmapped listing; 0 lists all.
	MaxUnmapped int
}

// Markdown renders a compact, plain-text friendly report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	if r.Workbook != "" {
		b.WriteString(fmt.Sprintf("Workbook: %s\n", r.Workbook))
	}
	b.WriteString(fmt.Sprintf("Sheets processed: %d, skipped: %d\n", r.Sheets, len(r.Skipped)))
	if len(r.Issues) > 0 {
		counts := issues.Count(r.Issues)
		b.WriteString("Issues:")
		for _, c := range []issues.Category{issues.SchemaError, issues.MappingMissing, issues.DuplicateKey} {
			if counts[c] > 0 {
				b.WriteString(fmt.Sprintf(" %s=%d", c, counts[c]))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, rt := range r.Routes {
		b.WriteString(fmt.Sprintf("[SUMMARY: %s]\n", rt.Route.Name))
		if len(rt.Sections) == 0 {
			b.WriteString("(no compounds)\n\n")
			continue
		}
		for _, s := range rt.Sections {
			b.WriteString(SectionLabel(s) + "\n")
			for _, c := range s.Compounds {
				b.WriteString(fmt.Sprintf("- %s [%s]: count %d, RT %s, avg quality %s", c.Compound, orNA(c.Class), c.Count, rtSpan(c.RetentionMin, c.RetentionMax), num(c.AvgMatchQuality)))
				if c.Comment != "" {
					b.WriteString("; note: " + c.Comment)
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if len(r.Overview) > 0 {
		b.WriteString("[SPECIES OVERVIEW]\n")
		for _, o := range r.Overview {
			b.WriteString(fmt.Sprintf("- %s | %s [%s]: %d obs across %d site(s) (%s), RT median %s, certainty %s\n",
				o.Species, o.Compound, orNA(o.Class), o.Observations, o.NSites(), strings.Join(o.Sites, ", "), num(o.RTMedian), num(o.CertaintyMean)))
		}
		b.WriteString("\n")
	}

	if len(r.Unmapped) > 0 {
		b.WriteString("[UNMAPPED COMPOUNDS]\n")
		list := r.Unmapped
		if r.MaxUnmapped > 0 && len(list) > r.MaxUnmapped {
			list = list[:r.MaxUnmapped]
		}
		for _, u := range list {
			b.WriteString(fmt.Sprintf("- %s (%d)\n", u.Compound, u.Count))
		}
		if len(list) < len(r.Unmapped) {
			b.WriteString(fmt.Sprintf("... and %d more\n", len(r.Unmapped)-len(list)))
		}
		b.WriteString("\n")
	}

	if len(r.Skipped) > 0 {
		b.WriteString("[SKIPPED SHEETS]\n")
		for _, s := range r.Skipped {
			b.WriteString(fmt.Sprintf("- %s: %s\n", s.Name, s.Reason))
		}
	}
	return b.String()
}

// SectionLabel is the heading written above a section.
func SectionLabel(s Section) string {
	return fmt.Sprintf("Site: %s | Species: %s (unique_compounds=%d, total_peaks=%d, unique_compounds_all=%d, peaks_all=%d)",
		s.Site, s.Species, s.Stats.UniqueCompounds, s.Stats.TotalPeaks, s.Stats.UniqueCompoundsAll, s.Stats.PeaksAll)
}

func rtSpan(lo, hi float64) string {
	if math.IsNaN(lo) {
		return "n/a"
	}
	if lo == hi {
		return num(lo)
	}
	return num(lo) + ".." + num(hi)
}

func num(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", x)
}

func orNA(s string) string {
	if s == "" {
		return "unclassified"
	}
	return s
}
