package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wagner-austin/tree-bot/internal/table"
)

var reISODate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[ T].*)?$`)

// ParseDate converts an ISO (YYYY-MM-DD, time ignored) or M/D/YYYY date to
// YYYY-MM-DD.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := reISODate.FindStringSubmatch(s); m != nil {
		return isoDate(m[1], m[2], m[3])
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return "", false
	}
	return isoDate(parts[2], parts[0], parts[1])
}

func isoDate(y, m, d string) (string, bool) {
	year, err1 := strconv.Atoi(strings.TrimSpace(y))
	month, err2 := strconv.Atoi(strings.TrimSpace(m))
	day, err3 := strconv.Atoi(strings.TrimSpace(d))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	tm := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if tm.Year() != year || int(tm.Month()) != month || tm.Day() != day {
		return "", false
	}
	return tm.Format("2006-01-02"), true
}

// ParseDates rewrites DateRun as ISO dates. Blank or unparseable values
// become missing and produce one warning each; firstDataRow numbers them.
func ParseDates(t *table.Table, firstDataRow int) (*table.Table, []string) {
	out := t.Clone()
	if !out.Has(table.ColDateRun) {
		return out, nil
	}
	var warnings []string
	col := out.Column(table.ColDateRun)
	for i, c := range col {
		row := firstDataRow + i
		if c.IsBlank() {
			col[i] = table.Missing
			warnings = append(warnings, fmt.Sprintf("Row %d: DateRun is empty", row))
			continue
		}
		iso, ok := ParseDate(c.Value)
		if !ok {
			col[i] = table.Missing
			warnings = append(warnings, fmt.Sprintf("Row %d: Unparseable DateRun '%s' (expected M/D/YYYY or ISO)", row, c.Value))
			continue
		}
		col[i] = table.Text(iso)
	}
	out.SetColumn(table.ColDateRun, col)
	return out, warnings
}
