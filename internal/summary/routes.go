package summary

import "math"

// Route names.
const (
	RouteHQMultiple = "HQ Multiple"
	RouteHQSingle   = "HQ Single"
	RouteLQMultiple = "LQ Multiple"
	RouteLQSingle   = "LQ Single"
)

// Route is a named summary filter.
type Route struct {
	Name   string
	Filter Filter
}

// Routed is the output of one route.
type Routed struct {
	Route    Route
	Sections []Section
}

// Routes returns the four standard summaries. High quality is a score of
// at least threshold, low quality is [0, threshold). Single keeps compounds
// seen exactly once; Multiple keeps those seen at least
// max(2, frequencyMin) times.
func Routes(threshold float64, frequencyMin int) []Route {
	multi := frequencyMin
	if multi < 2 {
		multi = 2
	}
	one := 1
	lqMax := math.Nextafter(threshold, math.Inf(-1))
	return []Route{
		{Name: RouteHQMultiple, Filter: Filter{QualityMin: threshold, CountMin: multi}},
		{Name: RouteHQSingle, Filter: Filter{QualityMin: threshold, CountMin: 1, CountMax: &one}},
		{Name: RouteLQMultiple, Filter: Filter{QualityMin: 0, QualityMax: &lqMax, CountMin: multi}},
		{Name: RouteLQSingle, Filter: Filter{QualityMin: 0, QualityMax: &lqMax, CountMin: 1, CountMax: &one}},
	}
}

// BuildRoutes runs Build once per route.
func BuildRoutes(sheets []SheetRows, routes []Route) []Routed {
	out := make([]Routed, 0, len(routes))
	for _, r := range routes {
		out = append(out, Routed{Route: r, Sections: Build(sheets, r.Filter)})
	}
	return out
}
