package dashboard

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/vizforge-org/vizforge/dataset"
	"github.com/vizforge-org/vizforge/engine"
	"github.com/vizforge-org/vizforge/schema"
)

// ============================================================================
// FIGURE BUILDERS — One builder per figure key
// ============================================================================
// Every builder reads harmonized canonical keys (amount, city, latitude,
// longitude) plus the derived hour/weekday dimensions, so the same builder
// works on any dataset the harmonizer accepted.
// ============================================================================

// Plotly's default qualitative palette.
var seriesColors = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

const mapSampleSize = 2000

// BuildContext carries the inputs every figure builder may need.
type BuildContext struct {
	View engine.RecordView
	KPIs dataset.KPIs
}

// BuilderFunc produces one figure from the build context.
type BuilderFunc func(ctx *BuildContext) (*Figure, error)

var builders = map[string]BuilderFunc{
	"kpi_tiles":          buildKPITiles,
	"pickup_map":         buildPickupMap,
	"fare_box":           buildFareBox,
	"surge_line":         buildSurgeLine,
	"provider_map":       buildProviderMap,
	"department_treemap": buildDepartmentTreemap,
	"payer_sankey":       buildPayerSankey,
	"weekday_heatmap":    buildWeekdayHeatmap,
}

// Build produces the figure registered under key.
func Build(key string, ctx *BuildContext) (*Figure, error) {
	fn, ok := builders[key]
	if !ok {
		return nil, fmt.Errorf("unknown figure %q", key)
	}
	return fn(ctx)
}

// BuildAll produces figures in the given order, failing on the first error.
func BuildAll(keys []string, ctx *BuildContext) ([]*Figure, error) {
	figures := make([]*Figure, 0, len(keys))
	for _, key := range keys {
		fig, err := Build(key, ctx)
		if err != nil {
			return nil, err
		}
		figures = append(figures, fig)
	}
	return figures, nil
}

// ============================================================================
// KPI TILES
// ============================================================================

func buildKPITiles(ctx *BuildContext) (*Figure, error) {
	keys := make([]string, 0, len(ctx.KPIs))
	for k := range ctx.KPIs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<div class='kpi-grid'>")
	for _, k := range keys {
		v := ctx.KPIs[k]
		fmt.Fprintf(&b, "<div class='kpi-card' data-kpi='%s'>", k)
		fmt.Fprintf(&b, "<span class='kpi-value'>%s</span>", formatKPIValue(v))
		fmt.Fprintf(&b, "<span class='kpi-label'>%s</span>", kpiLabel(k))
		b.WriteString("</div>")
	}
	b.WriteString("</div>")

	return &Figure{Key: "kpi_tiles", Title: "Key Metrics", Span: 2, RawHTML: b.String()}, nil
}

// formatKPIValue renders integers with thousands separators and keeps
// fractional values as-is.
func formatKPIValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return engine.FormatInt(int(v))
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]
	neg := strings.HasPrefix(whole, "-")
	n, err := strconv.Atoi(whole)
	if err != nil {
		return s
	}
	if neg {
		n = -n
	}
	out := engine.FormatInt(n) + frac
	if neg {
		out = "-" + out
	}
	return out
}

// kpiLabel turns "avg_fare_usd" into "Avg Fare Usd".
func kpiLabel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// ============================================================================
// SCATTER MAPS
// ============================================================================

func buildPickupMap(ctx *BuildContext) (*Figure, error) {
	return buildScatterMap(ctx, "pickup_map", "product",
		"Sample Pick-ups (bubble ∝ fare)")
}

func buildProviderMap(ctx *BuildContext) (*Figure, error) {
	return buildScatterMap(ctx, "provider_map", "specialty",
		"Providers by Specialty (bubble ∝ billed)")
}

// buildScatterMap plots a deterministic sample of rows on an
// open-street-map, one trace per colorDim value, bubble size by amount.
func buildScatterMap(ctx *BuildContext, key, colorDim, title string) (*Figure, error) {
	indices := sampleIndices(ctx.View.Len(), mapSampleSize)
	if len(indices) == 0 {
		return nil, fmt.Errorf("figure %s: no rows to plot", key)
	}

	type point struct{ lat, lon, size float64 }
	byColor := make(map[string][]point)
	var order []string
	var latSum, lonSum, maxSize float64

	for _, i := range indices {
		lat := ctx.View.Measure(i, schema.CanonicalLatitude)
		lon := ctx.View.Measure(i, schema.CanonicalLongitude)
		size := ctx.View.Measure(i, schema.CanonicalAmount)
		c := ctx.View.Dimension(i, colorDim)
		if _, seen := byColor[c]; !seen {
			order = append(order, c)
		}
		byColor[c] = append(byColor[c], point{lat, lon, size})
		latSum += lat
		lonSum += lon
		if size > maxSize {
			maxSize = size
		}
	}
	sort.Strings(order)

	// sizemode=area with sizeref chosen so the largest bubble is ~20px.
	sizeref := 2.0 * maxSize / (20.0 * 20.0)
	if sizeref <= 0 {
		sizeref = 1
	}

	traces := make([]map[string]any, 0, len(order))
	for ci, c := range order {
		pts := byColor[c]
		lats := make([]float64, len(pts))
		lons := make([]float64, len(pts))
		sizes := make([]float64, len(pts))
		for i, p := range pts {
			lats[i] = p.lat
			lons[i] = p.lon
			sizes[i] = p.size
		}
		traces = append(traces, map[string]any{
			"type": "scattermapbox",
			"name": c,
			"lat":  lats,
			"lon":  lons,
			"mode": "markers",
			"marker": map[string]any{
				"size":     sizes,
				"sizemode": "area",
				"sizeref":  sizeref,
				"color":    seriesColors[ci%len(seriesColors)],
			},
		})
	}

	layout := map[string]any{
		"title":  map[string]any{"text": title},
		"height": 520,
		"margin": map[string]any{"t": 40, "l": 0, "r": 0, "b": 0},
		"mapbox": map[string]any{
			"style": "open-street-map",
			"zoom":  9,
			"center": map[string]any{
				"lat": latSum / float64(len(indices)),
				"lon": lonSum / float64(len(indices)),
			},
		},
	}

	return &Figure{Key: key, Title: title, Span: 2, Traces: traces, Layout: layout}, nil
}

// sampleIndices picks min(k, n) distinct indices, deterministically.
func sampleIndices(n, k int) []int {
	if n <= k {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	rng := rand.New(rand.NewSource(1))
	return rng.Perm(n)[:k]
}

// ============================================================================
// DISTRIBUTION & TREND FIGURES
// ============================================================================

func buildFareBox(ctx *BuildContext) (*Figure, error) {
	products := engine.UniqueValues(ctx.View, "product")
	if len(products) == 0 {
		return nil, fmt.Errorf("figure fare_box: no product values")
	}

	byProduct := make(map[string][]float64, len(products))
	for i := 0; i < ctx.View.Len(); i++ {
		p := ctx.View.Dimension(i, "product")
		byProduct[p] = append(byProduct[p], ctx.View.Measure(i, schema.CanonicalAmount))
	}

	traces := make([]map[string]any, 0, len(products))
	for ci, p := range products {
		traces = append(traces, map[string]any{
			"type":      "box",
			"name":      p,
			"y":         byProduct[p],
			"boxpoints": "outliers",
			"marker":    map[string]any{"color": seriesColors[ci%len(seriesColors)]},
		})
	}

	layout := baseLayout("Fare Distribution by Product")
	layout["showlegend"] = false
	layout["yaxis"] = map[string]any{"title": map[string]any{"text": "Fare (USD)"}}

	return &Figure{Key: "fare_box", Title: "Fare Distribution by Product", Span: 1,
		Traces: traces, Layout: layout}, nil
}

func buildSurgeLine(ctx *BuildContext) (*Figure, error) {
	groups := engine.Execute(engine.ViewSpec{
		Aggregation: "mean",
		Measure:     "is_surge",
		GroupBy:     []string{"hour"},
		SortBy:      "numeric_asc",
	}, ctx.View)
	if len(groups) == 0 {
		return nil, fmt.Errorf("figure surge_line: no hourly groups")
	}

	hours := make([]int, 0, len(groups))
	pcts := make([]float64, 0, len(groups))
	for _, g := range groups {
		h, err := strconv.Atoi(g.Key)
		if err != nil {
			return nil, fmt.Errorf("figure surge_line: bad hour %q", g.Key)
		}
		hours = append(hours, h)
		pcts = append(pcts, engine.RoundTo2(g.Value*100))
	}

	traces := []map[string]any{{
		"type": "scatter",
		"mode": "lines+markers",
		"x":    hours,
		"y":    pcts,
		"line": map[string]any{"shape": "hv", "color": seriesColors[0]},
	}}

	layout := baseLayout("Surge Probability by Hour")
	layout["xaxis"] = map[string]any{"title": map[string]any{"text": "Hour of day"}}
	layout["yaxis"] = map[string]any{"title": map[string]any{"text": "Surge rides (%)"}}

	return &Figure{Key: "surge_line", Title: "Surge Probability by Hour", Span: 1,
		Traces: traces, Layout: layout}, nil
}

// ============================================================================
// CHARGES FIGURES
// ============================================================================

func buildDepartmentTreemap(ctx *BuildContext) (*Figure, error) {
	groups := engine.Execute(engine.ViewSpec{
		Aggregation: "sum",
		Measure:     schema.CanonicalAmount,
		GroupBy:     []string{"department"},
		SortBy:      "value_desc",
	}, ctx.View)
	if len(groups) == 0 {
		return nil, fmt.Errorf("figure department_treemap: no department groups")
	}

	labels := make([]string, len(groups))
	parents := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
		values[i] = engine.RoundTo2(g.Value)
	}

	traces := []map[string]any{{
		"type":    "treemap",
		"labels":  labels,
		"parents": parents,
		"values":  values,
	}}

	layout := baseLayout("Billed by Department")

	return &Figure{Key: "department_treemap", Title: "Billed by Department", Span: 1,
		Traces: traces, Layout: layout}, nil
}

func buildPayerSankey(ctx *BuildContext) (*Figure, error) {
	groups := engine.Execute(engine.ViewSpec{
		Aggregation: "sum",
		Measure:     schema.CanonicalAmount,
		GroupBy:     []string{"payer", "department"},
		SortBy:      "label_asc",
	}, ctx.View)
	if len(groups) == 0 {
		return nil, fmt.Errorf("figure payer_sankey: no payer groups")
	}

	nodeIndex := make(map[string]int)
	var nodes []string
	nodeFor := func(label string) int {
		if i, ok := nodeIndex[label]; ok {
			return i
		}
		nodeIndex[label] = len(nodes)
		nodes = append(nodes, label)
		return len(nodes) - 1
	}

	var sources, targets []int
	var values []float64
	for _, payer := range groups {
		src := nodeFor(payer.Label)
		for _, dept := range payer.SubGroups {
			sources = append(sources, src)
			targets = append(targets, nodeFor(dept.Label))
			values = append(values, engine.RoundTo2(dept.Value))
		}
	}

	traces := []map[string]any{{
		"type": "sankey",
		"node": map[string]any{"label": nodes, "pad": 12},
		"link": map[string]any{
			"source": sources,
			"target": targets,
			"value":  values,
		},
	}}

	layout := baseLayout("Billed Flow: Payer to Department")

	return &Figure{Key: "payer_sankey", Title: "Billed Flow: Payer to Department", Span: 1,
		Traces: traces, Layout: layout}, nil
}

func buildWeekdayHeatmap(ctx *BuildContext) (*Figure, error) {
	pivot := engine.Pivot(ctx.View, "department", "weekday",
		schema.CanonicalAmount, "sum", "label_asc", "weekday_asc")
	if pivot == nil || len(pivot.RowLabels) == 0 {
		return nil, fmt.Errorf("figure weekday_heatmap: empty pivot")
	}

	traces := []map[string]any{{
		"type":       "heatmap",
		"x":          pivot.ColLabels,
		"y":          pivot.RowLabels,
		"z":          pivot.Values,
		"colorscale": "Blues",
		"colorbar":   map[string]any{"title": map[string]any{"text": engine.LabelForAggregation("sum")}},
	}}

	layout := baseLayout("Billed by Department and Weekday")
	layout["xaxis"] = map[string]any{"title": map[string]any{"text": engine.LabelForDimension(pivot.ColDim)}}
	layout["yaxis"] = map[string]any{"title": map[string]any{"text": engine.LabelForDimension(pivot.RowDim)}}

	return &Figure{Key: "weekday_heatmap", Title: "Billed by Department and Weekday", Span: 2,
		Traces: traces, Layout: layout}, nil
}
