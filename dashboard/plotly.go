// Package dashboard turns aggregated views into a single static HTML page
// of Plotly figures. Figures are declarative trace/layout pairs rendered
// client-side; the page itself loads Plotly from the CDN once.
package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlotlyCDN is the script source loaded once per page.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.26.0.min.js"

// Figure is one dashboard card. Either RawHTML is set (KPI tiles) or
// Traces/Layout describe a Plotly plot rendered into a div named after Key.
type Figure struct {
	Key     string
	Title   string
	Span    int // grid columns occupied (1 or 2)
	RawHTML string
	Traces  []map[string]any
	Layout  map[string]any
}

// plotConfig is passed to every Plotly.newPlot call.
var plotConfig = map[string]any{
	"displayModeBar": true,
	"displaylogo":    false,
}

// Fragment renders the figure as a grid card.
func (f *Figure) Fragment() (string, error) {
	span := ""
	if f.Span >= 2 {
		span = " style='grid-column:span 2'"
	}

	if f.RawHTML != "" {
		return fmt.Sprintf("<div class='card'%s>%s</div>", span, f.RawHTML), nil
	}

	traces, err := json.Marshal(f.Traces)
	if err != nil {
		return "", fmt.Errorf("figure %s: marshal traces: %w", f.Key, err)
	}
	layout, err := json.Marshal(f.Layout)
	if err != nil {
		return "", fmt.Errorf("figure %s: marshal layout: %w", f.Key, err)
	}
	cfg, err := json.Marshal(plotConfig)
	if err != nil {
		return "", fmt.Errorf("figure %s: marshal config: %w", f.Key, err)
	}

	divID := "fig-" + f.Key
	var b strings.Builder
	fmt.Fprintf(&b, "<div class='card'%s>", span)
	fmt.Fprintf(&b, "<div id='%s'></div>", divID)
	fmt.Fprintf(&b, "<script>Plotly.newPlot('%s', %s, %s, %s);</script>",
		divID, traces, layout, cfg)
	b.WriteString("</div>")
	return b.String(), nil
}

// baseLayout returns the layout fields every plot shares.
func baseLayout(title string) map[string]any {
	return map[string]any{
		"title":  map[string]any{"text": title},
		"height": 520,
		"margin": map[string]any{"t": 50, "l": 40, "r": 40, "b": 40},
	}
}
