// Package vizforge produces synthetic tabular datasets and renders
// static HTML dashboards from them.
//
// Two pipelines share the same three-stage shape:
//
//	generate → harmonize → render
//
// The dataset package synthesizes rideshare trips or medical charges from
// a configuration block and writes CSV tables plus a kpi.json summary.
// The schema package locates canonical columns (amount, city, latitude,
// longitude) in arbitrary CSV headers by substring and regex matching.
// The engine package groups harmonized records and reduces a measure with
// sum/mean/median, and the dashboard package turns the resulting groups
// into Plotly chart fragments assembled into one self-contained HTML page.
//
// All computation is local. The only external process is an optional
// headless Chromium used to rasterize the finished page to PNG.
package vizforge
