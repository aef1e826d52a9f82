package engine

// ============================================================================
// EXECUTOR — ViewSpec evaluation
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Apply filters from ViewSpec → SubView
//   2. Group and aggregate
//   3. Sort and limit
//
// All computation is local and single-pass per stage.
// Zero data copy — the engine reads consumer data through RecordView.
// ============================================================================

// Execute runs a ViewSpec against a RecordView and returns aggregated groups.
//
// Options:
//   - WithDefaultMeasure(key) — sets the measure when ViewSpec.Measure is empty
func Execute(spec ViewSpec, view RecordView, opts ...Option) []Group {
	cfg := applyOptions(opts)

	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}
	if measure == "" {
		measure = "amount" // last-resort default
	}

	if view.Len() == 0 {
		return nil
	}

	filtered := ApplyFilters(view, spec.Filters)
	if filtered.Len() == 0 {
		return nil
	}

	return GroupAndAggregate(filtered, spec.GroupBy, measure, spec.Aggregation, spec.SortBy, spec.Limit)
}
