package engine

// ============================================================================
// ENGINE TYPES — Domain-Agnostic Aggregation
// ============================================================================
// The engine knows nothing about rides or charges. It consumes generic
// records (string dimensions + numeric measures) and a ViewSpec describing
// what to compute. Dashboard builders consume the resulting Groups.
//
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ViewSpec defines what the engine should compute for one aggregate view.
// Figure builders produce these; the engine consumes them.
type ViewSpec struct {
	Filters     Filters  `json:"filters"`     // which records to include
	Aggregation string   `json:"aggregation"` // "sum", "mean", "median", "count", "max", "min"
	Measure     string   `json:"measure"`     // measure to aggregate (empty → default)
	GroupBy     []string `json:"groupBy"`     // dimension keys: ["product"], ["payer", "department"]
	SortBy      string   `json:"sortBy"`      // "value_desc", "value_asc", "label_asc", "numeric_asc", "weekday_asc"
	Limit       int      `json:"limit"`       // 0 = all
}

// Filters define which records to include.
// Keys are dimension names, values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Dimensions == nil {
		return true
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Group represents a grouped/aggregated result.
// Builders convert these into chart traces.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // sub-view for records in this group (zero-copy)
}

// PivotTable is a two-dimensional aggregate: one row dimension crossed with
// one column dimension, cells holding the reduced measure.
type PivotTable struct {
	RowDim    string      `json:"rowDim"`
	ColDim    string      `json:"colDim"`
	RowLabels []string    `json:"rowLabels"`
	ColLabels []string    `json:"colLabels"`
	Values    [][]float64 `json:"values"` // Values[row][col]
}
