package helpers

import (
	"github.com/vizforge-org/vizforge/engine"
)

// ============================================================================
// JOIN HELPERS — Fact/dimension enrichment
// ============================================================================

// LeftJoin enriches each fact record with the dimensions and measures of
// the dimension record whose dimKey value equals the fact's factKey value.
// The fact side always wins on key collisions, and the output has exactly
// one record per fact: unmatched facts keep their original fields plus the
// given fallback dimension values.
func LeftJoin(facts, dims []engine.Record, factKey, dimKey string, fallbacks map[string]string) []engine.Record {
	index := make(map[string]engine.Record, len(dims))
	for _, d := range dims {
		if k, ok := d.Dimensions[dimKey]; ok && k != "" {
			if _, seen := index[k]; !seen {
				index[k] = d
			}
		}
	}

	out := make([]engine.Record, 0, len(facts))
	for _, f := range facts {
		rec := engine.Record{
			Dimensions: make(map[string]string, len(f.Dimensions)),
			Measures:   make(map[string]float64, len(f.Measures)),
		}

		if d, ok := index[f.Dimensions[factKey]]; ok {
			for k, v := range d.Dimensions {
				rec.Dimensions[k] = v
			}
			for k, v := range d.Measures {
				rec.Measures[k] = v
			}
		} else {
			for k, v := range fallbacks {
				rec.Dimensions[k] = v
			}
		}

		for k, v := range f.Dimensions {
			rec.Dimensions[k] = v
		}
		for k, v := range f.Measures {
			rec.Measures[k] = v
		}

		out = append(out, rec)
	}

	return out
}

// FillDimension sets a dimension on every record where it is still empty.
// Called after joins so a dimension table gets first claim on the value.
func FillDimension(records []engine.Record, key, value string) {
	for i := range records {
		if records[i].Dimensions[key] == "" {
			records[i].Dimensions[key] = value
		}
	}
}
