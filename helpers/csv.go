package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vizforge-org/vizforge/engine"
	"github.com/vizforge-org/vizforge/schema"
)

// ============================================================================
// CSV HELPERS — Parses CSV data into []engine.Record
// ============================================================================
// The caller reads the CSV from wherever it lives; these helpers convert
// the raw bytes into generic Records. Type coercion is null-on-failure:
// a measure cell that fails to parse is simply absent from the record.
// ============================================================================

// ReadHeaders returns the header row of CSV bytes, trimmed.
func ReadHeaders(data []byte) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	return headers, nil
}

// ParseCSV parses CSV bytes into Records using a schema for classification.
// Each row becomes a Record with dimensions (string) and measures (numeric).
func ParseCSV(data []byte, sch schema.Config) ([]engine.Record, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	dimSet := make(map[string]bool)
	for _, d := range sch.Dimensions {
		dimSet[d.Key] = true
	}
	measSet := make(map[string]bool)
	for _, m := range sch.Measures {
		if !m.IsSynthetic {
			measSet[m.Key] = true
		}
	}

	type colMapping struct {
		schemaKey   string
		isDimension bool
		isMeasure   bool
	}

	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		key := schema.ToSnakeCase(strings.TrimSpace(h))
		if dimSet[key] {
			mappings[i] = colMapping{schemaKey: key, isDimension: true}
		} else if measSet[key] {
			mappings[i] = colMapping{schemaKey: key, isMeasure: true}
		}
		// Unmapped columns are silently skipped
	}

	var records []engine.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}

		for i, val := range row {
			if i >= len(mappings) {
				break
			}
			m := mappings[i]
			val = strings.TrimSpace(val)

			if m.isDimension {
				rec.Dimensions[m.schemaKey] = val
			} else if m.isMeasure {
				if f, err := strconv.ParseFloat(val, 64); err == nil {
					rec.Measures[m.schemaKey] = f
				}
			}
		}

		// Add synthetic measures (e.g., record_count)
		for _, m := range sch.Measures {
			if m.IsSynthetic && m.DefaultAggregation == "count" {
				rec.Measures[m.Key] = 1
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// ParseCSVHarmonized parses CSV bytes into Records with canonical keys
// applied from a harmonized column mapping:
//
//   - the matched amount column parses into Measures["amount"]
//   - matched latitude/longitude columns parse into measures under their
//     canonical keys
//   - the matched city column lands in Dimensions["city"], with empty cells
//     replaced by the fallback value; when no city column matched the key is
//     left unset so a joined dimension table can still supply it (see
//     FillDimension)
//   - every other column is keyed by its snake_cased header: numeric cells
//     become measures (integers double as dimensions so join keys survive),
//     bool-like cells become dimensions AND a 0/1 measure, everything else
//     a dimension
func ParseCSVHarmonized(data []byte, mapping schema.Mapping) ([]engine.Record, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	keys := make([]string, len(headers))
	canonical := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		keys[i] = schema.ToSnakeCase(h)
		canonical[i] = mapping.Canonical(h)
	}

	var records []engine.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}

		for i, val := range row {
			if i >= len(keys) {
				break
			}
			val = strings.TrimSpace(val)

			switch canonical[i] {
			case schema.CanonicalAmount, schema.CanonicalLatitude, schema.CanonicalLongitude:
				if f, err := strconv.ParseFloat(val, 64); err == nil {
					rec.Measures[canonical[i]] = f
				}
			case schema.CanonicalCity:
				rec.Dimensions[schema.CanonicalCity] = val
			default:
				setCell(&rec, keys[i], val)
			}
		}

		if mapping.HasCity() && rec.Dimensions[schema.CanonicalCity] == "" {
			rec.Dimensions[schema.CanonicalCity] = mapping.FallbackCity
		}

		records = append(records, rec)
	}

	return records, nil
}

// setCell coerces one unmapped cell: numeric → measure, bool → dimension
// plus a 0/1 measure (so rates like pct_surge stay computable), else
// dimension. Integer cells additionally stay dimensions under their raw
// string form: id columns like driver_id are join keys, and LeftJoin
// looks keys up by dimension value.
func setCell(rec *engine.Record, key, val string) {
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		rec.Measures[key] = f
		if _, intErr := strconv.ParseInt(val, 10, 64); intErr == nil {
			rec.Dimensions[key] = val
		}
		return
	}
	switch strings.ToLower(val) {
	case "true":
		rec.Dimensions[key] = val
		rec.Measures[key] = 1
		return
	case "false":
		rec.Dimensions[key] = val
		rec.Measures[key] = 0
		return
	}
	rec.Dimensions[key] = val
}
