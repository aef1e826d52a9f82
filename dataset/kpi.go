// Package dataset generates the synthetic fact/dimension CSVs and the
// precomputed KPI sidecar consumed by the dashboard renderers.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// KPIs maps KPI names to numeric values. The JSON sidecar carries numbers
// only; labeling and formatting happen at render time.
type KPIs map[string]float64

// WriteKPIs writes the KPI sidecar as indented JSON.
func WriteKPIs(path string, kpis KPIs) error {
	data, err := json.MarshalIndent(kpis, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal KPIs: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadKPIs reads a KPI sidecar written by WriteKPIs.
func ReadKPIs(path string) (KPIs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var kpis KPIs
	if err := json.Unmarshal(data, &kpis); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return kpis, nil
}
