package helpers

import (
	"testing"

	"github.com/vizforge-org/vizforge/engine"
	"github.com/vizforge-org/vizforge/schema"
)

// ============================================================================
// JOIN TESTS
// ============================================================================

func factRows() []engine.Record {
	return []engine.Record{
		{
			Dimensions: map[string]string{"provider_id": "1", "payer": "Medicare"},
			Measures:   map[string]float64{"amount": 100},
		},
		{
			Dimensions: map[string]string{"provider_id": "2", "payer": "Aetna"},
			Measures:   map[string]float64{"amount": 250},
		},
		{
			Dimensions: map[string]string{"provider_id": "9999", "payer": "Cigna"},
			Measures:   map[string]float64{"amount": 75},
		},
	}
}

func dimRows() []engine.Record {
	return []engine.Record{
		{
			Dimensions: map[string]string{"provider_id": "1", "city": "Newark", "specialty": "Cardiology"},
			Measures:   map[string]float64{"latitude": 40.73, "longitude": -74.17},
		},
		{
			Dimensions: map[string]string{"provider_id": "2", "city": "Yonkers", "specialty": "Radiology"},
			Measures:   map[string]float64{"latitude": 40.93, "longitude": -73.89},
		},
	}
}

func TestLeftJoinEnrichment(t *testing.T) {
	out := LeftJoin(factRows(), dimRows(), "provider_id", "provider_id",
		map[string]string{"city": "Unknown City"})

	if len(out) != 3 {
		t.Fatalf("left join must preserve fact row count, got %d", len(out))
	}
	if out[0].Dimensions["city"] != "Newark" || out[0].Dimensions["specialty"] != "Cardiology" {
		t.Errorf("matched fact missing dimension attributes: %+v", out[0].Dimensions)
	}
	if out[0].Measures["latitude"] != 40.73 {
		t.Errorf("matched fact missing dimension measures: %+v", out[0].Measures)
	}
	if out[0].Measures["amount"] != 100 || out[0].Dimensions["payer"] != "Medicare" {
		t.Errorf("fact fields must survive the join: %+v", out[0])
	}
}

func TestLeftJoinUnmatchedFallback(t *testing.T) {
	out := LeftJoin(factRows(), dimRows(), "provider_id", "provider_id",
		map[string]string{"city": "Unknown City"})

	unmatched := out[2]
	if unmatched.Dimensions["city"] != "Unknown City" {
		t.Errorf("unmatched fact should get fallback city, got %q", unmatched.Dimensions["city"])
	}
	if unmatched.Measures["amount"] != 75 {
		t.Errorf("unmatched fact lost its measures: %+v", unmatched.Measures)
	}
	if _, ok := unmatched.Dimensions["specialty"]; ok {
		t.Errorf("unmatched fact should not gain dimension attributes")
	}
}

func TestLeftJoinFactWinsCollisions(t *testing.T) {
	facts := []engine.Record{{
		Dimensions: map[string]string{"provider_id": "1", "specialty": "FromFact"},
		Measures:   map[string]float64{"amount": 1},
	}}
	out := LeftJoin(facts, dimRows(), "provider_id", "provider_id", nil)
	if out[0].Dimensions["specialty"] != "FromFact" {
		t.Errorf("fact side must win key collisions, got %q", out[0].Dimensions["specialty"])
	}
}

func TestLeftJoinIntegerKeysFromCSV(t *testing.T) {
	factCSV := []byte("ride_id,timestamp,driver_id,fare_usd\n" +
		"1,2025-01-06T08:15:00,7,12.50\n" +
		"2,2025-01-06T09:00:00,8,9.10\n")
	dimCSV := []byte("driver_id,name,city\n7,DRV-0007,Newark\n")
	rules := schema.DefaultRules()

	factMapping, err := schema.Harmonize(
		[]string{"ride_id", "timestamp", "driver_id", "fare_usd"}, rules)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	facts, err := ParseCSVHarmonized(factCSV, factMapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized(facts) failed: %v", err)
	}

	dimMapping, err := schema.HarmonizeDimensions([]string{"driver_id", "name", "city"}, rules)
	if err != nil {
		t.Fatalf("HarmonizeDimensions failed: %v", err)
	}
	dims, err := ParseCSVHarmonized(dimCSV, dimMapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized(dims) failed: %v", err)
	}

	if facts[0].Dimensions["driver_id"] != "7" {
		t.Fatalf("integer join key must survive as a dimension, got %+v", facts[0].Dimensions)
	}

	out := LeftJoin(facts, dims, "driver_id", "driver_id",
		map[string]string{schema.CanonicalCity: "Unknown City"})
	if out[0].Dimensions[schema.CanonicalCity] != "Newark" {
		t.Errorf("matched integer key should pull city from the dimension table, got %q",
			out[0].Dimensions[schema.CanonicalCity])
	}
	if out[0].Dimensions["name"] != "DRV-0007" {
		t.Errorf("matched integer key should pull name, got %q", out[0].Dimensions["name"])
	}
	if out[1].Dimensions[schema.CanonicalCity] != "Unknown City" {
		t.Errorf("unmatched integer key should fall back, got %q",
			out[1].Dimensions[schema.CanonicalCity])
	}
}

func TestFillDimension(t *testing.T) {
	records := []engine.Record{
		{Dimensions: map[string]string{schema.CanonicalCity: "Newark"}},
		{Dimensions: map[string]string{}},
	}
	FillDimension(records, schema.CanonicalCity, "Unknown City")
	if records[0].Dimensions[schema.CanonicalCity] != "Newark" {
		t.Errorf("existing value must not be overwritten")
	}
	if records[1].Dimensions[schema.CanonicalCity] != "Unknown City" {
		t.Errorf("missing value should be filled")
	}
}
