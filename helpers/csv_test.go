package helpers

import (
	"testing"

	"github.com/vizforge-org/vizforge/schema"
)

// ============================================================================
// CSV PARSING TESTS
// ============================================================================

var rideCSV = []byte(`ride_id,timestamp,product,pickup_lat,pickup_lon,is_surge,fare_usd
1,2025-01-06T08:15:00,UberX,40.711,-74.005,false,9.85
2,2025-01-06T08:45:00,UberXL,40.802,-73.910,true,61.20
3,2025-01-07T17:30:00,UberX,40.645,-74.120,false,6.18
`)

func TestParseCSVHarmonized(t *testing.T) {
	mapping, err := schema.Harmonize([]string{
		"ride_id", "timestamp", "product", "pickup_lat", "pickup_lon", "is_surge", "fare_usd",
	}, schema.DefaultRules())
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}

	records, err := ParseCSVHarmonized(rideCSV, mapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	r := records[0]
	if r.Measures[schema.CanonicalAmount] != 9.85 {
		t.Errorf("expected canonical amount 9.85, got %v", r.Measures[schema.CanonicalAmount])
	}
	if _, ok := r.Measures["fare_usd"]; ok {
		t.Errorf("source amount column should be renamed, not duplicated")
	}
	if r.Measures[schema.CanonicalLatitude] != 40.711 {
		t.Errorf("expected canonical latitude, got %v", r.Measures[schema.CanonicalLatitude])
	}
	if r.Measures[schema.CanonicalLongitude] != -74.005 {
		t.Errorf("expected canonical longitude, got %v", r.Measures[schema.CanonicalLongitude])
	}
	if r.Dimensions["product"] != "UberX" || r.Dimensions["timestamp"] != "2025-01-06T08:15:00" {
		t.Errorf("unmatched columns should keep snake_case keys: %+v", r.Dimensions)
	}
	// No city column matched: key stays unset until FillDimension runs.
	if _, ok := r.Dimensions[schema.CanonicalCity]; ok {
		t.Errorf("city should be absent when no city column matched")
	}
}

func TestParseCSVHarmonizedBoolCoercion(t *testing.T) {
	mapping := schema.Mapping{Amount: "fare_usd", FallbackCity: "Unknown City"}
	records, err := ParseCSVHarmonized(rideCSV, mapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized failed: %v", err)
	}

	// Bools double as dimensions and 0/1 measures so rates aggregate.
	if records[0].Measures["is_surge"] != 0 || records[1].Measures["is_surge"] != 1 {
		t.Errorf("bool coercion failed: %v, %v",
			records[0].Measures["is_surge"], records[1].Measures["is_surge"])
	}
	if records[1].Dimensions["is_surge"] != "true" {
		t.Errorf("bool should also remain a dimension, got %q", records[1].Dimensions["is_surge"])
	}
}

func TestParseCSVHarmonizedIntegerCells(t *testing.T) {
	data := []byte("driver_id,distance_km,fare_usd\n7,4.25,10.50\n")
	mapping := schema.Mapping{Amount: "fare_usd"}
	records, err := ParseCSVHarmonized(data, mapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized failed: %v", err)
	}

	r := records[0]
	if r.Dimensions["driver_id"] != "7" || r.Measures["driver_id"] != 7 {
		t.Errorf("integer cells should be join-able dimensions and measures: %+v", r)
	}
	if _, ok := r.Dimensions["distance_km"]; ok {
		t.Errorf("decimal cells should stay measures only: %+v", r.Dimensions)
	}
	if r.Measures["distance_km"] != 4.25 {
		t.Errorf("expected distance 4.25, got %v", r.Measures["distance_km"])
	}
}

func TestParseCSVHarmonizedCityFallback(t *testing.T) {
	data := []byte("city,billed_usd\nNewark,100\n,200\n")
	mapping, err := schema.Harmonize([]string{"city", "billed_usd"}, schema.DefaultRules())
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}

	records, err := ParseCSVHarmonized(data, mapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized failed: %v", err)
	}
	if records[0].Dimensions[schema.CanonicalCity] != "Newark" {
		t.Errorf("expected Newark, got %q", records[0].Dimensions[schema.CanonicalCity])
	}
	if records[1].Dimensions[schema.CanonicalCity] != "Unknown City" {
		t.Errorf("expected fallback for empty cell, got %q", records[1].Dimensions[schema.CanonicalCity])
	}
}

func TestParseCSVHarmonizedSkipsMalformedRows(t *testing.T) {
	data := []byte("fare_usd,product\n10.5,UberX\n\"unterminated,Black\n20.0,Green\n")
	mapping := schema.Mapping{Amount: "fare_usd"}
	records, err := ParseCSVHarmonized(data, mapping)
	if err != nil {
		t.Fatalf("ParseCSVHarmonized failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected malformed rows skipped, got %d records", len(records))
	}
	if records[0].Measures[schema.CanonicalAmount] != 10.5 {
		t.Errorf("unexpected surviving record: %+v", records[0])
	}
}

func TestReadHeaders(t *testing.T) {
	headers, err := ReadHeaders([]byte(" a , b ,c\n1,2,3\n"))
	if err != nil {
		t.Fatalf("ReadHeaders failed: %v", err)
	}
	if len(headers) != 3 || headers[0] != "a" || headers[1] != "b" || headers[2] != "c" {
		t.Errorf("expected trimmed headers, got %v", headers)
	}
}

func TestParseCSVWithSchema(t *testing.T) {
	sch, err := schema.DiscoverFromCSV(rideCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	records, err := ParseCSV(rideCSV, *sch)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[1].Measures["fare_usd"] != 61.20 {
		t.Errorf("expected fare 61.20, got %v", records[1].Measures["fare_usd"])
	}
	if records[1].Measures["record_count"] != 1 {
		t.Errorf("expected synthetic record_count 1, got %v", records[1].Measures["record_count"])
	}
}

func TestParseCSVCamelCaseHeaders(t *testing.T) {
	data := []byte("fareUsd,product\n10.50,UberX\n20.00,Black\n6.25,UberX\n")
	sch, err := schema.DiscoverFromCSV(data)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	records, err := ParseCSV(data, *sch)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	// Discovery and parsing must normalize headers identically, or the
	// discovered fare_usd key never maps back to the fareUsd column.
	if records[0].Measures["fare_usd"] != 10.50 {
		t.Errorf("camelCase measure column lost in parsing: %+v", records[0].Measures)
	}
	if records[0].Dimensions["product"] != "UberX" {
		t.Errorf("expected product dimension, got %+v", records[0].Dimensions)
	}
}
