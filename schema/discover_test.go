package schema

import (
	"testing"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Abbreviated rideshare export
var ridesCSV = []byte(`ride_id,timestamp,driver_id,product,distance_km,is_surge,fare_usd
1,2025-01-06T08:15:00,7,UberX,4.20,false,9.85
2,2025-01-06T08:45:00,19,UberXL,12.75,true,61.20
3,2025-01-07T17:30:00,7,Comfort,2.10,false,6.18
4,2025-01-08T17:05:00,33,UberX,8.90,false,18.08
5,2025-01-08T19:40:00,7,Black,22.45,true,101.50
6,2025-01-09T07:10:00,19,Green,5.60,false,12.30
7,2025-01-09T23:59:00,7,UberX,3.35,true,20.11
8,2025-01-10T11:20:00,33,Comfort,15.00,false,28.75
9,2025-01-11T09:05:00,19,UberXL,6.40,false,13.70
10,2025-01-11T14:45:00,33,UberX,9.95,true,52.06
11,2025-01-12T16:30:00,7,Green,1.85,false,5.74
12,2025-01-12T21:15:00,19,Black,18.30,true,90.42
`)

// Abbreviated medical charges export
var chargesCSV = []byte(`charge_id,service_date,provider_id,department,payer,billed_usd,allowed_usd,denied
1,2025-01-06,12,Cardiology,Medicare,1450.00,1012.30,false
2,2025-01-06,47,Radiology,Aetna,320.50,298.10,false
3,2025-01-07,12,Oncology,Medicaid,5200.75,0.00,true
4,2025-01-08,101,Emergency,Cigna,890.00,445.00,false
5,2025-01-08,47,Cardiology,Self-Pay,2100.20,1680.16,false
6,2025-01-09,12,Pediatrics,Medicare,150.00,0.00,true
7,2025-01-10,101,Orthopedics,Aetna,3400.00,2890.00,false
8,2025-01-10,12,Radiology,Medicaid,275.80,137.90,false
9,2025-01-11,47,Emergency,Cigna,1980.45,1782.40,false
10,2025-01-11,47,Cardiology,Medicare,760.00,0.00,true
11,2025-01-12,101,Oncology,Self-Pay,4875.60,2437.80,false
12,2025-01-12,12,Pediatrics,Aetna,95.25,90.48,false
`)

func TestDiscoverRidesCSV(t *testing.T) {
	config, err := DiscoverFromCSV(ridesCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	dimKeys := config.DimensionKeys()
	assertContains(t, dimKeys, "product", "product should be a dimension")
	assertContains(t, dimKeys, "timestamp", "timestamp should be a dimension")
	assertContains(t, dimKeys, "is_surge", "boolean columns should be dimensions")
	assertContains(t, dimKeys, "driver_id", "repeating driver_id should be a dimension")

	measKeys := config.MeasureKeys()
	assertContains(t, measKeys, "fare_usd", "fare_usd should be a measure")
	assertContains(t, measKeys, "distance_km", "distance_km should be a measure")
	assertContains(t, measKeys, "record_count", "record_count synthetic measure should exist")

	skipped := make([]string, len(config.SkippedColumns))
	for i, s := range config.SkippedColumns {
		skipped[i] = s.Column
	}
	assertContains(t, skipped, "ride_id", "unique ride_id should be skipped")

	for _, d := range config.Dimensions {
		if d.Key == "timestamp" && !d.IsTemporal {
			t.Errorf("timestamp should be detected as temporal")
		}
	}
}

func TestDiscoverChargesCSV(t *testing.T) {
	config, err := DiscoverFromCSV(chargesCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	dimKeys := config.DimensionKeys()
	assertContains(t, dimKeys, "department", "department should be a dimension")
	assertContains(t, dimKeys, "payer", "payer should be a dimension")
	assertContains(t, dimKeys, "service_date", "service_date should be a dimension")
	assertContains(t, dimKeys, "denied", "denied flag should be a dimension")

	measKeys := config.MeasureKeys()
	assertContains(t, measKeys, "billed_usd", "billed_usd should be a measure")
	assertContains(t, measKeys, "allowed_usd", "allowed_usd should be a measure")

	skipped := make([]string, len(config.SkippedColumns))
	for i, s := range config.SkippedColumns {
		skipped[i] = s.Column
	}
	assertContains(t, skipped, "charge_id", "unique charge_id should be skipped")
}

func TestDiscoverUniqueDecimalColumn(t *testing.T) {
	// Every fare distinct: decimal values are continuous data, not ids,
	// so the column must classify as a measure, not get skipped.
	config, err := DiscoverFromCSV(ridesCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	assertContains(t, config.MeasureKeys(), "fare_usd", "unique decimal column should be a measure")
	for _, s := range config.SkippedColumns {
		if s.Column == "fare_usd" || s.Column == "distance_km" {
			t.Errorf("decimal column %q must not be skipped: %s", s.Column, s.Reason)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Column Name": "column_name",
		"fareUsd":     "fare_usd",
		"pickup-lat":  "pickup_lat",
		"fare_usd":    "fare_usd",
		"Billed USD":  "billed_usd",
	}
	for in, want := range cases {
		if got := ToSnakeCase(in); got != want {
			t.Errorf("ToSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDiscoverEmptyCSV(t *testing.T) {
	if _, err := DiscoverFromCSV([]byte("a,b,c\n")); err == nil {
		t.Fatal("expected error for CSV with no data rows")
	}
}

func TestDiscoverRecoverColumn(t *testing.T) {
	opts := DefaultDiscoverOptions()
	opts.RecoverColumns = []string{"ride_id"}
	config, err := DiscoverFromCSV(ridesCSV, opts)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	assertContains(t, config.DimensionKeys(), "ride_id", "recovered column should become a dimension")
}

func assertContains(t *testing.T, haystack []string, needle, msg string) {
	t.Helper()
	for _, s := range haystack {
		if s == needle {
			return
		}
	}
	t.Errorf("%s: %q not in %v", msg, needle, haystack)
}
