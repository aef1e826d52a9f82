package schema

import (
	"strings"
	"testing"
)

// ============================================================================
// HARMONIZER TESTS
// ============================================================================

func TestHarmonizeRideHeaders(t *testing.T) {
	headers := []string{
		"ride_id", "timestamp", "driver_id", "product",
		"pickup_lat", "pickup_lon", "drop_lat", "drop_lon",
		"distance_km", "is_surge", "fare_usd",
	}
	m, err := Harmonize(headers, DefaultRules())
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}

	if m.Amount != "fare_usd" {
		t.Errorf("expected fare_usd as amount column, got %q", m.Amount)
	}
	if m.Latitude != "pickup_lat" {
		t.Errorf("expected pickup_lat as latitude column, got %q", m.Latitude)
	}
	if m.Longitude != "pickup_lon" {
		t.Errorf("expected pickup_lon as longitude column, got %q", m.Longitude)
	}
	if m.HasCity() {
		t.Errorf("expected no city column, got %q", m.City)
	}
	if m.FallbackCity != "Unknown City" {
		t.Errorf("expected default fallback city, got %q", m.FallbackCity)
	}
}

func TestHarmonizeChargeHeaders(t *testing.T) {
	headers := []string{
		"charge_id", "service_date", "provider_id", "department",
		"payer", "billed_usd", "allowed_usd", "denied",
	}
	m, err := Harmonize(headers, DefaultRules())
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if m.Amount != "billed_usd" {
		t.Errorf("expected billed_usd as amount column, got %q", m.Amount)
	}
}

func TestHarmonizeFirstHeaderWins(t *testing.T) {
	// Several candidates: only the first in header order is renamed.
	m, err := Harmonize([]string{"fee_usd", "total_cost", "price"}, DefaultRules())
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if m.Amount != "fee_usd" {
		t.Errorf("expected first matching header fee_usd, got %q", m.Amount)
	}
}

func TestHarmonizeNoAmountColumn(t *testing.T) {
	_, err := Harmonize([]string{"id", "name", "category"}, DefaultRules())
	if err == nil {
		t.Fatal("expected error when no header matches an amount substring")
	}
	if !strings.Contains(err.Error(), "no amount column") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestHarmonizeCaseInsensitive(t *testing.T) {
	m, err := Harmonize([]string{"Total Amount", "CITY", "Latitude", "LONGITUDE"}, DefaultRules())
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if m.Amount != "Total Amount" || m.City != "CITY" ||
		m.Latitude != "Latitude" || m.Longitude != "LONGITUDE" {
		t.Errorf("case-insensitive matching failed: %+v", m)
	}
}

func TestHarmonizeDimensionsNoAmountRequired(t *testing.T) {
	headers := []string{"provider_id", "name", "specialty", "city", "latitude", "longitude"}
	m, err := HarmonizeDimensions(headers, DefaultRules())
	if err != nil {
		t.Fatalf("HarmonizeDimensions failed: %v", err)
	}
	if m.Amount != "" {
		t.Errorf("expected no amount column in dimension table, got %q", m.Amount)
	}
	if m.City != "city" || m.Latitude != "latitude" || m.Longitude != "longitude" {
		t.Errorf("unexpected mapping: %+v", m)
	}
}

func TestHarmonizeBadPattern(t *testing.T) {
	rules := DefaultRules()
	rules.CityPatterns = []string{"(unclosed"}
	if _, err := Harmonize([]string{"fare"}, rules); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestMappingCanonical(t *testing.T) {
	m := Mapping{Amount: "fare_usd", Latitude: "pickup_lat", Longitude: "pickup_lon"}
	cases := map[string]string{
		"fare_usd":   CanonicalAmount,
		"pickup_lat": CanonicalLatitude,
		"pickup_lon": CanonicalLongitude,
		"product":    "",
		"":           "",
	}
	for header, want := range cases {
		if got := m.Canonical(header); got != want {
			t.Errorf("Canonical(%q): expected %q, got %q", header, want, got)
		}
	}
}
