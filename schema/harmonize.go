package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// HARMONIZER — Canonical Column Mapping
// ============================================================================
// Maps heterogeneous CSV headers onto a canonical schema so downstream
// aggregation and chart builders never see source-specific names:
//
//   amount     — first header CONTAINING a known substring (case-insensitive).
//                Zero matches is an error; with several candidates only the
//                first (in header order) is renamed.
//   city       — first header FULL-MATCHING a city pattern; when absent the
//                fallback value (default "Unknown City") is used on read.
//   latitude   — first header full-matching a latitude pattern.
//   longitude  — first header full-matching a longitude pattern.
//
// Matching is name-based only. The harmonizer never inspects values, so a
// column named "fare_notes" holding prose would still win the amount slot.
// That trade-off is the documented contract of this package.
// ============================================================================

// Canonical column keys produced by harmonization.
const (
	CanonicalAmount    = "amount"
	CanonicalCity      = "city"
	CanonicalLatitude  = "latitude"
	CanonicalLongitude = "longitude"
)

// Rules configures the matchers. Substrings match anywhere in a header,
// case-insensitively; patterns are case-insensitive full-match regexes.
type Rules struct {
	AmountSubstrings []string
	CityPatterns     []string
	LatPatterns      []string
	LonPatterns      []string
	FallbackCity     string
}

// DefaultRules returns the built-in matcher sets.
func DefaultRules() Rules {
	return Rules{
		// "charge" is deliberately absent: it would capture id columns
		// like charge_id before the real monetary column.
		AmountSubstrings: []string{"amount", "fare", "billed", "cost", "price", "fee"},
		CityPatterns:     []string{`city`, `town`, `municipality`},
		LatPatterns:      []string{`(pickup_)?lat(itude)?`},
		LonPatterns:      []string{`(pickup_)?(lon|lng)(gitude)?`},
		FallbackCity:     "Unknown City",
	}
}

// Mapping is the result of harmonizing one header row: for each canonical
// key, the source header that will feed it. City may be empty, in which
// case FallbackCity applies; Amount is always set (or Harmonize errors).
type Mapping struct {
	Amount       string
	City         string
	Latitude     string
	Longitude    string
	FallbackCity string
}

// HasCity reports whether a city column was located.
func (m Mapping) HasCity() bool { return m.City != "" }

// Canonical returns the canonical key a source header maps to, or "".
func (m Mapping) Canonical(header string) string {
	switch header {
	case "":
		return ""
	case m.Amount:
		return CanonicalAmount
	case m.City:
		return CanonicalCity
	case m.Latitude:
		return CanonicalLatitude
	case m.Longitude:
		return CanonicalLongitude
	}
	return ""
}

// Harmonize locates canonical columns in a header row.
// Returns an error when no amount candidate exists — the one hard
// requirement; city/latitude/longitude are best-effort.
func Harmonize(headers []string, rules Rules) (Mapping, error) {
	m := Mapping{FallbackCity: rules.FallbackCity}
	if m.FallbackCity == "" {
		m.FallbackCity = "Unknown City"
	}

	m.Amount = matchSubstring(headers, rules.AmountSubstrings)
	if m.Amount == "" {
		return Mapping{}, fmt.Errorf(
			"no amount column found: no header contains any of %v", rules.AmountSubstrings)
	}

	var err error
	if m.City, err = matchPattern(headers, rules.CityPatterns); err != nil {
		return Mapping{}, err
	}
	if m.Latitude, err = matchPattern(headers, rules.LatPatterns); err != nil {
		return Mapping{}, err
	}
	if m.Longitude, err = matchPattern(headers, rules.LonPatterns); err != nil {
		return Mapping{}, err
	}

	return m, nil
}

// HarmonizeDimensions locates canonical columns in a dimension-table
// header row. Dimension tables carry no measure of record, so unlike
// Harmonize a missing amount column is not an error here.
func HarmonizeDimensions(headers []string, rules Rules) (Mapping, error) {
	m := Mapping{FallbackCity: rules.FallbackCity}
	if m.FallbackCity == "" {
		m.FallbackCity = "Unknown City"
	}

	m.Amount = matchSubstring(headers, rules.AmountSubstrings)

	var err error
	if m.City, err = matchPattern(headers, rules.CityPatterns); err != nil {
		return Mapping{}, err
	}
	if m.Latitude, err = matchPattern(headers, rules.LatPatterns); err != nil {
		return Mapping{}, err
	}
	if m.Longitude, err = matchPattern(headers, rules.LonPatterns); err != nil {
		return Mapping{}, err
	}

	return m, nil
}

// matchSubstring returns the first header containing any substring,
// case-insensitively. Header order wins over substring order.
func matchSubstring(headers []string, substrings []string) string {
	for _, h := range headers {
		h = strings.TrimSpace(h)
		for _, sub := range substrings {
			if strings.Contains(strings.ToLower(h), strings.ToLower(sub)) {
				return h
			}
		}
	}
	return ""
}

// matchPattern returns the first header full-matching any pattern,
// case-insensitively. Missing columns are not an error here.
func matchPattern(headers []string, patterns []string) (string, error) {
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)^(` + p + `)$`)
		if err != nil {
			return "", fmt.Errorf("invalid harmonize pattern %q: %w", p, err)
		}
		for _, h := range headers {
			h = strings.TrimSpace(h)
			if re.MatchString(h) {
				return h, nil
			}
		}
	}
	return "", nil
}
