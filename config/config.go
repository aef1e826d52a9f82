// Package config holds the configuration block for both pipelines.
// Defaults are complete and runnable; a YAML file overlays them field by field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for generation, harmonization and rendering.
type Config struct {
	Rides      RidesConfig      `yaml:"rides"`
	Charges    ChargesConfig    `yaml:"charges"`
	Harmonize  HarmonizeConfig  `yaml:"harmonize"`
	Dashboards DashboardsConfig `yaml:"dashboards"`
}

// BBox is a latitude/longitude bounding box for coordinate sampling.
type BBox struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMin float64 `yaml:"lon_min"`
	LonMax float64 `yaml:"lon_max"`
}

// RidesConfig drives the rideshare generator.
type RidesConfig struct {
	Seed      int64    `yaml:"seed"`
	NRides    int      `yaml:"n_rides"`
	NDrivers  int      `yaml:"n_drivers"`
	StartDate string   `yaml:"start_date"` // YYYY-MM-DD
	EndDate   string   `yaml:"end_date"`   // YYYY-MM-DD
	Products  []string `yaml:"products"`
	SurgeProb float64  `yaml:"surge_prob"`
	BBox      BBox     `yaml:"bbox"`
}

// City is a named location with base coordinates for provider placement.
type City struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// ChargesConfig drives the medical charges generator.
type ChargesConfig struct {
	Seed          int64    `yaml:"seed"`
	NCharges      int      `yaml:"n_charges"`
	NProviders    int      `yaml:"n_providers"`
	StartDate     string   `yaml:"start_date"`
	EndDate       string   `yaml:"end_date"`
	Departments   []string `yaml:"departments"`
	Specialties   []string `yaml:"specialties"`
	Payers        []string `yaml:"payers"`
	Cities        []City   `yaml:"cities"`
	BaseMin       float64  `yaml:"base_min"`
	BaseMax       float64  `yaml:"base_max"`
	MaxMultiplier float64  `yaml:"max_multiplier"`
	DeniedProb    float64  `yaml:"denied_prob"`
}

// HarmonizeConfig makes the best-effort column matching an explicit contract.
// AmountSubstrings are matched case-insensitively anywhere in a header;
// the pattern lists are case-insensitive full-match regexes.
type HarmonizeConfig struct {
	AmountSubstrings []string `yaml:"amount_substrings"`
	CityPatterns     []string `yaml:"city_patterns"`
	LatPatterns      []string `yaml:"lat_patterns"`
	LonPatterns      []string `yaml:"lon_patterns"`
	FallbackCity     string   `yaml:"fallback_city"`
}

// Theme holds the inline-styling constants of the HTML shell.
type Theme struct {
	PageBG   string `yaml:"page_bg"`
	HeaderBG string `yaml:"header_bg"`
	Accent   string `yaml:"accent"`
	CardBG   string `yaml:"card_bg"`
}

// DashboardConfig names a dashboard and fixes its figure order.
type DashboardConfig struct {
	Title   string   `yaml:"title"`
	Figures []string `yaml:"figures"`
}

// DashboardsConfig holds one DashboardConfig per domain plus the shared theme.
type DashboardsConfig struct {
	Theme   Theme           `yaml:"theme"`
	Rides   DashboardConfig `yaml:"rides"`
	Charges DashboardConfig `yaml:"charges"`
}

// Default returns the complete built-in configuration.
func Default() Config {
	return Config{
		Rides: RidesConfig{
			Seed:      42,
			NRides:    25000,
			NDrivers:  1000,
			StartDate: "2025-01-01",
			EndDate:   "2025-06-30",
			Products:  []string{"UberX", "UberXL", "Comfort", "Black", "Green"},
			SurgeProb: 0.30,
			BBox:      BBox{LatMin: 40.55, LatMax: 40.92, LonMin: -74.15, LonMax: -73.70},
		},
		Charges: ChargesConfig{
			Seed:       42,
			NCharges:   20000,
			NProviders: 500,
			StartDate:  "2025-01-01",
			EndDate:    "2025-06-30",
			Departments: []string{
				"Cardiology", "Oncology", "Orthopedics", "Radiology",
				"Emergency", "Pediatrics",
			},
			Specialties: []string{
				"General Practice", "Cardiology", "Oncology",
				"Orthopedics", "Radiology", "Pediatrics",
			},
			Payers:        []string{"Medicare", "Medicaid", "Aetna", "Cigna", "Self-Pay"},
			Cities:        []City{{"New York", 40.7128, -74.0060}, {"Newark", 40.7357, -74.1724}, {"Yonkers", 40.9312, -73.8987}},
			BaseMin:       120,
			BaseMax:       4800,
			MaxMultiplier: 2.5,
			DeniedProb:    0.12,
		},
		Harmonize: HarmonizeConfig{
			AmountSubstrings: []string{"amount", "fare", "billed", "cost", "price", "fee"},
			CityPatterns:     []string{`city`, `town`, `municipality`},
			LatPatterns:      []string{`(pickup_)?lat(itude)?`},
			LonPatterns:      []string{`(pickup_)?(lon|lng)(gitude)?`},
			FallbackCity:     "Unknown City",
		},
		Dashboards: DashboardsConfig{
			Theme: Theme{
				PageBG:   "#f8fafc",
				HeaderBG: "#1e293b",
				Accent:   "#2563eb",
				CardBG:   "#ffffff",
			},
			Rides: DashboardConfig{
				Title:   "NYC Rideshare Dashboard",
				Figures: []string{"kpi_tiles", "pickup_map", "fare_box", "surge_line"},
			},
			Charges: DashboardConfig{
				Title:   "Medical Charges Dashboard",
				Figures: []string{"kpi_tiles", "provider_map", "department_treemap", "payer_sankey", "weekday_heatmap"},
			},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
