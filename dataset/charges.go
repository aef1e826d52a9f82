package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vizforge-org/vizforge/config"
	"github.com/vizforge-org/vizforge/engine"
)

// ============================================================================
// CHARGES GENERATOR — Synthetic medical billing
// ============================================================================

// Provider is one row of provider_locations.csv.
type Provider struct {
	ID        string
	Name      string
	Specialty string
	City      string
	Latitude  float64
	Longitude float64
}

// Charge is one row of charges.csv.
type Charge struct {
	ID          string
	ServiceDate string // YYYY-MM-DD
	ProviderID  string
	Department  string
	Payer       string
	BilledUSD   float64
	AllowedUSD  float64
	Denied      bool
}

// ChargesGenerator produces the medical charges dataset.
type ChargesGenerator struct {
	cfg config.ChargesConfig
	log *zap.Logger
}

// NewChargesGenerator creates a generator. A nil logger disables logging.
func NewChargesGenerator(cfg config.ChargesConfig, log *zap.Logger) *ChargesGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChargesGenerator{cfg: cfg, log: log}
}

// Generate writes provider_locations.csv, charges.csv and kpi.json into outDir.
func (g *ChargesGenerator) Generate(outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	start, end, err := parseDateRange(g.cfg.StartDate, g.cfg.EndDate)
	if err != nil {
		return err
	}
	if len(g.cfg.Cities) == 0 || len(g.cfg.Departments) == 0 ||
		len(g.cfg.Specialties) == 0 || len(g.cfg.Payers) == 0 {
		return fmt.Errorf("charges config is missing cities, departments, specialties or payers")
	}

	rng := rand.New(rand.NewSource(g.cfg.Seed))
	providers := g.generateProviders(rng)
	charges := g.generateCharges(rng, providers, start, end)

	providersPath := filepath.Join(outDir, "provider_locations.csv")
	if err := writeProvidersCSV(providersPath, providers); err != nil {
		return err
	}
	chargesPath := filepath.Join(outDir, "charges.csv")
	if err := writeChargesCSV(chargesPath, charges); err != nil {
		return err
	}
	kpiPath := filepath.Join(outDir, "kpi.json")
	if err := WriteKPIs(kpiPath, ChargeKPIs(charges)); err != nil {
		return err
	}

	g.log.Info("charges dataset generated",
		zap.String("dir", outDir),
		zap.Int("providers", len(providers)),
		zap.Int("charges", len(charges)))
	return nil
}

func (g *ChargesGenerator) generateProviders(rng *rand.Rand) []Provider {
	providers := make([]Provider, g.cfg.NProviders)
	for i := range providers {
		city := g.cfg.Cities[rng.Intn(len(g.cfg.Cities))]
		providers[i] = Provider{
			// Integer ids, matching the charge rows that join back here.
			ID:        strconv.Itoa(i + 1),
			Name:      fmt.Sprintf("Provider %04d", i+1),
			Specialty: g.cfg.Specialties[rng.Intn(len(g.cfg.Specialties))],
			City:      city.Name,
			// Jitter keeps co-located providers from stacking on the map.
			Latitude:  city.Lat + uniform(rng, -0.05, 0.05),
			Longitude: city.Lon + uniform(rng, -0.05, 0.05),
		}
	}
	return providers
}

func (g *ChargesGenerator) generateCharges(rng *rand.Rand, providers []Provider, start, end time.Time) []Charge {
	charges := make([]Charge, g.cfg.NCharges)
	for i := range charges {
		billed := engine.RoundTo2(
			uniform(rng, g.cfg.BaseMin, g.cfg.BaseMax) * uniform(rng, 1.0, g.cfg.MaxMultiplier))
		denied := rng.Float64() < g.cfg.DeniedProb

		allowed := 0.0
		if !denied {
			allowed = engine.RoundTo2(billed * uniform(rng, 0.5, 1.0))
		}

		charges[i] = Charge{
			ID:          strconv.Itoa(i + 1),
			ServiceDate: randomTime(rng, start, end).Format("2006-01-02"),
			ProviderID:  providers[rng.Intn(len(providers))].ID,
			Department:  g.cfg.Departments[rng.Intn(len(g.cfg.Departments))],
			Payer:       g.cfg.Payers[rng.Intn(len(g.cfg.Payers))],
			BilledUSD:   billed,
			AllowedUSD:  allowed,
			Denied:      denied,
		}
	}
	return charges
}

// ChargeKPIs computes the precomputed KPI block for a charge set.
func ChargeKPIs(charges []Charge) KPIs {
	view := chargeAdapter().Bind(charges)
	return KPIs{
		"total_charges":    float64(view.Len()),
		"total_billed_usd": engine.RoundTo2(engine.SumMeasure(view, "billed_usd")),
		"avg_billed_usd":   engine.RoundTo2(engine.MeanMeasure(view, "billed_usd")),
		"pct_denied":       engine.RoundTo2(engine.MeanMeasure(view, "denied") * 100),
	}
}

func chargeAdapter() *engine.DomainAdapter[Charge] {
	return engine.NewDomainAdapter[Charge]().
		Dimension("department", func(c Charge) string { return c.Department }).
		Dimension("payer", func(c Charge) string { return c.Payer }).
		Dimension("provider_id", func(c Charge) string { return c.ProviderID }).
		Measure("billed_usd", func(c Charge) float64 { return c.BilledUSD }).
		Measure("allowed_usd", func(c Charge) float64 { return c.AllowedUSD }).
		Measure("denied", func(c Charge) float64 { return btof(c.Denied) })
}

func writeProvidersCSV(path string, providers []Provider) error {
	rows := make([][]string, 0, len(providers)+1)
	rows = append(rows, []string{
		"provider_id", "name", "specialty", "city", "latitude", "longitude",
	})
	for _, p := range providers {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Specialty,
			p.City,
			strconv.FormatFloat(p.Latitude, 'f', 6, 64),
			strconv.FormatFloat(p.Longitude, 'f', 6, 64),
		})
	}
	return writeCSV(path, rows)
}

func writeChargesCSV(path string, charges []Charge) error {
	rows := make([][]string, 0, len(charges)+1)
	rows = append(rows, []string{
		"charge_id", "service_date", "provider_id", "department",
		"payer", "billed_usd", "allowed_usd", "denied",
	})
	for _, c := range charges {
		rows = append(rows, []string{
			c.ID,
			c.ServiceDate,
			c.ProviderID,
			c.Department,
			c.Payer,
			strconv.FormatFloat(c.BilledUSD, 'f', 2, 64),
			strconv.FormatFloat(c.AllowedUSD, 'f', 2, 64),
			strconv.FormatBool(c.Denied),
		})
	}
	return writeCSV(path, rows)
}
