package dataset

import (
	"encoding/csv"
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
// RIDES GENERATOR — Synthetic rideshare trips
// ============================================================================
// One seeded rand.Rand drives everything, so a given config always produces
// byte-identical output. The KPI sidecar is computed from the in-memory
// rows through the aggregation engine, never re-read from disk.
// ============================================================================

const rideTimestampFormat = "2006-01-02T15:04:05"

// Driver is one row of driver_profiles.csv.
type Driver struct {
	ID        string
	Name      string
	Rating    float64
	OnboardDt string // YYYY-MM-DD
}

// Ride is one row of rides.csv.
type Ride struct {
	ID         string
	Timestamp  string // rideTimestampFormat
	DriverID   string
	Product    string
	PickupLat  float64
	PickupLon  float64
	DropLat    float64
	DropLon    float64
	DistanceKm float64
	IsSurge    bool
	FareUSD    float64
}

// RidesGenerator produces the rideshare dataset.
type RidesGenerator struct {
	cfg config.RidesConfig
	log *zap.Logger
}

// NewRidesGenerator creates a generator. A nil logger disables logging.
func NewRidesGenerator(cfg config.RidesConfig, log *zap.Logger) *RidesGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &RidesGenerator{cfg: cfg, log: log}
}

// Generate writes driver_profiles.csv, rides.csv and kpi.json into outDir.
func (g *RidesGenerator) Generate(outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	start, end, err := parseDateRange(g.cfg.StartDate, g.cfg.EndDate)
	if err != nil {
		return err
	}
	if len(g.cfg.Products) == 0 {
		return fmt.Errorf("rides config has no products")
	}

	rng := rand.New(rand.NewSource(g.cfg.Seed))
	drivers := g.generateDrivers(rng)
	rides := g.generateRides(rng, drivers, start, end)

	driversPath := filepath.Join(outDir, "driver_profiles.csv")
	if err := writeDriversCSV(driversPath, drivers); err != nil {
		return err
	}
	ridesPath := filepath.Join(outDir, "rides.csv")
	if err := writeRidesCSV(ridesPath, rides); err != nil {
		return err
	}
	kpiPath := filepath.Join(outDir, "kpi.json")
	if err := WriteKPIs(kpiPath, RideKPIs(rides)); err != nil {
		return err
	}

	g.log.Info("rides dataset generated",
		zap.String("dir", outDir),
		zap.Int("drivers", len(drivers)),
		zap.Int("rides", len(rides)))
	return nil
}

func (g *RidesGenerator) generateDrivers(rng *rand.Rand) []Driver {
	onboardEpoch := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	drivers := make([]Driver, g.cfg.NDrivers)
	for i := range drivers {
		drivers[i] = Driver{
			// Integer ids: the join back from rides.csv matches on the
			// raw cell value, so both sides write the same plain form.
			ID:        strconv.Itoa(i + 1),
			Name:      fmt.Sprintf("DRV-%04d", i+1),
			Rating:    engine.RoundTo2(uniform(rng, 4.6, 5.0)),
			OnboardDt: onboardEpoch.AddDate(0, 0, rng.Intn(2556)).Format("2006-01-02"),
		}
	}
	return drivers
}

func (g *RidesGenerator) generateRides(rng *rand.Rand, drivers []Driver, start, end time.Time) []Ride {
	bbox := g.cfg.BBox
	rides := make([]Ride, g.cfg.NRides)
	for i := range rides {
		distance := engine.RoundTo2(uniform(rng, 1.0, 25.0))
		surge := rng.Float64() < g.cfg.SurgeProb

		// Base fare plus per-km rate; surge multiplies by 1.5x-3.0x.
		multiplier := 1.0
		if surge {
			multiplier = 1.0 + uniform(rng, 0.5, 2.0)
		}
		fare := engine.RoundTo2((2.5 + distance*1.75) * multiplier)

		rides[i] = Ride{
			ID:         strconv.Itoa(i + 1),
			Timestamp:  randomTime(rng, start, end).Format(rideTimestampFormat),
			DriverID:   drivers[rng.Intn(len(drivers))].ID,
			Product:    g.cfg.Products[rng.Intn(len(g.cfg.Products))],
			PickupLat:  uniform(rng, bbox.LatMin, bbox.LatMax),
			PickupLon:  uniform(rng, bbox.LonMin, bbox.LonMax),
			DropLat:    uniform(rng, bbox.LatMin, bbox.LatMax),
			DropLon:    uniform(rng, bbox.LonMin, bbox.LonMax),
			DistanceKm: distance,
			IsSurge:    surge,
			FareUSD:    fare,
		}
	}
	return rides
}

// RideKPIs computes the precomputed KPI block for a ride set.
func RideKPIs(rides []Ride) KPIs {
	view := rideAdapter().Bind(rides)
	return KPIs{
		"total_rides":     float64(view.Len()),
		"avg_fare_usd":    engine.RoundTo2(engine.MeanMeasure(view, "fare_usd")),
		"avg_distance_km": engine.RoundTo2(engine.MeanMeasure(view, "distance_km")),
		"pct_surge":       engine.RoundTo1(engine.MeanMeasure(view, "is_surge") * 100),
	}
}

func rideAdapter() *engine.DomainAdapter[Ride] {
	return engine.NewDomainAdapter[Ride]().
		Dimension("product", func(r Ride) string { return r.Product }).
		Dimension("driver_id", func(r Ride) string { return r.DriverID }).
		Measure("fare_usd", func(r Ride) float64 { return r.FareUSD }).
		Measure("distance_km", func(r Ride) float64 { return r.DistanceKm }).
		Measure("is_surge", func(r Ride) float64 { return btof(r.IsSurge) })
}

func writeDriversCSV(path string, drivers []Driver) error {
	rows := make([][]string, 0, len(drivers)+1)
	rows = append(rows, []string{"driver_id", "name", "rating", "onboard_dt"})
	for _, d := range drivers {
		rows = append(rows, []string{
			d.ID,
			d.Name,
			strconv.FormatFloat(d.Rating, 'f', 2, 64),
			d.OnboardDt,
		})
	}
	return writeCSV(path, rows)
}

func writeRidesCSV(path string, rides []Ride) error {
	rows := make([][]string, 0, len(rides)+1)
	rows = append(rows, []string{
		"ride_id", "timestamp", "driver_id", "product",
		"pickup_lat", "pickup_lon", "drop_lat", "drop_lon",
		"distance_km", "is_surge", "fare_usd",
	})
	for _, r := range rides {
		rows = append(rows, []string{
			r.ID,
			r.Timestamp,
			r.DriverID,
			r.Product,
			strconv.FormatFloat(r.PickupLat, 'f', 6, 64),
			strconv.FormatFloat(r.PickupLon, 'f', 6, 64),
			strconv.FormatFloat(r.DropLat, 'f', 6, 64),
			strconv.FormatFloat(r.DropLon, 'f', 6, 64),
			strconv.FormatFloat(r.DistanceKm, 'f', 2, 64),
			strconv.FormatBool(r.IsSurge),
			strconv.FormatFloat(r.FareUSD, 'f', 2, 64),
		})
	}
	return writeCSV(path, rows)
}

// ---- shared generator helpers ----

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s before start date %s", endStr, startStr)
	}
	return start, end, nil
}

// randomTime picks a uniformly random second within [start, end+24h).
func randomTime(rng *rand.Rand, start, end time.Time) time.Time {
	span := end.AddDate(0, 0, 1).Sub(start)
	return start.Add(time.Duration(rng.Int63n(int64(span / time.Second))) * time.Second)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func btof(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
