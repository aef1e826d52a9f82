package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizforge-org/vizforge/config"
	"github.com/vizforge-org/vizforge/engine"
)

func testRidesConfig() config.RidesConfig {
	cfg := config.Default().Rides
	cfg.NRides = 500
	cfg.NDrivers = 50
	return cfg
}

func TestRidesGenerate(t *testing.T) {
	dir := t.TempDir()
	g := NewRidesGenerator(testRidesConfig(), nil)
	require.NoError(t, g.Generate(dir))

	for _, name := range []string{"driver_profiles.csv", "rides.csv", "kpi.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s to be written", name)
	}
}

func TestRidesRowBounds(t *testing.T) {
	cfg := testRidesConfig()
	rng := rand.New(rand.NewSource(cfg.Seed))
	g := NewRidesGenerator(cfg, nil)
	start, _ := time.Parse("2006-01-02", cfg.StartDate)
	end, _ := time.Parse("2006-01-02", cfg.EndDate)

	drivers := g.generateDrivers(rng)
	rides := g.generateRides(rng, drivers, start, end)

	require.Len(t, drivers, cfg.NDrivers)
	require.Len(t, rides, cfg.NRides)

	driverIDs := make(map[string]bool, len(drivers))
	for _, d := range drivers {
		driverIDs[d.ID] = true
		assert.GreaterOrEqual(t, d.Rating, 4.6)
		assert.LessOrEqual(t, d.Rating, 5.0)
	}

	products := make(map[string]bool, len(cfg.Products))
	for _, p := range cfg.Products {
		products[p] = true
	}

	// Max fare: 25 km at full surge, (2.5 + 25*1.75) * 3.0.
	const maxFare = 138.75
	for _, r := range rides {
		assert.True(t, driverIDs[r.DriverID], "ride references unknown driver %s", r.DriverID)
		assert.True(t, products[r.Product], "unknown product %s", r.Product)
		assert.GreaterOrEqual(t, r.DistanceKm, 1.0)
		assert.LessOrEqual(t, r.DistanceKm, 25.0)
		assert.Greater(t, r.FareUSD, 0.0)
		assert.LessOrEqual(t, r.FareUSD, maxFare)
		assert.GreaterOrEqual(t, r.PickupLat, cfg.BBox.LatMin)
		assert.LessOrEqual(t, r.PickupLat, cfg.BBox.LatMax)

		ts, err := time.Parse(rideTimestampFormat, r.Timestamp)
		require.NoError(t, err)
		assert.False(t, ts.Before(start))
		assert.True(t, ts.Before(end.AddDate(0, 0, 1)))

		if !r.IsSurge {
			// Non-surge fares follow the base formula exactly.
			assert.Equal(t, engine.RoundTo2(2.5+r.DistanceKm*1.75), r.FareUSD)
		}
	}
}

func TestRidesKPIsMatchData(t *testing.T) {
	cfg := testRidesConfig()
	rng := rand.New(rand.NewSource(cfg.Seed))
	g := NewRidesGenerator(cfg, nil)
	start, _ := time.Parse("2006-01-02", cfg.StartDate)
	end, _ := time.Parse("2006-01-02", cfg.EndDate)
	rides := g.generateRides(rng, g.generateDrivers(rng), start, end)

	kpis := RideKPIs(rides)
	require.Equal(t, float64(cfg.NRides), kpis["total_rides"])

	var fareSum, distSum, surgeCount float64
	for _, r := range rides {
		fareSum += r.FareUSD
		distSum += r.DistanceKm
		if r.IsSurge {
			surgeCount++
		}
	}
	n := float64(len(rides))
	assert.Equal(t, engine.RoundTo2(fareSum/n), kpis["avg_fare_usd"])
	assert.Equal(t, engine.RoundTo2(distSum/n), kpis["avg_distance_km"])
	assert.Equal(t, engine.RoundTo1(surgeCount/n*100), kpis["pct_surge"])
}

func TestRidesDeterministic(t *testing.T) {
	cfg := testRidesConfig()
	dirA, dirB := t.TempDir(), t.TempDir()
	require.NoError(t, NewRidesGenerator(cfg, nil).Generate(dirA))
	require.NoError(t, NewRidesGenerator(cfg, nil).Generate(dirB))

	for _, name := range []string{"driver_profiles.csv", "rides.csv", "kpi.json"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, "%s differs between identically seeded runs", name)
	}
}

func TestRidesInvalidDates(t *testing.T) {
	cfg := testRidesConfig()
	cfg.StartDate = "06/30/2025"
	err := NewRidesGenerator(cfg, nil).Generate(t.TempDir())
	require.Error(t, err)

	cfg = testRidesConfig()
	cfg.StartDate, cfg.EndDate = cfg.EndDate, cfg.StartDate
	err = NewRidesGenerator(cfg, nil).Generate(t.TempDir())
	require.Error(t, err)
}
