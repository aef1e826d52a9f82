package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	openbrowser "github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vizforge-org/vizforge/browser"
	"github.com/vizforge-org/vizforge/config"
	"github.com/vizforge-org/vizforge/dashboard"
	"github.com/vizforge-org/vizforge/dataset"
	"github.com/vizforge-org/vizforge/engine"
	"github.com/vizforge-org/vizforge/helpers"
	"github.com/vizforge-org/vizforge/schema"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vizforge",
	Short: "vizforge - synthetic datasets and static Plotly dashboards",
	Long: `vizforge generates seeded synthetic datasets (rideshare trips,
medical charges), harmonizes their CSV schemas onto canonical columns
and renders self-contained HTML dashboards from them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.With(zap.String("run_id", uuid.NewString()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// generateCmd writes one domain's synthetic dataset.
var generateCmd = &cobra.Command{
	Use:       "generate [rides|charges]",
	Short:     "Generate a synthetic dataset",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"rides", "charges"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		domain := args[0]
		outDir := generateOut
		if outDir == "" {
			outDir = filepath.Join("data", domain)
		}
		switch domain {
		case "rides":
			return dataset.NewRidesGenerator(cfg.Rides, logger).Generate(outDir)
		case "charges":
			return dataset.NewChargesGenerator(cfg.Charges, logger).Generate(outDir)
		default:
			return fmt.Errorf("unknown dataset %q (want rides or charges)", domain)
		}
	},
}

// renderCmd builds one domain's dashboard from its dataset.
var renderCmd = &cobra.Command{
	Use:       "render [rides|charges]",
	Short:     "Render a dashboard from a generated dataset",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"rides", "charges"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		domain := args[0]
		dataDir := renderData
		if dataDir == "" {
			dataDir = filepath.Join("data", domain)
		}
		htmlPath, err := renderDomain(cfg, domain, dataDir, renderOut)
		if err != nil {
			return err
		}

		if renderPNG {
			pngPath := strings.TrimSuffix(htmlPath, ".html") + ".png"
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			err := browser.CapturePNG(ctx, htmlPath, pngPath, browser.DefaultCaptureOptions())
			cancel()
			if err != nil {
				// Missing Chromium must not fail the render.
				logger.Warn("PNG not created", zap.Error(err))
			} else {
				logger.Info("PNG written", zap.String("path", pngPath))
			}
		}

		if !renderNoBrowser {
			if err := openbrowser.OpenFile(htmlPath); err != nil {
				logger.Warn("could not open browser", zap.Error(err))
			}
		}
		return nil
	},
}

// inspectCmd discovers and prints the schema of an arbitrary CSV.
var inspectCmd = &cobra.Command{
	Use:   "inspect [file.csv]",
	Short: "Discover and print the schema of a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		sch, err := schema.DiscoverFromCSV(data)
		if err != nil {
			return fmt.Errorf("discover %s: %w", args[0], err)
		}
		records, err := helpers.ParseCSV(data, *sch)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		view := engine.NewSliceView(records)
		fmt.Printf("%s: %d rows\n", args[0], len(records))
		fmt.Println("dimensions:")
		for _, d := range sch.Dimensions {
			fmt.Printf("  %-24s cardinality=%-7s samples=%s\n",
				d.Key, d.CardinalityHint, strings.Join(d.SampleValues, ", "))
		}
		fmt.Println("measures:")
		for _, m := range sch.Measures {
			if m.IsSynthetic {
				continue
			}
			fmt.Printf("  %-24s sum=%.2f mean=%.2f\n",
				m.Key,
				engine.SumMeasure(view, m.Key),
				engine.MeanMeasure(view, m.Key))
		}
		for _, s := range sch.SkippedColumns {
			fmt.Printf("skipped: %s (%s)\n", s.Column, s.Reason)
		}
		return nil
	},
}

// serveCmd serves rendered dashboards and re-renders on data changes.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dashboards over HTTP, re-rendering when data changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

var (
	generateOut     string
	renderData      string
	renderOut       string
	renderPNG       bool
	renderNoBrowser bool
	serveAddr       string
	serveData       string
	serveOut        string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults built in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	generateCmd.Flags().StringVar(&generateOut, "out", "", "output directory (default data/<dataset>)")

	renderCmd.Flags().StringVar(&renderData, "data", "", "dataset directory (default data/<dataset>)")
	renderCmd.Flags().StringVar(&renderOut, "out", "outputs", "output directory")
	renderCmd.Flags().BoolVar(&renderPNG, "png", false, "also capture a PNG with headless Chromium")
	renderCmd.Flags().BoolVar(&renderNoBrowser, "no-browser", false, "do not open the dashboard in a browser")

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveData, "data", "data", "root data directory")
	serveCmd.Flags().StringVar(&serveOut, "out", "outputs", "output directory")

	rootCmd.AddCommand(generateCmd, renderCmd, inspectCmd, serveCmd)
}

// domainFiles names the per-domain inputs of the render pipeline.
type domainFiles struct {
	facts    string
	dims     string
	factKey  string
	dimKey   string
	dash     func(config.Config) config.DashboardConfig
	htmlName string
}

var domains = map[string]domainFiles{
	"rides": {
		facts:    "rides.csv",
		dims:     "driver_profiles.csv",
		factKey:  "driver_id",
		dimKey:   "driver_id",
		dash:     func(c config.Config) config.DashboardConfig { return c.Dashboards.Rides },
		htmlName: "rides_dashboard.html",
	},
	"charges": {
		facts:    "charges.csv",
		dims:     "provider_locations.csv",
		factKey:  "provider_id",
		dimKey:   "provider_id",
		dash:     func(c config.Config) config.DashboardConfig { return c.Dashboards.Charges },
		htmlName: "charges_dashboard.html",
	},
}

// renderDomain runs the full pipeline for one domain and returns the path
// of the written HTML file.
func renderDomain(cfg config.Config, domain, dataDir, outDir string) (string, error) {
	df, ok := domains[domain]
	if !ok {
		return "", fmt.Errorf("unknown dataset %q (want rides or charges)", domain)
	}

	factsPath := filepath.Join(dataDir, df.facts)
	dimsPath := filepath.Join(dataDir, df.dims)
	kpiPath := filepath.Join(dataDir, "kpi.json")
	for _, p := range []string{factsPath, dimsPath, kpiPath} {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("missing input %s (run `vizforge generate %s` first): %w", p, domain, err)
		}
	}

	rules := harmonizeRules(cfg.Harmonize)

	factData, err := os.ReadFile(factsPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", factsPath, err)
	}
	factHeaders, err := helpers.ReadHeaders(factData)
	if err != nil {
		return "", fmt.Errorf("%s: %w", factsPath, err)
	}
	factMapping, err := schema.Harmonize(factHeaders, rules)
	if err != nil {
		return "", fmt.Errorf("harmonize %s: %w", factsPath, err)
	}
	facts, err := helpers.ParseCSVHarmonized(factData, factMapping)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", factsPath, err)
	}

	dimData, err := os.ReadFile(dimsPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dimsPath, err)
	}
	dimHeaders, err := helpers.ReadHeaders(dimData)
	if err != nil {
		return "", fmt.Errorf("%s: %w", dimsPath, err)
	}
	dimMapping, err := schema.HarmonizeDimensions(dimHeaders, rules)
	if err != nil {
		return "", fmt.Errorf("harmonize %s: %w", dimsPath, err)
	}
	dims, err := helpers.ParseCSVHarmonized(dimData, dimMapping)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", dimsPath, err)
	}

	records := helpers.LeftJoin(facts, dims, df.factKey, df.dimKey,
		map[string]string{schema.CanonicalCity: factMapping.FallbackCity})
	helpers.FillDimension(records, schema.CanonicalCity, factMapping.FallbackCity)

	kpis, err := dataset.ReadKPIs(kpiPath)
	if err != nil {
		return "", err
	}

	view := engine.NewSliceView(records)
	logger.Info("dataset loaded",
		zap.String("dataset", domain),
		zap.Int("rows", view.Len()),
		zap.String("amount_column", factMapping.Amount),
		zap.String("period", engine.DerivePeriod(view)))

	dashCfg := df.dash(cfg)
	figures, err := dashboard.BuildAll(dashCfg.Figures, &dashboard.BuildContext{
		View: view,
		KPIs: kpis,
	})
	if err != nil {
		return "", err
	}

	title := fmt.Sprintf("%s (%s)", dashCfg.Title, engine.DerivePeriod(view))
	html, err := dashboard.Assemble(title, cfg.Dashboards.Theme, figures)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	htmlPath := filepath.Join(outDir, df.htmlName)
	if err := dashboard.WriteDashboard(htmlPath, html); err != nil {
		return "", err
	}
	logger.Info("dashboard written", zap.String("path", htmlPath))
	return htmlPath, nil
}

// harmonizeRules overlays configured matchers on the defaults.
func harmonizeRules(hc config.HarmonizeConfig) schema.Rules {
	rules := schema.DefaultRules()
	if len(hc.AmountSubstrings) > 0 {
		rules.AmountSubstrings = hc.AmountSubstrings
	}
	if len(hc.CityPatterns) > 0 {
		rules.CityPatterns = hc.CityPatterns
	}
	if len(hc.LatPatterns) > 0 {
		rules.LatPatterns = hc.LatPatterns
	}
	if len(hc.LonPatterns) > 0 {
		rules.LonPatterns = hc.LonPatterns
	}
	if hc.FallbackCity != "" {
		rules.FallbackCity = hc.FallbackCity
	}
	return rules
}

// runServe serves outDir over HTTP and re-renders any domain whose data
// directory changes.
func runServe(ctx context.Context, cfg config.Config) error {
	renderAll := func() {
		for domain := range domains {
			dataDir := filepath.Join(serveData, domain)
			if _, err := os.Stat(dataDir); err != nil {
				continue // domain not generated yet
			}
			if _, err := renderDomain(cfg, domain, dataDir, serveOut); err != nil {
				logger.Warn("render failed", zap.String("dataset", domain), zap.Error(err))
			}
		}
	}
	renderAll()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watchDirs := []string{serveData}
	for domain := range domains {
		watchDirs = append(watchDirs, filepath.Join(serveData, domain))
	}
	for _, dir := range watchDirs {
		if _, err := os.Stat(dir); err == nil {
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch", zap.String("dir", dir), zap.Error(err))
			}
		}
	}

	// Debounce bursts of writes into one re-render.
	var debounce *time.Timer
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				ext := filepath.Ext(ev.Name)
				if ext != ".csv" && ext != ".json" {
					continue
				}
				logger.Debug("data changed", zap.String("file", ev.Name))
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, renderAll)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	r := mux.NewRouter()
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(serveOut)))

	srv := &http.Server{Addr: serveAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving dashboards",
		zap.String("addr", serveAddr),
		zap.String("dir", serveOut))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
