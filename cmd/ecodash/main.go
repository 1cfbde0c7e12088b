package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/san-kum/ecodash/internal/analysis"
	"github.com/san-kum/ecodash/internal/chart"
	"github.com/san-kum/ecodash/internal/config"
	"github.com/san-kum/ecodash/internal/filter"
	"github.com/san-kum/ecodash/internal/observe"
	"github.com/san-kum/ecodash/internal/render"
	"github.com/san-kum/ecodash/internal/server"
	"github.com/san-kum/ecodash/internal/storage"
	"github.com/san-kum/ecodash/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configFile string
	preset     string
	dataDir    string
	seed       int64
	startYear  int
	endYear    int
	species    []string
	theme      string
	runID      string
	verbose    bool
	// generate
	tableFormat string
	save        bool
	// plot
	plotWidth  int
	plotHeight int
	color      bool
	// render
	outDir      string
	imageFormat string
	imageWidth  int
	imageHeight int
	// analyze
	summaryFormat string
	ensembleRuns  int
	// serve
	addr string
	// export-pg
	dsn string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd registers commands and flags. The root command runs the
// terminal dashboard when no subcommand is given.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ecodash",
		Short:         "climate change and biodiversity dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDashboard,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	pf.IntVar(&startYear, "start", observe.DefaultStartYear, "first year")
	pf.IntVar(&endYear, "end", observe.DefaultEndYear, "last year")
	pf.StringArrayVar(&species, "species", nil, "species column to show (repeatable)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "generate and print an observation table",
		Args:  cobra.NoArgs,
		RunE:  generateTable,
	}
	generateCmd.Flags().StringVar(&tableFormat, "format", "table", "output format (table, csv, json)")
	generateCmd.Flags().BoolVar(&save, "save", false, "save the table as a run")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "print the dashboard charts as terminal graphs",
		Args:  cobra.NoArgs,
		RunE:  plotDashboard,
	}
	plotCmd.Flags().StringVar(&runID, "run", "", "plot a saved run instead of generating")
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "graph width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "graph height")
	plotCmd.Flags().BoolVar(&color, "color", true, "colored output")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "write the dashboard charts as image files",
		Args:  cobra.NoArgs,
		RunE:  renderDashboard,
	}
	renderCmd.Flags().StringVar(&runID, "run", "", "render a saved run instead of generating")
	renderCmd.Flags().StringVar(&outDir, "out", "charts", "output directory")
	renderCmd.Flags().StringVar(&imageFormat, "format", "png", "image format (png, svg)")
	renderCmd.Flags().IntVar(&imageWidth, "width", config.DefaultWidth, "image width")
	renderCmd.Flags().IntVar(&imageHeight, "height", config.DefaultHeight, "image height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "temperature vs population correlation summary",
		Args:  cobra.NoArgs,
		RunE:  analyzeTable,
	}
	analyzeCmd.Flags().StringVar(&runID, "run", "", "analyze a saved run instead of generating")
	analyzeCmd.Flags().StringVar(&summaryFormat, "format", "text", "output format (text, json, yaml)")
	analyzeCmd.Flags().IntVar(&ensembleRuns, "ensemble", 0, "also summarize this many consecutive seeds")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE:  serveDashboard,
	}
	serveCmd.Flags().StringVar(&runID, "run", "", "serve a saved run instead of generating")
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and table",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportPGCmd := &cobra.Command{
		Use:   "export-pg [run_id]",
		Short: "upload a saved run to postgres",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPostgres,
	}
	exportPGCmd.Flags().StringVar(&dsn, "dsn", os.Getenv("ECODASH_DSN"), "postgres connection string")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tYEARS\tWARMING\tSPECIES")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d-%d\t%.1f°C\t%s\n",
					name, cfg.StartYear, cfg.EndYear, cfg.Warming.Max,
					strings.Join(cfg.SpeciesNames(), ", "))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(generateCmd, plotCmd, renderCmd, analyzeCmd, serveCmd, listCmd, showCmd, exportPGCmd, presetsCmd)
	return rootCmd
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers preset, config file and explicitly set flags, in that
// order, over the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("start") {
		cfg.StartYear = startYear
	}
	if flags.Changed("end") {
		cfg.EndYear = endYear
	}
	if flags.Changed("species") {
		cfg.Selection = species
	}
	if flags.Changed("data") {
		cfg.Output.DataDir = dataDir
	}
	if flags.Changed("theme") {
		cfg.Output.Theme = theme
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadTable returns the table of the run named by --run, or a freshly
// generated one. The second result is the seed actually used.
func loadTable(cfg *config.Config) (*observe.Table, int64, error) {
	if runID != "" {
		st := storage.New(cfg.Output.DataDir)
		meta, err := st.Load(runID)
		if err != nil {
			return nil, 0, err
		}
		tbl, err := st.LoadTable(runID)
		return tbl, meta.Seed, err
	}

	s := cfg.Seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	tbl, err := observe.Generate(cfg.Params(), observe.NewSource(s))
	return tbl, s, err
}

func selectionFor(cfg *config.Config, tbl *observe.Table) (filter.Selection, error) {
	if len(cfg.Selection) == 0 {
		return filter.Default(tbl.SpeciesNames()), nil
	}
	return filter.New(tbl.SpeciesNames(), cfg.Selection)
}

func firstSpecies(tbl *observe.Table) string {
	if names := tbl.SpeciesNames(); len(names) > 0 {
		return names[0]
	}
	return ""
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return viz.Run(viz.Options{
		Title:     cfg.Title,
		Params:    cfg.Params(),
		Seed:      cfg.Seed,
		Selection: cfg.Selection,
		Theme:     cfg.Output.Theme,
		Saver:     storage.New(cfg.Output.DataDir),
	})
}

func generateTable(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tbl, usedSeed, err := loadTable(cfg)
	if err != nil {
		return err
	}

	switch tableFormat {
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, strings.Join(tbl.Columns(), "\t")+"\t")
		names := tbl.SpeciesNames()
		for _, r := range tbl.Rows() {
			fmt.Fprintf(w, "%d\t%.3f\t", r.Year, r.Temperature)
			for _, name := range names {
				fmt.Fprintf(w, "%.1f\t", r.Populations[name])
			}
			fmt.Fprintln(w)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	case "csv":
		if err := storage.WriteCSV(os.Stdout, tbl); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tbl.Rows()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s (available: table, csv, json)", tableFormat)
	}

	if !save {
		return nil
	}
	sum, err := analysis.Summarize(tbl)
	if err != nil {
		return err
	}
	st := storage.New(cfg.Output.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(cfg.Params(), usedSeed, tbl, sum.Metrics())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %s (seed %d)\n", id, usedSeed)
	return nil
}

func buildDashboard(cmd *cobra.Command) (*config.Config, *observe.Table, *chart.Dashboard, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	tbl, _, err := loadTable(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	sel, err := selectionFor(cfg, tbl)
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := chart.Build(tbl, sel)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, tbl, d, nil
}

func plotDashboard(cmd *cobra.Command, args []string) error {
	cfg, tbl, d, err := buildDashboard(cmd)
	if err != nil {
		return err
	}

	years := tbl.Years()
	fmt.Println(cfg.Title)
	fmt.Printf("years: %d-%d\n\n", years[0], years[len(years)-1])

	opts := render.TextOptions{Width: plotWidth, Height: plotHeight, Color: color}
	for _, id := range chart.IDs {
		spec, _ := d.Get(id)
		fmt.Println(spec.Title)
		fmt.Println(render.Text(spec, opts))
		fmt.Println()
	}

	sum, err := analysis.Summarize(tbl)
	if err != nil {
		return err
	}
	if sp, ok := sum.Get(d.Correlation.YLabel); ok {
		fmt.Println(analysis.Insight(sp))
	}
	return nil
}

func renderDashboard(cmd *cobra.Command, args []string) error {
	f, err := render.ParseFormat(imageFormat)
	if err != nil {
		return err
	}
	cfg, _, d, err := buildDashboard(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("width") {
		cfg.Output.Width = imageWidth
	}
	if cmd.Flags().Changed("height") {
		cfg.Output.Height = imageHeight
	}

	paths, err := render.WriteDashboard(outDir, d, render.ImageOptions{
		Width:  cfg.Output.Width,
		Height: cfg.Output.Height,
		Format: f,
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

type analysisReport struct {
	Summary  *analysis.Summary       `json:"summary" yaml:"summary"`
	Ensemble []analysis.EnsembleStat `json:"ensemble,omitempty" yaml:"ensemble,omitempty"`
}

func analyzeTable(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tbl, usedSeed, err := loadTable(cfg)
	if err != nil {
		return err
	}
	sum, err := analysis.Summarize(tbl)
	if err != nil {
		return err
	}

	report := analysisReport{Summary: sum}
	if ensembleRuns > 0 {
		runs, err := analysis.NewEnsemble(cfg.Params(), ensembleRuns, usedSeed).Run(cmd.Context())
		if err != nil {
			return err
		}
		report.Ensemble = analysis.Aggregate(runs)
	}

	switch summaryFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(report)
	case "text":
	default:
		return fmt.Errorf("unknown format: %s (available: text, json, yaml)", summaryFormat)
	}

	fmt.Printf("years: %d\n", sum.Years)
	fmt.Printf("warming: %+.2f °C\n\n", sum.Warming)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tPEARSON\tSTRENGTH\tSLOPE\tR2\tCHANGE")
	for _, sp := range sum.Species {
		fmt.Fprintf(w, "%s\t%.3f\t%s\t%.1f\t%.3f\t%+.1f%%\n",
			sp.Column, sp.Pearson, analysis.Strength(sp.Pearson), sp.Slope, sp.R2, sp.Change()*100)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(report.Ensemble) > 0 {
		fmt.Printf("\nensemble of %d seeds from %d:\n", ensembleRuns, usedSeed)
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SPECIES\tNEGATIVE\tMEAN R\tSTD R\tMEAN SLOPE")
		for _, st := range report.Ensemble {
			fmt.Fprintf(w, "%s\t%.0f%%\t%.3f\t%.3f\t%.1f\n",
				st.Column, st.NegativeShare()*100, st.MeanPearson, st.StdPearson, st.MeanSlope)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	sel, err := selectionFor(cfg, tbl)
	if err != nil {
		return err
	}
	if sp, ok := sum.Get(sel.First(firstSpecies(tbl))); ok {
		fmt.Println()
		fmt.Println(analysis.Insight(sp))
	}
	return nil
}

func serveDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger()

	tbl, usedSeed, err := loadTable(cfg)
	if err != nil {
		return err
	}
	log.Info("table ready", "rows", tbl.Len(), "species", len(tbl.SpeciesNames()), "seed", usedSeed)

	srv, err := server.New(tbl, server.Options{
		Title:     cfg.Title,
		Selection: cfg.Selection,
		Width:     cfg.Output.Width,
		Height:    cfg.Output.Height,
	}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server.Addr)
}

// runStore opens the run directory named by the layered config, so
// --config and --preset data_dir settings apply like --data does.
func runStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.Output.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSEED\tYEARS\tWARMING\tSPECIES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d-%d\t%.1f\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.StartYear,
			run.EndYear,
			run.TempMax,
			len(run.Species),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportPostgres(cmd *cobra.Command, args []string) error {
	if dsn == "" {
		return fmt.Errorf("no postgres dsn: pass --dsn or set ECODASH_DSN")
	}
	log := newLogger()

	st, err := runStore(cmd)
	if err != nil {
		return err
	}
	tbl, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		return err
	}
	n, err := storage.Upload(ctx, db, args[0], tbl)
	if err != nil {
		return err
	}
	log.Info("exported run", "run", args[0], "rows", n)
	return nil
}
