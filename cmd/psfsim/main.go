package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/psfsim/internal/config"
	"github.com/san-kum/psfsim/internal/render"
	"github.com/san-kum/psfsim/internal/scene"
	"github.com/san-kum/psfsim/internal/store"
	"github.com/san-kum/psfsim/internal/tui"
	"github.com/san-kum/psfsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	width   int
	height  int
	sources int
	seed    int64
	minSep  float64
	workers int

	fwhm         float64
	oversampling int
	policy       string

	outPath string
	jsonOut bool
	noSave  bool

	profileRadius  float64
	profileSamples int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "psfsim",
		Short: "PSF image models and synthetic scene generation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".psfsim", "data directory")

	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "generate a synthetic scene",
		RunE:  runScene,
	}
	sceneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sceneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sceneCmd.Flags().IntVar(&width, "width", config.DefaultWidth, "canvas width")
	sceneCmd.Flags().IntVar(&height, "height", config.DefaultHeight, "canvas height")
	sceneCmd.Flags().IntVar(&sources, "sources", config.DefaultSources, "requested source count")
	sceneCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	sceneCmd.Flags().Float64Var(&minSep, "min-sep", config.DefaultMinSeparation, "minimum source separation")
	sceneCmd.Flags().IntVar(&workers, "workers", 1, "parallel patch workers")
	sceneCmd.Flags().Float64Var(&fwhm, "fwhm", config.DefaultFWHM, "psf fwhm in pixels")
	sceneCmd.Flags().IntVar(&oversampling, "oversampling", config.DefaultOversampling, "psf oversampling factor")
	sceneCmd.Flags().StringVar(&policy, "policy", "global-flux", "normalization policy (global-flux|aperture)")
	sceneCmd.Flags().BoolVar(&jsonOut, "json", false, "print the scene as json instead of a table")
	sceneCmd.Flags().BoolVar(&noSave, "no-save", false, "skip writing the run directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "interactive canvas viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a run's canvas to png",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&outPath, "out", "", "output png path (default <run_id>.png)")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "plot the psf radial profile",
		RunE:  profilePSF,
	}
	profileCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	profileCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	profileCmd.Flags().Float64Var(&fwhm, "fwhm", config.DefaultFWHM, "psf fwhm in pixels")
	profileCmd.Flags().IntVar(&oversampling, "oversampling", config.DefaultOversampling, "psf oversampling factor")
	profileCmd.Flags().StringVar(&policy, "policy", "global-flux", "normalization policy")
	profileCmd.Flags().Float64Var(&profileRadius, "radius", 6, "maximum profile radius in pixels")
	profileCmd.Flags().IntVar(&profileSamples, "samples", 25, "number of radial samples")
	profileCmd.Flags().StringVar(&outPath, "png", "", "also save the profile as png")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outPath, "out", "", "output path (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(sceneCmd, listCmd, viewCmd, renderCmd, profileCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfig layers flag overrides on top of a file, preset, or the
// defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		c := *p
		cfg = &c
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Scene.Width = width
	}
	if flags.Changed("height") {
		cfg.Scene.Height = height
	}
	if flags.Changed("sources") {
		cfg.Scene.Sources = sources
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("min-sep") {
		cfg.Scene.MinSeparation = minSep
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("fwhm") {
		cfg.PSF.FWHM = fwhm
	}
	if flags.Changed("oversampling") {
		cfg.PSF.Oversampling = oversampling
	}
	if flags.Changed("policy") {
		cfg.PSF.Policy = policy
	}
	return cfg, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	model, err := cfg.BuildModel()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sc, err := scene.Generate(ctx, cfg.SceneShape(), model, cfg.Scene.Sources, cfg.SceneConfig())
	if err != nil {
		return err
	}

	meta := store.RunMetadata{
		Seed:      cfg.Seed,
		Policy:    cfg.PSF.Policy,
		Requested: cfg.Scene.Sources,
	}

	if jsonOut {
		return store.ExportJSONStdout(sc, meta)
	}

	fmt.Print(viz.SourceTable(sc.Sources))

	if noSave {
		return nil
	}
	s := store.New(dataDir)
	if err := s.Init(); err != nil {
		return err
	}
	id, err := s.Save(sc, meta)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tSOURCES\tPOLICY\tTOTAL FLUX")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d/%d\t%s\t%.1f\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04"),
			r.Width, r.Height, r.Accepted, r.Requested, r.Policy, r.TotalFlux)
	}
	return w.Flush()
}

func viewRun(cmd *cobra.Command, args []string) error {
	s := store.New(dataDir)
	canvas, err := s.LoadCanvas(args[0])
	if err != nil {
		return err
	}
	srcs, err := s.LoadSources(args[0])
	if err != nil {
		return err
	}
	return tui.Run(args[0], canvas, srcs)
}

func renderRun(cmd *cobra.Command, args []string) error {
	canvas, err := store.New(dataDir).LoadCanvas(args[0])
	if err != nil {
		return err
	}
	out := outPath
	if out == "" {
		out = args[0] + ".png"
	}
	if err := render.HeatMapPNG(out, canvas, args[0]); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func profilePSF(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.BuildModel()
	if err != nil {
		return err
	}
	model.SetFlux(1)

	radii, values := viz.RadialProfile(model, 0, 0, profileRadius, profileSamples)
	caption := fmt.Sprintf("psf radial profile (fwhm %.1f, %s)", cfg.PSF.FWHM, cfg.PSF.Policy)
	fmt.Println(viz.ProfileChart(values, caption))

	if outPath != "" {
		if err := render.ProfilePNG(outPath, radii, values, caption); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	s := store.New(dataDir)
	meta, err := s.Load(args[0])
	if err != nil {
		return err
	}
	canvas, err := s.LoadCanvas(args[0])
	if err != nil {
		return err
	}
	srcs, err := s.LoadSources(args[0])
	if err != nil {
		return err
	}

	sc := &scene.Scene{Canvas: canvas, Sources: scene.NewTable(srcs)}
	if outPath == "" {
		return store.ExportJSONStdout(sc, *meta)
	}
	if err := store.ExportJSON(outPath, sc, *meta); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}
