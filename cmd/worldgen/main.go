package main

import (
	"flag"
	"log/slog"
	"os"

	"world-explorer/internal/config"

	"github.com/xlab/closer"
)

type options struct {
	configPath string
	load       string
	newMap     string
	out        string
	preview    string
	heightView bool
	smooth     bool
	normalize  bool
	list       bool
	explore    int
	endless    bool
	verbose    bool
}

func main() {
	cfg := config.DefaultConfig()
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "JSON config file")
	flag.StringVar(&cfg.MapDir, "maps", cfg.MapDir, "directory holding .hm maps")
	flag.StringVar(&cfg.CacheDir, "cache", cfg.CacheDir, "download cache for remote maps")
	flag.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "generation strategy: flat, noise or tectonic")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "map width in cells")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "map height in cells")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.IntVar(&cfg.FaultCount, "faults", cfg.FaultCount, "number of fault lines")
	flag.StringVar(&cfg.DetailNoise, "detail-noise", cfg.DetailNoise, "detail noise kind: perlin, ridged, cellular or value")
	flag.StringVar(&cfg.BaseNoise, "base-noise", cfg.BaseNoise, "tectonic base noise kind")
	flag.IntVar(&cfg.ErosionDrops, "drops", cfg.ErosionDrops, "raindrops to simulate (0 disables erosion)")
	flag.StringVar(&cfg.ErosionMode, "erosion-mode", cfg.ErosionMode, "erosion decrement: cell or visit")
	flag.IntVar(&cfg.MapChunkSize, "chunk-size", cfg.MapChunkSize, "vertices per chunk side")
	flag.Func("height-multiplier", "mesh height scale", func(s string) error {
		return parseFloat32(s, &cfg.HeightMultiplier)
	})
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "background workers")
	flag.IntVar(&cfg.PreviewScale, "preview-scale", cfg.PreviewScale, "preview pixels per cell")

	flag.StringVar(&opts.load, "load", "", "load a map by name, URL or go-getter source instead of generating")
	flag.StringVar(&opts.newMap, "new", "", "write a flat placeholder map with this name and exit")
	flag.StringVar(&opts.out, "out", "", "save the final map under this name")
	flag.StringVar(&opts.preview, "preview", "", "write a preview image (.png or .bmp)")
	flag.BoolVar(&opts.heightView, "preview-heights", false, "render heights in grayscale instead of biomes")
	flag.BoolVar(&opts.smooth, "preview-smooth", false, "smooth preview scaling")
	flag.BoolVar(&opts.normalize, "normalize", true, "rescale heights outside [0,1] before erosion")
	flag.BoolVar(&opts.list, "list", false, "list stored maps and exit")
	flag.IntVar(&opts.explore, "explore", 0, "walk a viewer this many steps across the map")
	flag.BoolVar(&opts.endless, "endless", false, "stream chunks around the viewer instead of using the map")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if opts.configPath != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		fromFile, err := config.Load(opts.configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	closer.Checked(func() error {
		return run(cfg, opts, log)
	}, true)
}
