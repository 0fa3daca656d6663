package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// ErrInvalidConfig is returned by Validate for settings that cannot be repaired.
var ErrInvalidConfig = errors.New("invalid config")

// LOD is one rung of the level-of-detail ladder.
type LOD struct {
	Level           int     `json:"level"`
	MinViewDistance float32 `json:"min_view_distance"`
}

// Config holds the terrain pipeline configuration.
type Config struct {
	MapDir   string `json:"map_dir"`
	CacheDir string `json:"cache_dir"` // download cache for remote maps ("" = <map_dir>/.cache)

	Strategy string `json:"strategy"` // "flat", "noise" or "tectonic"
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Seed     int64  `json:"seed"`

	FaultCount int     `json:"fault_count"`
	FaultStep  float64 `json:"fault_step"`

	// noise kinds: "perlin", "ridged", "cellular" or "value"
	DetailNoise string `json:"detail_noise"` // noise strategy and tectonic detail layer
	BaseNoise   string `json:"base_noise"`   // tectonic base layer

	ErosionDrops  int     `json:"erosion_drops"`
	ErosionMode   string  `json:"erosion_mode"` // "cell" or "visit"
	ErosionFill   float32 `json:"erosion_fill"` // 0 disables climbing out of pits
	DropLifespan  int     `json:"drop_lifespan"`
	ErosionAmount float32 `json:"erosion_amount"`

	MapChunkSize     int     `json:"map_chunk_size"`
	HeightMultiplier float32 `json:"height_multiplier"`
	LODs             []LOD   `json:"lods"`

	Workers   int `json:"workers"`
	QueueSize int `json:"queue_size"`

	PreviewScale int `json:"preview_scale"` // output pixels per cell
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MapDir:           "maps",
		Strategy:         "tectonic",
		Width:            721,
		Height:           721,
		FaultCount:       1,
		FaultStep:        100,
		DetailNoise:      "perlin",
		BaseNoise:        "perlin",
		ErosionDrops:     500,
		ErosionMode:      "cell",
		DropLifespan:     100,
		ErosionAmount:    0.05,
		MapChunkSize:     241,
		HeightMultiplier: 30,
		LODs: []LOD{
			{Level: 0, MinViewDistance: 200},
			{Level: 2, MinViewDistance: 400},
			{Level: 4, MinViewDistance: 600},
		},
		Workers:      runtime.NumCPU(),
		QueueSize:    256,
		PreviewScale: 1,
	}
}

// Load reads a JSON config file. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["maps"] {
		cfg.MapDir = fromFile.MapDir
	}
	if !explicitFlags["cache"] {
		cfg.CacheDir = fromFile.CacheDir
	}
	if !explicitFlags["strategy"] {
		cfg.Strategy = fromFile.Strategy
	}
	if !explicitFlags["width"] {
		cfg.Width = fromFile.Width
	}
	if !explicitFlags["height"] {
		cfg.Height = fromFile.Height
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["faults"] {
		cfg.FaultCount = fromFile.FaultCount
	}
	cfg.FaultStep = fromFile.FaultStep
	if !explicitFlags["detail-noise"] {
		cfg.DetailNoise = fromFile.DetailNoise
	}
	if !explicitFlags["base-noise"] {
		cfg.BaseNoise = fromFile.BaseNoise
	}
	if !explicitFlags["drops"] {
		cfg.ErosionDrops = fromFile.ErosionDrops
	}
	if !explicitFlags["erosion-mode"] {
		cfg.ErosionMode = fromFile.ErosionMode
	}
	cfg.ErosionFill = fromFile.ErosionFill
	cfg.DropLifespan = fromFile.DropLifespan
	cfg.ErosionAmount = fromFile.ErosionAmount
	if !explicitFlags["chunk-size"] {
		cfg.MapChunkSize = fromFile.MapChunkSize
	}
	if !explicitFlags["height-multiplier"] {
		cfg.HeightMultiplier = fromFile.HeightMultiplier
	}
	cfg.LODs = fromFile.LODs
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	cfg.QueueSize = fromFile.QueueSize
	if !explicitFlags["preview-scale"] {
		cfg.PreviewScale = fromFile.PreviewScale
	}
}

// Validate clamps tunables to usable ranges and rejects settings that cannot be repaired.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("map size %dx%d: %w", c.Width, c.Height, ErrInvalidConfig)
	}
	if c.MapChunkSize < 3 {
		return fmt.Errorf("map chunk size %d: %w", c.MapChunkSize, ErrInvalidConfig)
	}
	switch strings.ToLower(c.ErosionMode) {
	case "cell", "visit":
		c.ErosionMode = strings.ToLower(c.ErosionMode)
	case "":
		c.ErosionMode = "cell"
	default:
		return fmt.Errorf("erosion mode %q: %w", c.ErosionMode, ErrInvalidConfig)
	}
	for _, n := range []*string{&c.DetailNoise, &c.BaseNoise} {
		switch strings.ToLower(*n) {
		case "":
			*n = "perlin"
		case "perlin", "ridged", "cellular", "value":
			*n = strings.ToLower(*n)
		default:
			return fmt.Errorf("noise kind %q: %w", *n, ErrInvalidConfig)
		}
	}
	if len(c.LODs) == 0 {
		return fmt.Errorf("empty LOD table: %w", ErrInvalidConfig)
	}
	for i := 1; i < len(c.LODs); i++ {
		if c.LODs[i].MinViewDistance <= c.LODs[i-1].MinViewDistance {
			return fmt.Errorf("LOD %d view distance %.0f not above previous %.0f: %w",
				i, c.LODs[i].MinViewDistance, c.LODs[i-1].MinViewDistance, ErrInvalidConfig)
		}
	}

	// Clamp to reasonable values
	c.Workers = min(max(c.Workers, 1), 64)
	c.QueueSize = max(c.QueueSize, 1)
	c.FaultCount = max(c.FaultCount, 1)
	if c.FaultStep <= 0 {
		c.FaultStep = 100
	}
	c.ErosionDrops = max(c.ErosionDrops, 0)
	if c.DropLifespan <= 0 {
		c.DropLifespan = 100
	}
	c.PreviewScale = min(max(c.PreviewScale, 1), 16)
	return nil
}

// MaxViewDistance is the distance beyond which no chunk is shown.
func (c *Config) MaxViewDistance() float32 {
	if len(c.LODs) == 0 {
		return 0
	}
	return c.LODs[len(c.LODs)-1].MinViewDistance
}
