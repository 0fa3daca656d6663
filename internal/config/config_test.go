package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxViewDistance() != 600 {
		t.Errorf("max view distance = %f, want 600", cfg.MaxViewDistance())
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldgen.json")
	if err := os.WriteFile(path, []byte(`{"seed": 42, "strategy": "noise", "lods": [{"level": 0, "min_view_distance": 50}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 42 || cfg.Strategy != "noise" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MapChunkSize != 241 || cfg.Width != 721 {
		t.Errorf("defaults lost: chunk size %d, width %d", cfg.MapChunkSize, cfg.Width)
	}
	if len(cfg.LODs) != 1 || cfg.LODs[0].MinViewDistance != 50 {
		t.Errorf("LOD table = %+v", cfg.LODs)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{"), 0o644)
	if _, err := Load(path); err == nil {
		t.Errorf("expected a parse error")
	}
}

func TestMergeRespectsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Width = 100

	fromFile := DefaultConfig()
	fromFile.Seed = 99
	fromFile.Width = 300
	fromFile.Strategy = "flat"

	Merge(cfg, fromFile, map[string]bool{"seed": true})
	if cfg.Seed != 7 {
		t.Errorf("explicit seed overwritten: %d", cfg.Seed)
	}
	if cfg.Width != 300 || cfg.Strategy != "flat" {
		t.Errorf("file values not merged: width %d strategy %s", cfg.Width, cfg.Strategy)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	cfg.QueueSize = -3
	cfg.PreviewScale = 100
	cfg.ErosionMode = "VISIT"
	cfg.DetailNoise = "Value"
	cfg.BaseNoise = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 1 || cfg.QueueSize != 1 || cfg.PreviewScale != 16 || cfg.ErosionMode != "visit" {
		t.Errorf("values not clamped: %+v", cfg)
	}
	if cfg.DetailNoise != "value" || cfg.BaseNoise != "perlin" {
		t.Errorf("noise kinds = %q, %q", cfg.DetailNoise, cfg.BaseNoise)
	}

	bad := []func(c *Config){
		func(c *Config) { c.Width = 0 },
		func(c *Config) { c.MapChunkSize = 2 },
		func(c *Config) { c.ErosionMode = "sometimes" },
		func(c *Config) { c.DetailNoise = "simplex" },
		func(c *Config) { c.BaseNoise = "worley" },
		func(c *Config) { c.LODs = nil },
		func(c *Config) { c.LODs = []LOD{{0, 300}, {1, 300}} },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(c)
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}
