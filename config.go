package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the tunable settings of a run.
type Config struct {
	// Curvature estimation
	Rings      int    `json:"rings"`
	MinSamples int    `json:"min_samples"`
	MaxRings   int    `json:"max_rings"`
	Mass       string `json:"mass"`

	// Display
	View        string `json:"view"`
	ViewSize    int    `json:"view_size"`
	Supersample int    `json:"supersample"`
	POV         string `json:"pov"`
	Plot        string `json:"plot"`

	// Cache
	Cache    bool   `json:"cache"`
	CacheDir string `json:"cache_dir"`
}

// Flags holds command-line overrides. Zero values leave the config
// unchanged.
type Flags = Config

// LoadConfig reads a JSON config file. Fields not set in the file keep
// their zero values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies flags over c and fills in defaults. meshPath names
// the default view image.
func (c *Config) Resolve(flags Flags, meshPath string) {
	// CLI flags override config file
	if flags.Rings > 0 {
		c.Rings = flags.Rings
	}
	if flags.MinSamples > 0 {
		c.MinSamples = flags.MinSamples
	}
	if flags.MaxRings > 0 {
		c.MaxRings = flags.MaxRings
	}
	if flags.Mass != "" {
		c.Mass = flags.Mass
	}
	if flags.View != "" {
		c.View = flags.View
	}
	if flags.ViewSize > 0 {
		c.ViewSize = flags.ViewSize
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.POV != "" {
		c.POV = flags.POV
	}
	if flags.Plot != "" {
		c.Plot = flags.Plot
	}
	if flags.Cache {
		c.Cache = true
	}
	if flags.CacheDir != "" {
		c.CacheDir = flags.CacheDir
	}

	// Defaults
	fit := FitOptions{c.Rings, c.MinSamples, c.MaxRings}.withDefaults()
	c.Rings, c.MinSamples, c.MaxRings = fit.Rings, fit.MinSamples, fit.MaxRings
	if c.View == "" {
		c.View = meshPath + "-view.png"
	}
	if c.ViewSize <= 0 {
		c.ViewSize = 800
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.CacheDir == "" {
		c.CacheDir = ".cache"
	}
}

// FitOptions returns the quadric fitting settings.
func (c *Config) FitOptions() FitOptions {
	return FitOptions{Rings: c.Rings, MinSamples: c.MinSamples, MaxRings: c.MaxRings}
}

// MassType returns the mass matrix type.
func (c *Config) MassType() (MassType, error) {
	return ParseMassType(c.Mass)
}
