package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the tunable parameters needed to bootstrap the engine.
type Config struct {
	Seed    int64        `yaml:"seed"`
	Scanner ScanConfig   `yaml:"scanner"`
	Engine  EngineConfig `yaml:"engine"`
	Window  WindowConfig `yaml:"window"`
}

type ScanConfig struct {
	// Distance is the mesh radius in chunks; data loading reaches one
	// chunk further so neighborhoods complete.
	Distance int `yaml:"distance"`
}

type EngineConfig struct {
	MaxDataTasks  int    `yaml:"maxDataTasks"`
	MaxMeshTasks  int    `yaml:"maxMeshTasks"`
	MeshingMethod string `yaml:"meshingMethod"` // "greedy" or "culled"
	PregenRadius  int    `yaml:"pregenRadius"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Seed: 1337,
		Scanner: ScanConfig{
			Distance: 12,
		},
		Engine: EngineConfig{
			MaxDataTasks:  64,
			MaxMeshTasks:  32,
			MeshingMethod: "greedy",
			PregenRadius:  2,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "voxforge",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Scanner.Distance < 1 {
		return errors.New("scanner.distance must be at least 1")
	}
	if c.Engine.MaxDataTasks < 1 || c.Engine.MaxMeshTasks < 1 {
		return errors.New("engine task limits must be positive")
	}
	switch c.Engine.MeshingMethod {
	case "greedy", "culled":
	default:
		return fmt.Errorf("engine.meshingMethod must be greedy or culled, got %q", c.Engine.MeshingMethod)
	}
	if c.Engine.PregenRadius < 0 {
		return errors.New("engine.pregenRadius must not be negative")
	}
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return errors.New("window dimensions must be positive")
	}
	return nil
}
