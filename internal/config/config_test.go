package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxforge.yaml")
	data := `
seed: 42
scanner:
  distance: 4
engine:
  meshingMethod: culled
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 42 || cfg.Scanner.Distance != 4 || cfg.Engine.MeshingMethod != "culled" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.Engine.MaxDataTasks != Default().Engine.MaxDataTasks {
		t.Errorf("default maxDataTasks lost: %d", cfg.Engine.MaxDataTasks)
	}
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero scan distance",
			mutate:  func(c *Config) { c.Scanner.Distance = 0 },
			wantErr: "scanner.distance",
		},
		{
			name:    "no mesh tasks",
			mutate:  func(c *Config) { c.Engine.MaxMeshTasks = 0 },
			wantErr: "task limits",
		},
		{
			name:    "unknown meshing method",
			mutate:  func(c *Config) { c.Engine.MeshingMethod = "fancy" },
			wantErr: "meshingMethod",
		},
		{
			name:    "degenerate window",
			mutate:  func(c *Config) { c.Window.Height = 0 },
			wantErr: "window",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
