package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/nbody"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	DefaultScenario      = "solar_system"
	DefaultSteps         = 1000
	DefaultSolver        = sim.SolverTree
	DefaultEscape        = "drop"
	DefaultSnapshotEvery = 10
	DefaultLogLevel      = "info"
)

type Config struct {
	Scenario      string    `yaml:"scenario"`
	Bodies        int       `yaml:"bodies"`
	Seed          int64     `yaml:"seed"`
	Steps         int       `yaml:"steps"`
	Timescale     float64   `yaml:"timescale"`   // 0 = scenario default
	EdgeLength    float64   `yaml:"edge_length"` // 0 = scenario default
	Theta         float64   `yaml:"theta"`
	MaxDepth      int       `yaml:"max_depth"`
	Solver        string    `yaml:"solver"`
	Workers       int       `yaml:"workers"` // 0 = GOMAXPROCS
	Escape        string    `yaml:"escape"`
	SnapshotEvery int       `yaml:"snapshot_every"`
	Verify        bool      `yaml:"verify"`
	Log           LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:      DefaultScenario,
		Steps:         DefaultSteps,
		Seed:          1,
		Theta:         nbody.DefaultTheta,
		MaxDepth:      nbody.DefaultMaxDepth,
		Solver:        DefaultSolver,
		Escape:        DefaultEscape,
		SnapshotEvery: DefaultSnapshotEvery,
		Log:           LogConfig{Level: DefaultLogLevel},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolved fills every zero value that means "use the scenario default".
func (c *Config) Resolved() (*Config, error) {
	d, err := scenario.DefaultsFor(scenario.Kind(c.Scenario))
	if err != nil {
		return nil, err
	}
	r := *c
	if r.Bodies == 0 {
		r.Bodies = d.Bodies
	}
	if r.Timescale == 0 {
		r.Timescale = d.Timescale
	}
	if r.EdgeLength == 0 {
		r.EdgeLength = d.Edge
	}
	if r.Workers == 0 {
		r.Workers = runtime.GOMAXPROCS(0)
	}
	return &r, nil
}

// Sim converts a resolved config into driver settings.
func (c *Config) Sim() sim.Config {
	return sim.Config{
		Steps:         c.Steps,
		Timescale:     c.Timescale,
		Theta:         c.Theta,
		MaxDepth:      c.MaxDepth,
		Solver:        c.Solver,
		Workers:       c.Workers,
		Escape:        sim.EscapePolicy(c.Escape),
		SnapshotEvery: c.SnapshotEvery,
		Verify:        c.Verify,
	}
}

// Validate resolves defaults and checks the result.
func (c *Config) Validate() error {
	r, err := c.Resolved()
	if err != nil {
		return err
	}
	if r.Bodies < 0 {
		return fmt.Errorf("%w: bodies must be non-negative, got %d", sim.ErrInvalidConfig, r.Bodies)
	}
	if r.EdgeLength < 0 {
		return fmt.Errorf("%w: edge length must be positive, got %f", sim.ErrInvalidConfig, r.EdgeLength)
	}
	if _, err := sim.NewSolver(r.Solver, 1); err != nil {
		return err
	}
	return r.Sim().Validate()
}
