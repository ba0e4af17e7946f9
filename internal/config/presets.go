package config

import "sort"

var Presets = map[string]map[string]*Config{
	"solar_system": {
		"year": {
			Scenario: "solar_system", Steps: 8 * 365, Timescale: 3 * 3600, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 8,
		},
		"decade": {
			Scenario: "solar_system", Steps: 3650, Timescale: 24 * 3600, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 10,
		},
		"exact": {
			Scenario: "solar_system", Steps: 8 * 365, Timescale: 3 * 3600, Theta: 1, MaxDepth: 10,
			Solver: "direct", Escape: "fail", SnapshotEvery: 8,
		},
	},
	"asteroid_belt": {
		"sparse": {
			Scenario: "asteroid_belt", Bodies: 300, Steps: 2000, Timescale: 29600, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 20,
		},
		"dense": {
			Scenario: "asteroid_belt", Bodies: 5000, Steps: 1000, Timescale: 29600, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 20,
		},
	},
	"ring": {
		"spiral": {
			Scenario: "ring", Bodies: 2000, Steps: 1500, Timescale: 59200, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 15,
		},
	},
	"cluster": {
		"small": {
			Scenario: "cluster", Bodies: 500, Steps: 1000, Timescale: 1e8, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 10,
		},
		"accurate": {
			Scenario: "cluster", Bodies: 2000, Steps: 1000, Timescale: 1e8, Theta: 2, MaxDepth: 12,
			Solver: "tree", Escape: "drop", SnapshotEvery: 10,
		},
	},
	"dispersed_clusters": {
		"default": {
			Scenario: "dispersed_clusters", Bodies: 2000, Steps: 1000, Timescale: 1e7, Theta: 1, MaxDepth: 10,
			Solver: "tree", Escape: "drop", SnapshotEvery: 10,
		},
	},
}

// GetPreset returns a copy of the named preset with logging defaults
// filled in, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.Seed = 1
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	return &c
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
