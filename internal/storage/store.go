package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	metricsFile    = "metrics.csv"
)

var trajectoryHeader = []string{"step", "time", "id", "mass", "x", "y", "z", "vx", "vy", "vz"}

// Store records finished runs, one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Bodies     int                `json:"bodies"`
	Steps      int                `json:"steps"`
	StepsTaken int                `json:"steps_taken"`
	Timescale  float64            `json:"timescale"`
	EdgeLength float64            `json:"edge_length"`
	Theta      float64            `json:"theta"`
	MaxDepth   int                `json:"max_depth"`
	Solver     string             `json:"solver"`
	WallTime   float64            `json:"wall_time_seconds"`
	Merges     int                `json:"merges"`
	Escaped    []int64            `json:"escaped"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes meta, every snapshot and every metric series of result. The
// run id is derived from the scenario and the current time; meta.ID is
// ignored.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	runID, runDir, err := s.newRunDir(meta.Scenario)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.StepsTaken = result.StepsTaken
	meta.Merges = result.Merges
	meta.Escaped = result.Escaped
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, trajectoryFile), trajectoryRows(result.Snapshots)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, metricsFile), metricRows(result.Series)); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(scenario string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	for i := 0; ; i++ {
		runID := base
		if i > 0 {
			runID = fmt.Sprintf("%s-%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func trajectoryRows(snaps []sim.Snapshot) [][]string {
	rows := [][]string{trajectoryHeader}
	for _, snap := range snaps {
		step, t := strconv.Itoa(snap.Step), formatFloat(snap.Time)
		for _, b := range snap.Bodies {
			rows = append(rows, []string{
				step, t,
				strconv.FormatInt(b.ID, 10),
				formatFloat(b.Mass),
				formatFloat(b.Position.X()), formatFloat(b.Position.Y()), formatFloat(b.Position.Z()),
				formatFloat(b.Velocity.X()), formatFloat(b.Velocity.Y()), formatFloat(b.Velocity.Z()),
			})
		}
	}
	return rows
}

func metricRows(series map[string][]float64) [][]string {
	names := make([]string, 0, len(series))
	for n := range series {
		names = append(names, n)
	}
	sort.Strings(names)

	rows := [][]string{{"step", "name", "value"}}
	for _, n := range names {
		for step, v := range series[n] {
			rows = append(rows, []string{strconv.Itoa(step), n, formatFloat(v)})
		}
	}
	return rows
}

// List returns the metadata of every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// parseFloats parses every field of rec into dst, stopping at the first
// malformed one.
func parseFloats(rec []string, dst ...*float64) error {
	for i, p := range dst {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// LoadTrajectory reads the recorded snapshots back, grouped by step.
func (s *Store) LoadTrajectory(runID string) ([]sim.Snapshot, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}

	snaps := make([]sim.Snapshot, 0)
	for i, rec := range records {
		if len(rec) != len(trajectoryHeader) {
			return nil, fmt.Errorf("%s line %d: expected %d fields, got %d", trajectoryFile, i+2, len(trajectoryHeader), len(rec))
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
		}
		id, err := strconv.ParseInt(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
		}

		var t, m float64
		var p, v geom.Vector
		if err := parseFloats(rec[1:2], &t); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
		}
		if err := parseFloats(rec[3:], &m, &p[0], &p[1], &p[2], &v[0], &v[1], &v[2]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
		}

		if len(snaps) == 0 || snaps[len(snaps)-1].Step != step {
			snaps = append(snaps, sim.Snapshot{Step: step, Time: t})
		}
		last := &snaps[len(snaps)-1]
		last.Bodies = append(last.Bodies, sim.BodyState{ID: id, Mass: m, Position: p, Velocity: v})
	}
	return snaps, nil
}

// LoadSeries reads every recorded metric series, indexed by step.
func (s *Store) LoadSeries(runID string) (map[string][]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, metricsFile))
	if err != nil {
		return nil, err
	}

	series := make(map[string][]float64)
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 fields, got %d", metricsFile, i+2, len(rec))
		}
		var v float64
		if err := parseFloats(rec[2:], &v); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", metricsFile, i+2, err)
		}
		series[rec[1]] = append(series[rec[1]], v)
	}
	return series, nil
}
