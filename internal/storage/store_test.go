package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		StepsTaken: 2,
		Merges:     1,
		Escaped:    []int64{3},
		Snapshots: []sim.Snapshot{
			{Step: 0, Time: 0, Bodies: []sim.BodyState{
				{ID: 1, Mass: 1.989e30, Position: geom.Vec(0, 0, 0)},
				{ID: 2, Mass: 5.972e24, Position: geom.Vec(1.48e11, 0, 0), Velocity: geom.Vec(0, 29290, 0)},
			}},
			{Step: 2, Time: 21600, Bodies: []sim.BodyState{
				{ID: 1, Mass: 1.989e30, Position: geom.Vec(0.5, 1e-3, 0)},
			}},
		},
		Series: map[string][]float64{
			"energy_drift": {0, 1e-7, 3e-7},
			"merges":       {0, 1, 1},
		},
		Metrics: map[string]float64{"energy_drift": 3e-7, "merges": 1},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Scenario: "solar_system", Seed: 42, Steps: 2, Theta: 1}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "solar_system" || meta.Seed != 42 || meta.ID != runID {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.StepsTaken != 2 || meta.Merges != 1 || len(meta.Escaped) != 1 {
		t.Errorf("expected result counters in metadata, got %+v", meta)
	}
	if meta.Metrics["energy_drift"] != 3e-7 {
		t.Errorf("expected energy_drift 3e-7, got %g", meta.Metrics["energy_drift"])
	}

	for _, f := range []string{metadataFile, trajectoryFile, metricsFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}
}

func TestStoreTrajectoryRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	res := testResult()
	runID, err := st.Save(RunMetadata{Scenario: "solar_system"}, res)
	if err != nil {
		t.Fatal(err)
	}

	snaps, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[1].Step != 2 || snaps[1].Time != 21600 || len(snaps[1].Bodies) != 1 {
		t.Errorf("unexpected last snapshot %+v", snaps[1])
	}
	earth := snaps[0].Bodies[1]
	want := res.Snapshots[0].Bodies[1]
	if earth.ID != 2 || earth.Position != want.Position || earth.Velocity != want.Velocity || earth.Mass != want.Mass {
		t.Errorf("expected %+v, got %+v", want, earth)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatal(err)
	}
	if got := series["energy_drift"]; len(got) != 3 || got[2] != 3e-7 {
		t.Errorf("unexpected energy_drift series %v", got)
	}
}

func TestStoreListAndUniqueIDs(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v %v", runs, err)
	}

	a, err := st.Save(RunMetadata{Scenario: "ring"}, testResult())
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Save(RunMetadata{Scenario: "ring"}, testResult())
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("expected distinct run ids, got %s twice", a)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreMissingList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
	if _, err := st.Load("nothing"); err == nil {
		t.Error("expected error loading missing run")
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Scenario: "cluster"}, testResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.Export(&buf, runID); err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Metadata.ID != runID || len(data.Snapshots) != 2 || len(data.Series["merges"]) != 3 {
		t.Errorf("unexpected export %+v", data)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := st.ExportFile(path, runID); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error(err)
	}
}
