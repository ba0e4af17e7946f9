package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/sim"
)

func orbitSnapshots() []sim.Snapshot {
	return []sim.Snapshot{
		{Step: 0, Bodies: []sim.BodyState{
			{ID: 1, Position: geom.Zero},
			{ID: 2, Position: geom.Vec(1, 0, 0)},
		}},
		{Step: 1, Bodies: []sim.BodyState{
			{ID: 1, Position: geom.Zero},
			{ID: 2, Position: geom.Vec(0, 1, 0.5)},
		}},
		{Step: 2, Bodies: []sim.BodyState{
			{ID: 2, Position: geom.Vec(-1, 0, 1)},
		}},
	}
}

func TestTracksFollowIdentity(t *testing.T) {
	byID, ids := tracks(orbitSnapshots(), PlaneXZ)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("expected ids [1 2], got %v", ids)
	}
	if len(byID[1]) != 2 {
		t.Errorf("expected body 1 to stop after two snapshots, got %d points", len(byID[1]))
	}
	last := byID[2][2]
	if last.X != -1 || last.Y != 1 {
		t.Errorf("expected XZ point (-1, 1), got (%v, %v)", last.X, last.Y)
	}
}

func TestTrajectoriesSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := TrajectoriesSVG(&buf, orbitSnapshots(), PlaneXY, 200, 100); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("expected a complete SVG document")
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected 2 paths, got %d", got)
	}
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 end markers, got %d", got)
	}
	if !strings.Contains(svg, TrackColor(2)) {
		t.Error("expected body 2's colour in the output")
	}
}

func TestTrajectoriesSVGEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := TrajectoriesSVG(&buf, nil, PlaneXY, 10, 10); err == nil {
		t.Error("expected an error for an empty trajectory")
	}
}

func TestParsePlane(t *testing.T) {
	if p, err := ParsePlane("XZ"); err != nil || p != PlaneXZ {
		t.Errorf("expected xz, got %q, %v", p, err)
	}
	if _, err := ParsePlane("xw"); err == nil {
		t.Error("expected error for unknown plane")
	}
}
