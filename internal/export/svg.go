// Package export renders recorded trajectories as SVG.
package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/sim"
)

// Plane picks the two coordinates that are drawn.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

func ParsePlane(s string) (Plane, error) {
	switch p := Plane(strings.ToLower(s)); p {
	case PlaneXY, PlaneXZ, PlaneYZ:
		return p, nil
	}
	return "", fmt.Errorf("unknown plane %q (want xy, xz or yz)", s)
}

func (p Plane) project(v geom.Vector) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X(), v.Z()
	case PlaneYZ:
		return v.Y(), v.Z()
	default:
		return v.X(), v.Y()
	}
}

type point struct{ X, Y float64 }

// tracks groups the projected positions of every body by identity, in
// snapshot order. A body that fused or escaped simply stops.
func tracks(snaps []sim.Snapshot, plane Plane) (map[int64][]point, []int64) {
	out := make(map[int64][]point)
	for _, s := range snaps {
		for _, b := range s.Bodies {
			x, y := plane.project(b.Position)
			out[b.ID] = append(out[b.ID], point{x, y})
		}
	}
	ids := make([]int64, 0, len(out))
	for id := range out {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return out, ids
}

// TrackColor spreads identities around the hue circle by the golden angle.
func TrackColor(id int64) string {
	hue := math.Mod(float64(id)*137.508, 360)
	return colorful.Hcl(hue, 0.6, 0.75).Clamped().Hex()
}

// TrajectoriesSVG writes one path per body. Both axes share one scale so
// orbits keep their shape.
func TrajectoriesSVG(w io.Writer, snaps []sim.Snapshot, plane Plane, width, height int) error {
	byID, ids := tracks(snaps, plane)
	if len(ids) == 0 {
		return fmt.Errorf("no positions to draw")
	}

	first := byID[ids[0]][0]
	minX, maxX, minY, maxY := first.X, first.X, first.Y, first.Y
	for _, pts := range byID {
		for _, p := range pts {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	// Add padding
	span := math.Max(maxX-minX, maxY-minY) * 1.2
	if span == 0 {
		span = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := float64(min(width, height)) / span
	screen := func(p point) (float64, float64) {
		return float64(width)/2 + (p.X-cx)*scale, float64(height)/2 - (p.Y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, id := range ids {
		pts := byID[id]
		color := TrackColor(id)
		if len(pts) > 1 {
			fmt.Fprintf(&sb, `<path id="body-%d" fill="none" stroke="%s" stroke-width="1" d="`, id, color)
			for i, p := range pts {
				x, y := screen(p)
				if i == 0 {
					fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}
		x, y := screen(pts[len(pts)-1])
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"2\" fill=\"%s\"/>\n", x, y, color)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
