package scenario

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

func generate(t *testing.T, k Kind, seed int64, n int) ([]*nbody.Body, geom.Cube) {
	t.Helper()
	d, err := DefaultsFor(k)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(k, Params{Seed: seed})
	if err != nil {
		t.Fatal(err)
	}
	cube := geom.CenteredCube(geom.Zero, d.Edge)
	bodies, err := g.Generate(n, cube)
	if err != nil {
		t.Fatalf("%s: %v", k, err)
	}
	return bodies, cube
}

func TestEveryKindProducesValidBodies(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			bodies, cube := generate(t, k, 1, 200)
			d, _ := DefaultsFor(k)

			seen := make(map[int64]bool)
			for i, b := range bodies {
				if b.ID != int64(i+1) {
					t.Errorf("expected sequential id %d, got %d", i+1, b.ID)
				}
				if seen[b.ID] {
					t.Errorf("duplicate id %d", b.ID)
				}
				seen[b.ID] = true
				if err := b.Validate(); err != nil {
					t.Error(err)
				}
				if !cube.Contains(b.Position) {
					t.Errorf("body %d at %v outside %v", b.ID, b.Position, cube)
				}
				if b.Timescale != d.Timescale {
					t.Errorf("expected timescale %f, got %f", d.Timescale, b.Timescale)
				}
			}

			ix := nbody.NewIndex(cube)
			for _, b := range bodies {
				if err := ix.Insert(b); err != nil {
					t.Fatalf("insert: %v", err)
				}
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, k := range []Kind{AsteroidBelt, Ring, Cluster, DispersedClusters} {
		t.Run(string(k), func(t *testing.T) {
			a, _ := generate(t, k, 42, 100)
			b, _ := generate(t, k, 42, 100)
			c, _ := generate(t, k, 43, 100)

			if len(a) != len(b) {
				t.Fatalf("same seed gave %d and %d bodies", len(a), len(b))
			}
			for i := range a {
				if a[i].Position != b[i].Position || a[i].Mass != b[i].Mass {
					t.Fatalf("same seed diverged at body %d", i)
				}
			}
			if a[len(a)-1].Position == c[len(c)-1].Position {
				t.Error("different seeds produced the same population")
			}
		})
	}
}

func TestSolarSystem(t *testing.T) {
	bodies, _ := generate(t, SolarSystem, 0, 500)
	if len(bodies) != 9 {
		t.Fatalf("expected 9 bodies regardless of n, got %d", len(bodies))
	}
	if bodies[0].Name != "Sol" || bodies[0].Mass != SolarMass {
		t.Errorf("expected the sun first, got %v", bodies[0])
	}
	if bodies[3].Name != "Earth" || bodies[3].Position != geom.Vec(148e9, 0, 0) {
		t.Errorf("expected Earth at perihelion, got %v at %v", bodies[3], bodies[3].Position)
	}
}

func TestAsteroidBeltOrbits(t *testing.T) {
	bodies, cube := generate(t, AsteroidBelt, 3, 300)
	if len(bodies) != 301 {
		t.Fatalf("expected 301 bodies, got %d", len(bodies))
	}
	c := cube.Center()
	for _, b := range bodies[1:] {
		r := math.Hypot(b.Position.X()-c.X(), b.Position.Y()-c.Y())
		if r < beltInner*0.999 || r > beltOuter*1.001 {
			t.Fatalf("asteroid %d at %g AU, outside the belt", b.ID, r/AU)
		}
		want := math.Sqrt(nbody.G * SolarMass / b.Position.Sub(c).Len())
		if math.Abs(b.Velocity.Len()-want) > 1e-6*want {
			t.Fatalf("asteroid %d speed %g, expected circular %g", b.ID, b.Velocity.Len(), want)
		}
		if math.Abs(b.Velocity.Dot(b.Position.Sub(c))) > 1e-6*want*r {
			t.Fatalf("asteroid %d velocity is not tangential", b.ID)
		}
	}
}

func TestClusters(t *testing.T) {
	bodies, _ := generate(t, Cluster, 5, 400)
	if len(bodies) != 401 {
		t.Fatalf("expected 401 bodies, got %d", len(bodies))
	}
	if bodies[0].Mass < SolarMass {
		t.Errorf("black hole lighter than the sun: %g", bodies[0].Mass)
	}

	bodies, _ = generate(t, DispersedClusters, 5, 400)
	holes := 0
	for _, b := range bodies {
		if b.Radius == 0 {
			holes++
		}
	}
	if holes < 2 {
		t.Errorf("expected at least 2 clusters, got %d", holes)
	}
	if len(bodies) != 400+holes {
		t.Errorf("expected %d bodies, got %d", 400+holes, len(bodies))
	}
}

func TestErrors(t *testing.T) {
	if _, err := ParseKind("galaxy"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := New("galaxy", Params{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if k, err := ParseKind("ring"); err != nil || k != Ring {
		t.Errorf("expected ring, got %q %v", k, err)
	}

	small := geom.CenteredCube(geom.Zero, AU)
	for _, k := range []Kind{SolarSystem, AsteroidBelt} {
		g, _ := New(k, Params{Seed: 1})
		if _, err := g.Generate(10, small); !errors.Is(err, ErrPlacement) {
			t.Errorf("%s in a 1 AU cube: expected ErrPlacement, got %v", k, err)
		}
	}
}
