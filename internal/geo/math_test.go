package geo

import (
	"math"
	"testing"
)

func TestScale(t *testing.T) {
	cases := []struct {
		name                  string
		v, inMin, inMax, a, b float64
		expected              float64
	}{
		{"midpoint", 5, 0, 10, 0, 100, 50},
		{"input min maps to output min", -3, -3, 7, 20, 40, 20},
		{"input max maps to output max", 7, -3, 7, 20, 40, 40},
		{"reversed output", 2.5, 0, 10, 100, 0, 75},
		{"extrapolates below", -5, 0, 10, 0, 100, -50},
		{"extrapolates above", 20, 0, 10, 0, 100, 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Scale(tc.v, tc.inMin, tc.inMax, tc.a, tc.b)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("Scale(%v, %v, %v, %v, %v) = %v; want %v",
					tc.v, tc.inMin, tc.inMax, tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestScaleSlope(t *testing.T) {
	const a, b, c, d = 43.0, 44.5, 0.0, 600.0
	want := (d - c) / (b - a)
	prev := Scale(a, a, b, c, d)
	for x := a + 0.1; x <= b; x += 0.1 {
		cur := Scale(x, a, b, c, d)
		if cur <= prev {
			t.Fatalf("Scale not monotonic at %v: %v <= %v", x, cur, prev)
		}
		if slope := (cur - prev) / 0.1; math.Abs(slope-want) > 1e-6 {
			t.Fatalf("slope at %v = %v; want %v", x, slope, want)
		}
		prev = cur
	}
}

func TestScaleDegenerate(t *testing.T) {
	got := Scale(1, 2, 2, 0, 100)
	if !math.IsInf(got, 0) && !math.IsNaN(got) {
		t.Fatalf("Scale with equal input bounds = %v; want non-finite", got)
	}
}

func TestBoundsProject(t *testing.T) {
	b := Bounds{TopLeftLat: 10, TopLeftLong: 100, BottomRightLat: 0, BottomRightLong: 110}

	p := b.Project(GeoPoint{Longitude: 105, Latitude: 2.5}, 800, 400)
	if p.X != 400 || p.Y != 300 {
		t.Fatalf("Project = %v; want (400, 300)", p)
	}

	corner := b.Project(GeoPoint{Longitude: 100, Latitude: 10}, 800, 400)
	if corner.X != 0 || corner.Y != 0 {
		t.Fatalf("top-left corner projected to %v; want origin", corner)
	}

	if !Finite(p) {
		t.Fatalf("Finite(%v) = false", p)
	}
}

func TestBoundsDegenerate(t *testing.T) {
	cases := []struct {
		name     string
		bounds   Bounds
		expected bool
	}{
		{"regular", Bounds{1, 2, 3, 4}, false},
		{"flat longitude", Bounds{1, 2, 3, 2}, true},
		{"flat latitude", Bounds{1, 2, 1, 4}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bounds.Degenerate(); got != tc.expected {
				t.Fatalf("Degenerate() = %v; want %v", got, tc.expected)
			}
			p := tc.bounds.Project(GeoPoint{Longitude: 3, Latitude: 2}, 10, 10)
			if Finite(p) == tc.expected {
				t.Fatalf("Finite(%v) = %v with degenerate=%v", p, Finite(p), tc.expected)
			}
		})
	}
}
