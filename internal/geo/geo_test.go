package geo

import (
	"math"
	"testing"
)

func TestHaversineSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 0.05, 0.05},
		{48.8566, 2.3522, 51.5074, -0.1278},
		{-33.8688, 151.2093, 35.6762, 139.6503},
	}
	for _, p := range pairs {
		ab := HaversineKm(p[0], p[1], p[2], p[3])
		ba := HaversineKm(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestHaversineZero(t *testing.T) {
	points := [][2]float64{{0, 0}, {45.5, -122.6}, {-90, 0}, {89.9, 179.9}}
	for _, p := range points {
		if d := HaversineKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Fatalf("expected zero distance at %v, got %v", p, d)
		}
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// (0,0) to (0.05, 0.05) is roughly 7.86 km
	d := HaversineKm(0, 0, 0.05, 0.05)
	if math.Abs(d-7.86) > 0.05 {
		t.Fatalf("expected ~7.86 km, got %v", d)
	}

	// Paris to London, roughly 344 km
	d = HaversineKm(48.8566, 2.3522, 51.5074, -0.1278)
	if d < 330 || d > 360 {
		t.Fatalf("Paris-London distance out of range: %v", d)
	}
}

func TestBoundingBoxSoundness(t *testing.T) {
	// Any point within radius of the center must fall inside the box.
	centers := [][2]float64{{0, 0}, {60, 30}, {-45, -170}}
	radius := 25.0
	for _, c := range centers {
		minLat, maxLat, minLon, maxLon := BoundingBox(c[0], c[1], radius)
		for deg := 0; deg < 360; deg += 15 {
			rad := float64(deg) * math.Pi / 180
			// walk outward along the bearing until just inside the radius
			lat := c[0] + (radius/111.0)*0.99*math.Cos(rad)
			lon := c[1] + (radius/(111.0*math.Cos(c[0]*math.Pi/180)))*0.99*math.Sin(rad)
			if HaversineKm(c[0], c[1], lat, lon) > radius {
				continue
			}
			if !InBox(lat, lon, minLat, maxLat, minLon, maxLon) {
				t.Fatalf("point (%v,%v) within %vkm of (%v,%v) excluded by box", lat, lon, radius, c[0], c[1])
			}
		}
	}
}

func TestBoundingBoxExcludesDistant(t *testing.T) {
	minLat, maxLat, minLon, maxLon := BoundingBox(0, 0, 10)
	if InBox(10, 10, minLat, maxLat, minLon, maxLon) {
		t.Fatal("box for 10km radius should exclude a point ~1568km away")
	}
	if d := HaversineKm(0, 0, 10, 10); d <= 10 {
		t.Fatalf("expected distance > 10km, got %v", d)
	}
}

func TestBoundingBoxWidensWithLatitude(t *testing.T) {
	_, _, minLonEq, maxLonEq := BoundingBox(0, 0, 50)
	_, _, minLon60, maxLon60 := BoundingBox(60, 0, 50)
	if (maxLon60 - minLon60) <= (maxLonEq - minLonEq) {
		t.Fatal("longitude span should widen at higher latitude")
	}
}

func TestValidateCoordinates(t *testing.T) {
	valid := [][2]float64{{0, 0}, {90, 180}, {-90, -180}, {45.5, -122.6}}
	for _, p := range valid {
		if !ValidateCoordinates(p[0], p[1]) {
			t.Fatalf("expected %v to be valid", p)
		}
	}
	invalid := [][2]float64{
		{90.1, 0}, {-90.1, 0}, {0, 180.1}, {0, -180.1},
		{math.NaN(), 0}, {0, math.NaN()}, {math.Inf(1), 0}, {0, math.Inf(-1)},
	}
	for _, p := range invalid {
		if ValidateCoordinates(p[0], p[1]) {
			t.Fatalf("expected %v to be invalid", p)
		}
	}
}
