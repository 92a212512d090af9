package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat approximates one degree of latitude.
const kmPerDegreeLat = 111.0

// HaversineKm returns the great-circle distance in kilometres between two
// coordinate pairs. Callers are expected to validate coordinates first; the
// function itself is total for any finite input.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// BoundingBox returns an axis-aligned box that fully contains the circle of
// radiusKm around (lat, lon). The box over-approximates near the corners but
// never excludes a point inside the circle, so it is safe as a pre-filter;
// exact distance filtering must always follow.
func BoundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := radiusKm / kmPerDegreeLat

	// Degree length of longitude shrinks with cos(lat); clamp near the poles
	// where the box degenerates to the full longitude range.
	cosLat := math.Cos(lat * math.Pi / 180)
	var lonDelta float64
	if cosLat < 1e-6 {
		lonDelta = 180
	} else {
		lonDelta = radiusKm / (kmPerDegreeLat * cosLat)
	}

	minLat = lat - latDelta
	maxLat = lat + latDelta
	minLon = lon - lonDelta
	maxLon = lon + lonDelta
	return
}

// InBox reports whether (lat, lon) falls inside the box returned by
// BoundingBox.
func InBox(lat, lon, minLat, maxLat, minLon, maxLon float64) bool {
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}

// ValidateCoordinates rejects NaN, infinite and out-of-range coordinates.
// Matching against invalid coordinates is treated as "no match" by callers,
// never as an error that aborts a batch.
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
