package domain

import "math"

const (
	earthRadiusKM = 6371.0
	kmPerDegLat   = 111.32
	kmToMiles     = 0.621371

	// polygonSegments is the number of vertices used to draw the advisory circle.
	polygonSegments = 72
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineKM returns the great-circle distance between two points in kilometers.
func HaversineKM(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// KMToMiles converts kilometers to statute miles.
func KMToMiles(km float64) float64 {
	return km * kmToMiles
}

// CirclePolygon approximates a circle of radiusKM around center as a closed
// ring of [lon, lat] vertices. A non-positive radius yields a degenerate ring
// of the center repeated twice.
func CirclePolygon(center Point, radiusKM float64) [][2]float64 {
	if radiusKM <= 0 {
		c := [2]float64{center.Lon, center.Lat}
		return [][2]float64{c, c}
	}

	dLat := radiusKM / kmPerDegLat
	// Longitude degrees shrink with latitude; clamp so the poles stay finite.
	cosLat := math.Max(math.Cos(radians(center.Lat)), 1e-9)
	dLon := radiusKM / (kmPerDegLat * cosLat)

	ring := make([][2]float64, 0, polygonSegments+1)
	for i := range polygonSegments {
		theta := 2 * math.Pi * float64(i) / polygonSegments
		ring = append(ring, [2]float64{
			center.Lon + dLon*math.Cos(theta),
			center.Lat + dLat*math.Sin(theta),
		})
	}
	return append(ring, ring[0])
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
