// Package geo holds the in-process geometry primitives the record
// matcher relies on: great-circle distance, bounding boxes, and
// ray-casting point-in-polygon tests over parcel boundary rings.
package geo

import "math"

// Ring is a closed boundary ring of [lng, lat] points. Shapefile rings
// arrive closed (first == last) but the tests here do not require it.
type Ring [][2]float64

// BBox is an axis-aligned bounding box used for a quick reject before
// the per-vertex containment test.
type BBox struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// Contains reports whether the point falls inside the box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// RingsBBox computes the bounding box over every ring.
func RingsBBox(rings []Ring) BBox {
	box := BBox{
		MinLat: math.MaxFloat64, MinLng: math.MaxFloat64,
		MaxLat: -math.MaxFloat64, MaxLng: -math.MaxFloat64,
	}
	for _, ring := range rings {
		for _, pt := range ring {
			lng, lat := pt[0], pt[1]
			box.MinLat = math.Min(box.MinLat, lat)
			box.MaxLat = math.Max(box.MaxLat, lat)
			box.MinLng = math.Min(box.MinLng, lng)
			box.MaxLng = math.Max(box.MaxLng, lng)
		}
	}
	return box
}

// PointInRing implements the ray-casting containment test.
func PointInRing(lat, lng float64, ring Ring) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		intersect := ((yi > lat) != (yj > lat)) && (lng < (xj-xi)*(lat-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PointInRings tests containment across all rings with even-odd parity,
// so points inside a hole ring count as outside.
func PointInRings(lat, lng float64, rings []Ring) bool {
	inside := false
	for _, ring := range rings {
		if PointInRing(lat, lng, ring) {
			inside = !inside
		}
	}
	return inside
}

// FromRings converts stored [][2]float64 ring slices to Ring values.
func FromRings(rings [][][2]float64) []Ring {
	out := make([]Ring, len(rings))
	for i, r := range rings {
		out[i] = Ring(r)
	}
	return out
}

// Centroid returns the vertex average of the outer ring. Good enough for
// nearest-parcel distance ranking; not an area-weighted centroid.
func Centroid(rings []Ring) (lat, lng float64, ok bool) {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return 0, 0, false
	}
	outer := rings[0]
	var sumLat, sumLng float64
	for _, pt := range outer {
		sumLng += pt[0]
		sumLat += pt[1]
	}
	n := float64(len(outer))
	return sumLat / n, sumLng / n, true
}

const earthRadiusM = 6371000.0

// HaversineM returns the great-circle distance between two points in
// meters.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
