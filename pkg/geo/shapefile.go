package geo

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// Shape is one polygon feature read from a parcel shapefile, keyed by the
// value of the identifier attribute.
type Shape struct {
	Key   string
	Rings []Ring
	Attrs map[string]string
	BBox  BBox
}

// LoadShapefile reads polygon features from the shapefile at path, keying
// each by the named DBF attribute (case-insensitive). Features whose key
// attribute is empty, and non-polygon geometries, are skipped.
func LoadShapefile(path, keyField string) ([]Shape, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	keyIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f.String(), keyField) {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("shapefile %s has no %q attribute", path, keyField)
	}

	var shapes []Shape
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		key := strings.TrimSpace(r.ReadAttribute(idx, keyIdx))
		if key == "" {
			continue
		}

		// Split the flat points slice into rings at the part offsets.
		numParts := len(poly.Parts)
		rings := make([]Ring, numParts)
		for partIdx := 0; partIdx < numParts; partIdx++ {
			start := poly.Parts[partIdx]
			end := int32(len(poly.Points))
			if partIdx+1 < numParts {
				end = poly.Parts[partIdx+1]
			}
			ring := make(Ring, 0, int(end-start))
			for i := start; i < end; i++ {
				pt := poly.Points[i]
				ring = append(ring, [2]float64{pt.X, pt.Y}) // lng, lat
			}
			rings[partIdx] = ring
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = r.ReadAttribute(idx, i)
		}

		shapes = append(shapes, Shape{
			Key:   key,
			Rings: rings,
			Attrs: attrs,
			BBox:  RingsBBox(rings),
		})
	}

	return shapes, nil
}
