package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/geo"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/parse"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// MatchResult links an incoming record to a parcel with a method tag and
// a confidence in [0,1].
type MatchResult struct {
	ParcelID   uuid.UUID
	Method     models.MatchMethod
	Confidence float64
	DistanceM  float64 // populated for centroid matches only
}

// MatcherThresholds are the spatial acceptance bounds.
type MatcherThresholds struct {
	// MaxCentroidDistanceM rejects centroid matches beyond this distance.
	MaxCentroidDistanceM float64
	// ConfidenceFloor is the minimum confidence a centroid match carries;
	// the linear decay bottoms out here rather than going lower.
	ConfidenceFloor float64
}

// DefaultThresholds match the empirically tuned production values.
func DefaultThresholds() MatcherThresholds {
	return MatcherThresholds{MaxCentroidDistanceM: 200, ConfidenceFloor: 0.45}
}

// RecordMatcher links bronze records to parcels through an ordered
// fallback: exact identifier, polygon containment, nearest centroid.
type RecordMatcher interface {
	BuildIndex(ctx context.Context, q database.Querier) (*ParcelIndex, error)
	Match(idx *ParcelIndex, span string, lat, lng *float64) *MatchResult
}

type recordMatcher struct {
	parcels    repositories.ParcelRepository
	thresholds MatcherThresholds
	logger     *zap.Logger
}

func NewRecordMatcher(parcels repositories.ParcelRepository, thresholds MatcherThresholds, logger *zap.Logger) RecordMatcher {
	if thresholds.MaxCentroidDistanceM <= 0 {
		thresholds = DefaultThresholds()
	}
	return &recordMatcher{
		parcels:    parcels,
		thresholds: thresholds,
		logger:     logger,
	}
}

var _ RecordMatcher = (*recordMatcher)(nil)

// ParcelIndex is the in-memory lookup structure built once per batch run:
// a normalized-SPAN table plus geometry and centroid lists for the
// spatial fallbacks.
type ParcelIndex struct {
	bySpan    map[string]uuid.UUID
	polygons  []indexedPolygon
	centroids []indexedCentroid
}

type indexedPolygon struct {
	parcelID uuid.UUID
	rings    []geo.Ring
	bbox     geo.BBox
}

type indexedCentroid struct {
	parcelID uuid.UUID
	lat, lng float64
}

// Size returns the number of indexed parcels.
func (idx *ParcelIndex) Size() int {
	return len(idx.bySpan)
}

func (s *recordMatcher) BuildIndex(ctx context.Context, q database.Querier) (*ParcelIndex, error) {
	parcels, err := s.parcels.ListAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load parcels for match index: %w", err)
	}

	idx := &ParcelIndex{bySpan: make(map[string]uuid.UUID, len(parcels))}
	for _, p := range parcels {
		if p.SpanNormalized != "" {
			idx.bySpan[p.SpanNormalized] = p.ID
		}
		if p.HasGeometry() {
			rings := geo.FromRings(p.Rings)
			idx.polygons = append(idx.polygons, indexedPolygon{
				parcelID: p.ID,
				rings:    rings,
				bbox:     geo.RingsBBox(rings),
			})
		}
		if p.HasCentroid() {
			idx.centroids = append(idx.centroids, indexedCentroid{
				parcelID: p.ID,
				lat:      *p.Lat,
				lng:      *p.Lng,
			})
		}
	}

	s.logger.Info("built parcel match index",
		zap.Int("parcels", len(parcels)),
		zap.Int("with_geometry", len(idx.polygons)),
		zap.Int("with_centroid", len(idx.centroids)))
	return idx, nil
}

// Match runs the ordered strategies, stopping at the first success.
// Returns nil when nothing matches within the acceptance bounds.
func (s *recordMatcher) Match(idx *ParcelIndex, span string, lat, lng *float64) *MatchResult {
	if norm := parse.NormalizeSPAN(span); norm != "" {
		if parcelID, ok := idx.bySpan[norm]; ok {
			return &MatchResult{ParcelID: parcelID, Method: models.MatchBySPAN, Confidence: 1.0}
		}
	}

	if lat == nil || lng == nil {
		return nil
	}

	for _, poly := range idx.polygons {
		if !poly.bbox.Contains(*lat, *lng) {
			continue
		}
		if geo.PointInRings(*lat, *lng, poly.rings) {
			// 0.95, not 1.0: scraped coordinates carry precision noise.
			return &MatchResult{ParcelID: poly.parcelID, Method: models.MatchBySpatial, Confidence: 0.95}
		}
	}

	return s.nearestCentroid(idx, *lat, *lng)
}

func (s *recordMatcher) nearestCentroid(idx *ParcelIndex, lat, lng float64) *MatchResult {
	best := -1
	bestDist := math.MaxFloat64
	for i, c := range idx.centroids {
		d := geo.HaversineM(lat, lng, c.lat, c.lng)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 || bestDist > s.thresholds.MaxCentroidDistanceM {
		return nil
	}

	confidence := math.Max(
		s.thresholds.ConfidenceFloor,
		0.95-bestDist/s.thresholds.MaxCentroidDistanceM,
	)
	return &MatchResult{
		ParcelID:   idx.centroids[best].parcelID,
		Method:     models.MatchByCentroid,
		Confidence: confidence,
		DistanceM:  bestDist,
	}
}
