// Package services holds the engine logic: identity resolution, record
// matching, dwelling inference, classification, review, and the
// bronze-to-silver batch pipelines.
package services

import (
	"fmt"

	"github.com/madriverdata/parcelgraph/pkg/models"
)

// Classify derives a dwelling's tax class from its use and occupancy. It
// is a pure lookup: same inputs, same answer, callable at any time to
// re-derive from current facts. The second return is false when the
// dwelling falls outside the three-class system (unknown occupancy of a
// full-time residence, seasonal units, unknown use).
//
// An unrecognized use value is a caller bug, not a data-quality problem,
// and panics.
func Classify(use models.DwellingUse, isOwnerOccupied *bool) (models.TaxClassification, bool) {
	switch use {
	case models.UseFullTimeResidence:
		if isOwnerOccupied == nil {
			return "", false
		}
		if *isOwnerOccupied {
			return models.TaxHomestead, true
		}
		// Long-term tenancy.
		return models.TaxNHSNonResidential, true

	case models.UseShortTermRental, models.UseSecondHome, models.UseVacant:
		return models.TaxNHSResidential, true

	case models.UseSeasonal:
		// Fails year-round habitability, outside the class system.
		return "", false

	case models.UseCommercial:
		return models.TaxNHSNonResidential, true

	case models.UseUnknown:
		return "", false
	}

	panic(fmt.Sprintf("classify called with invalid dwelling use %q", use))
}

// ClassifyDwelling is the model-level convenience over Classify.
func ClassifyDwelling(d *models.Dwelling) (models.TaxClassification, bool) {
	return Classify(d.Use, d.IsOwnerOccupied)
}
