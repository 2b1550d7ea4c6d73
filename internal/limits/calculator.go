package limits

import (
	"fmt"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/model"
)

// Limit names
const (
	ExtensionDepth    = "extension_depth"
	ExtensionHeight   = "extension_height"
	OutbuildingHeight = "outbuilding_height"
	GardenCoverage    = "garden_coverage"
	RoofVolume        = "roof_volume"
	PorchFootprint    = "porch_footprint"
	BoundaryHeight    = "boundary_treatment_height"
)

// Calculate recomputes every numeric comparison whose inputs are present.
// It does not look at the classification; the records are the auditable
// numeric trail behind the narrative condition results. Equality with a
// threshold is compliant.
func Calculate(prop model.PropertyContext, req model.ProposalRequest) []model.CalculatedLimit {
	var out []model.CalculatedLimit
	add := func(name string, threshold float64, desc string, proposed float64, unit string) {
		out = append(out, model.CalculatedLimit{
			Name:        name,
			Threshold:   threshold,
			Description: desc,
			Proposed:    proposed,
			Unit:        unit,
			Compliant:   proposed <= threshold,
		})
	}

	rear := req.ExtensionLocation == "" || req.ExtensionLocation == model.ElevationRear
	if req.ExtensionDepth != nil && rear {
		if req.IsDoubleStorey() {
			add(ExtensionDepth, catalog.DoubleStoreyDepth, "Double storey rear extension", *req.ExtensionDepth, "m")
		} else {
			permitted, prior := catalog.RearDepthLimits(prop.Type)
			desc := "Single storey rear extension, detached house"
			if prop.Type != model.PropertyDetached {
				desc = fmt.Sprintf("Single storey rear extension, attached house (%gm without prior approval)", permitted)
			}
			add(ExtensionDepth, prior, desc, *req.ExtensionDepth, "m")
		}
	}

	if req.ExtensionHeight != nil {
		if req.IsDoubleStorey() {
			if req.ExistingRidgeHeight != nil {
				add(ExtensionHeight, *req.ExistingRidgeHeight, "Highest point of the existing roof", *req.ExtensionHeight, "m")
			}
		} else {
			add(ExtensionHeight, catalog.SingleStoreyHeight, "Single storey extension, highest point", *req.ExtensionHeight, "m")
		}
	}

	if req.OutbuildingHeight != nil && req.DistanceFromBoundary != nil {
		limit, band := catalog.OutbuildingHeightLimit(*req.DistanceFromBoundary, req.DualPitchedRoof != nil && *req.DualPitchedRoof)
		add(OutbuildingHeight, limit, "Outbuilding "+band, *req.OutbuildingHeight, "m")
	}

	if req.GardenAreaUsed != nil && req.GardenAreaTotal != nil && *req.GardenAreaTotal > 0 {
		coverage := *req.GardenAreaUsed / *req.GardenAreaTotal * 100
		add(GardenCoverage, catalog.MaxGardenCoverage*100, "Share of the curtilage covered by buildings", coverage, "%")
	}

	if req.RoofVolume != nil {
		desc := "Additional roof space, detached or semi-detached house"
		if prop.Type == model.PropertyTerraced {
			desc = "Additional roof space, terraced house"
		}
		add(RoofVolume, catalog.RoofVolumeLimit(prop.Type), desc, *req.RoofVolume, "m3")
	}

	if req.PorchArea != nil {
		add(PorchFootprint, catalog.PorchArea, "Porch ground floor area", *req.PorchArea, "m2")
	}

	if req.BoundaryHeight != nil {
		switch {
		case req.AdjacentToHighway != nil && *req.AdjacentToHighway:
			add(BoundaryHeight, catalog.BoundaryTreatmentHighway, "Gate, fence or wall adjacent to a highway", *req.BoundaryHeight, "m")
		case req.AdjacentToHighway != nil:
			add(BoundaryHeight, catalog.BoundaryTreatmentOther, "Gate, fence or wall away from a highway", *req.BoundaryHeight, "m")
		case *req.BoundaryHeight <= catalog.BoundaryTreatmentHighway:
			// Compliant under either threshold, so the unknown highway flag does not matter
			add(BoundaryHeight, catalog.BoundaryTreatmentHighway, "Gate, fence or wall (highway position not supplied)", *req.BoundaryHeight, "m")
		}
	}

	return out
}

// AllCompliant reports whether every limit is within its threshold and returns the first breach
func AllCompliant(limits []model.CalculatedLimit) (model.CalculatedLimit, bool) {
	for _, l := range limits {
		if !l.Compliant {
			return l, false
		}
	}
	return model.CalculatedLimit{}, true
}
