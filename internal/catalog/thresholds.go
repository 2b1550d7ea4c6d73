package catalog

import "github.com/ppiankov/permitcheck/internal/model"

// RearDepthLimits returns the single storey rear depth allowed without prior
// approval and the ceiling with it. The two are equal when no prior approval
// band exists. An unknown property type is treated as attached.
func RearDepthLimits(t model.PropertyType) (permitted, withPriorApproval float64) {
	if t == model.PropertyDetached {
		return RearDepthDetached, RearDepthDetached
	}
	return RearDepthAttached, RearDepthAttachedPrior
}

// RoofVolumeLimit returns the additional roof space cap for the property type
func RoofVolumeLimit(t model.PropertyType) float64 {
	if t == model.PropertyTerraced {
		return RoofVolumeTerraced
	}
	return RoofVolumeOther
}

// OutbuildingHeightLimit returns the height cap for an outbuilding and a short
// description of which band applied
func OutbuildingHeightLimit(distanceFromBoundary float64, dualPitched bool) (float64, string) {
	if distanceFromBoundary < BoundaryProximity {
		return OutbuildingNearBoundary, "within 2m of a boundary"
	}
	if dualPitched {
		return OutbuildingDualPitched, "dual-pitched roof, 2m or more from a boundary"
	}
	return OutbuildingOther, "2m or more from a boundary"
}

// BoundaryTreatmentLimit returns the gate, fence or wall height cap
func BoundaryTreatmentLimit(adjacentToHighway bool) float64 {
	if adjacentToHighway {
		return BoundaryTreatmentHighway
	}
	return BoundaryTreatmentOther
}
