package catalog

import "github.com/ppiankov/permitcheck/internal/model"

// Numeric thresholds from GPDO 2015 Schedule 2. Shared with the evaluator and the
// limits calculator so both read the same figures.
const (
	RearDepthDetached        = 8.0  // m, single storey, detached house (larger home extension ceiling)
	RearDepthAttached        = 4.0  // m, single storey, attached house without prior approval
	RearDepthAttachedPrior   = 6.0  // m, single storey, attached house with prior approval
	DoubleStoreyDepth        = 3.0  // m
	SingleStoreyHeight       = 4.0  // m, highest point
	MaxGardenCoverage        = 0.5  // fraction of the curtilage
	RoofVolumeTerraced       = 40.0 // m3
	RoofVolumeOther          = 50.0 // m3
	RooflightProjection      = 0.15 // m beyond the roof slope
	PorchArea                = 3.0  // m2 ground floor area
	PorchHeight              = 3.0  // m
	PorchBoundaryDistance    = 2.0  // m from a boundary with a highway
	OutbuildingNearBoundary  = 2.5  // m, within BoundaryProximity of a boundary
	OutbuildingDualPitched   = 4.0  // m
	OutbuildingOther         = 3.0  // m
	BoundaryProximity        = 2.0  // m
	BoundaryTreatmentHighway = 1.0  // m, adjacent to a highway used by vehicular traffic
	BoundaryTreatmentOther   = 2.0  // m
)

func defaultClasses() []model.RuleClass {
	return []model.RuleClass{
		{
			ID:        model.ClassA,
			Name:      "Enlargement, improvement or other alteration of a dwellinghouse",
			Reference: "GPDO 2015 Sch.2 Pt.1 Class A",
			Conditions: []model.Condition{
				{ID: model.CondRearDepth, Kind: model.ConditionNumeric, Field: "extension_depth_m",
					Description: "Single storey rear extension must not extend beyond the rear wall by more than 8m (detached) or 4m (attached); 6m attached with prior approval"},
				{ID: model.CondDoubleStoreyDepth, Kind: model.ConditionNumeric, Field: "extension_depth_m",
					Description: "Extension of more than one storey must not extend beyond the rear wall by more than 3m"},
				{ID: model.CondSingleStoreyHeight, Kind: model.ConditionNumeric, Field: "extension_height_m",
					Description: "Single storey extension must not exceed 4m in height"},
				{ID: model.CondDoubleStoreyHeight, Kind: model.ConditionNumeric, Field: "existing_ridge_height_m",
					Description: "Extension must not be higher than the highest part of the existing roof"},
				{ID: model.CondFrontExtension, Kind: model.ConditionCategorical, Field: "extension_location",
					Description: "Extension must not extend beyond a wall forming the principal elevation"},
				{ID: model.CondSideConservation, Kind: model.ConditionCategorical, Field: "extension_location",
					Description: "Side extensions are not permitted development in a conservation area"},
				{ID: model.CondGardenCoverage, Kind: model.ConditionNumeric, Field: "garden_area_used_m2",
					Description: "Buildings must not cover more than half the curtilage"},
			},
			Limitations: []string{
				"Materials must be similar in appearance to the existing house",
				"No verandas, balconies or raised platforms",
				"Side extensions limited to a single storey, 4m high and half the width of the original house",
			},
			ExcludedFor: []model.PropertyType{model.PropertyFlat},
			Required:    []string{"extension_depth_m"},
		},
		{
			ID:        model.ClassB,
			Name:      "Additions or alterations to the roof",
			Reference: "GPDO 2015 Sch.2 Pt.1 Class B",
			Conditions: []model.Condition{
				{ID: model.CondFrontDormer, Kind: model.ConditionCategorical, Field: "dormer_location",
					Description: "No front dormer: an addition must not extend beyond the roof slope forming the principal elevation"},
				{ID: model.CondRoofConservation, Kind: model.ConditionBoolean,
					Description: "Roof additions are not permitted development in a conservation area"},
				{ID: model.CondRoofVolume, Kind: model.ConditionNumeric, Field: "roof_volume_m3",
					Description: "Additional roof space must not exceed 40m3 (terraced) or 50m3 (other houses)"},
			},
			Limitations: []string{
				"Materials must be similar in appearance to the existing house",
				"Side-facing windows must be obscure-glazed and non-opening below 1.7m",
				"Eaves must be set back at least 20cm from the original eaves",
			},
			ExcludedFor: []model.PropertyType{model.PropertyFlat},
			Required:    []string{"roof_volume_m3"},
		},
		{
			ID:        model.ClassC,
			Name:      "Other alterations to the roof",
			Reference: "GPDO 2015 Sch.2 Pt.1 Class C",
			Conditions: []model.Condition{
				{ID: model.CondRooflight, Kind: model.ConditionNumeric, Field: "rooflight_projection_m",
					Description: "Alteration must not protrude more than 0.15m beyond the plane of the roof slope"},
			},
			Limitations: []string{
				"No higher than the highest part of the existing roof",
				"Side-facing windows must be obscure-glazed and non-opening below 1.7m",
			},
			ExcludedFor: []model.PropertyType{model.PropertyFlat},
		},
		{
			ID:        model.ClassD,
			Name:      "Porches",
			Reference: "GPDO 2015 Sch.2 Pt.1 Class D",
			Conditions: []model.Condition{
				{ID: model.CondPorchArea, Kind: model.ConditionNumeric, Field: "porch_area_m2",
					Description: "Ground floor area must not exceed 3m2"},
				{ID: model.CondPorchHeight, Kind: model.ConditionNumeric, Field: "porch_height_m",
					Description: "Porch must not exceed 3m in height"},
				{ID: model.CondPorchBoundary, Kind: model.ConditionNumeric, Field: "distance_from_boundary_m",
					Description: "Porch must be at least 2m from any boundary with a highway"},
			},
			ExcludedFor: []model.PropertyType{model.PropertyFlat},
			Required:    []string{"porch_area_m2"},
		},
		{
			ID:        model.ClassE,
			Name:      "Buildings incidental to the enjoyment of the dwellinghouse",
			Reference: "GPDO 2015 Sch.2 Pt.1 Class E",
			Conditions: []model.Condition{
				{ID: model.CondOutbuildingHeight, Kind: model.ConditionNumeric, Field: "outbuilding_height_m",
					Description: "Height must not exceed 2.5m within 2m of a boundary, otherwise 4m with a dual-pitched roof or 3m in any other case"},
				{ID: model.CondGardenCoverage, Kind: model.ConditionNumeric, Field: "garden_area_used_m2",
					Description: "Buildings must not cover more than half the curtilage"},
			},
			Limitations: []string{
				"Single storey with eaves no higher than 2.5m",
				"Not forward of the principal elevation",
				"No verandas, balconies or raised platforms",
				"Not used as separate living accommodation",
			},
			ExcludedFor: []model.PropertyType{model.PropertyFlat},
			Required:    []string{"outbuilding_height_m"},
		},
		{
			ID:        model.ClassP2A,
			Name:      "Gates, fences, walls and other means of enclosure",
			Reference: "GPDO 2015 Sch.2 Pt.2 Class A",
			Conditions: []model.Condition{
				{ID: model.CondBoundaryHeight, Kind: model.ConditionNumeric, Field: "boundary_height_m",
					Description: "Height must not exceed 1m adjacent to a highway used by vehicular traffic, or 2m elsewhere"},
			},
			Limitations: []string{
				"Does not apply to the curtilage of a listed building",
			},
			Required: []string{"boundary_height_m"},
		},
		{
			ID:        model.ClassL,
			Name:      "Small HMOs to dwellinghouses and vice versa",
			Reference: "GPDO 2015 Sch.2 Pt.3 Class L",
			Conditions: []model.Condition{
				{ID: model.CondSmallHMO, Kind: model.ConditionCategorical, Field: "proposed_use",
					Description: "Change between use class C3 and use class C4 (up to six residents)"},
			},
			Limitations: []string{
				"Not permitted where it would result in more than one dwelling",
			},
			Required: []string{"current_use", "proposed_use"},
		},
		{
			ID:        model.ClassMA,
			Name:      "Commercial, business and service uses to dwellinghouses",
			Reference: "GPDO 2015 Sch.2 Pt.3 Class MA",
			Conditions: []model.Condition{
				{ID: model.CondCommercialToHome, Kind: model.ConditionCategorical, Field: "proposed_use",
					Description: "Change from use class E to use class C3 requires prior approval"},
			},
			Limitations: []string{
				"Floor space changing use must not exceed 1,500m2",
				"Building must have been vacant for at least 3 continuous months",
				"Prior approval covers transport, contamination, flooding, noise and natural light",
			},
			Required: []string{"current_use", "proposed_use"},
		},
	}
}

type usePair struct {
	from model.UseClass
	to   model.UseClass
}

func defaultChangesOfUse() map[usePair]model.ClassID {
	return map[usePair]model.ClassID{
		{model.UseC3, model.UseC4}: model.ClassL,
		{model.UseC4, model.UseC3}: model.ClassL,
		{model.UseE, model.UseC3}:  model.ClassMA,
	}
}
