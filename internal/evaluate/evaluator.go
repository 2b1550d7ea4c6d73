package evaluate

import (
	"fmt"
	"strconv"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/model"
)

// Evaluator checks each classified rule class's conditions against a proposal
type Evaluator struct {
	cat *catalog.Catalog
}

// NewEvaluator creates an evaluator over the catalog
func NewEvaluator(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{cat: cat}
}

// Evaluate returns one result per condition of every classified class, in
// classification order then catalog condition order. Absent fields give a
// skipped result, never a failure.
func (e *Evaluator) Evaluate(prop model.PropertyContext, req model.ProposalRequest, classes []model.Classification) []model.ConditionResult {
	var results []model.ConditionResult

	for _, cl := range classes {
		rc, ok := e.cat.ClassByID(cl.Class)
		if !ok {
			continue
		}

		if rc.ExcludesType(prop.Type) {
			results = append(results, model.ConditionResult{
				Class:     rc.ID,
				Condition: model.CondPropertyExcluded,
				Band:      model.BandHardFail,
				Reason:    fmt.Sprintf("Class %s permitted development rights do not apply to %ss", rc.ID, prop.Type),
			})
			continue
		}

		c := &checker{class: rc.ID, prop: prop, req: req}
		switch rc.ID {
		case model.ClassA:
			c.enlargement()
		case model.ClassB:
			c.roofAddition()
		case model.ClassC:
			c.roofAlteration()
		case model.ClassD:
			c.porch()
		case model.ClassE:
			c.outbuilding()
		case model.ClassP2A:
			c.boundaryTreatment()
		case model.ClassL:
			c.smallHMO()
		case model.ClassMA:
			c.commercialToHome()
		}
		results = append(results, c.results...)
	}

	return results
}

// checker accumulates results for one class
type checker struct {
	class   model.ClassID
	prop    model.PropertyContext
	req     model.ProposalRequest
	results []model.ConditionResult
}

func (c *checker) add(id model.ConditionID, band model.Band, format string, args ...any) {
	c.results = append(c.results, model.ConditionResult{
		Class:     c.class,
		Condition: id,
		Band:      band,
		Reason:    fmt.Sprintf(format, args...),
	})
}

func (c *checker) skip(id model.ConditionID, missing string) {
	c.results = append(c.results, model.ConditionResult{
		Class:     c.class,
		Condition: id,
		Band:      model.BandSkipped,
		Reason:    "Not assessed: " + missing + " not supplied",
		Missing:   missing,
	})
}

// notApplicable records a condition that does not bear on this proposal
func (c *checker) notApplicable(id model.ConditionID, reason string) {
	c.results = append(c.results, model.ConditionResult{
		Class:     c.class,
		Condition: id,
		Band:      model.BandSkipped,
		Reason:    reason,
	})
}

// atMost checks value <= limit, hard-failing above it
func (c *checker) atMost(id model.ConditionID, what string, value, limit float64, unit string) {
	if value <= limit {
		c.add(id, model.BandPass, "%s of %s is within the %s limit", what, num(value, unit), num(limit, unit))
		return
	}
	c.add(id, model.BandHardFail, "%s of %s exceeds the %s limit", what, num(value, unit), num(limit, unit))
}

func (c *checker) enlargement() {
	req, prop := c.req, c.prop
	location := req.ExtensionLocation

	switch location {
	case "":
		c.skip(model.CondFrontExtension, "extension_location")
	case model.ElevationFront:
		c.add(model.CondFrontExtension, model.BandHardFail, "Extensions beyond the principal (front) elevation are not permitted development")
	default:
		c.add(model.CondFrontExtension, model.BandPass, "Extension is to the %s, not beyond the principal elevation", location)
	}

	switch {
	case location == "":
		c.skip(model.CondSideConservation, "extension_location")
	case location != model.ElevationSide:
		c.notApplicable(model.CondSideConservation, "Not a side extension")
	case prop.InConservationArea:
		c.add(model.CondSideConservation, model.BandHardFail, "Side extensions in a conservation area are not permitted development")
	default:
		c.add(model.CondSideConservation, model.BandPass, "Side extension outside a conservation area")
	}

	rear := location == "" || location == model.ElevationRear
	if req.IsDoubleStorey() {
		switch {
		case req.ExtensionDepth == nil:
			c.skip(model.CondDoubleStoreyDepth, "extension_depth_m")
		case !rear:
			c.notApplicable(model.CondDoubleStoreyDepth, "Rear depth limit does not apply to a "+string(location)+" extension")
		default:
			c.atMost(model.CondDoubleStoreyDepth, "Double storey rear depth", *req.ExtensionDepth, catalog.DoubleStoreyDepth, "m")
		}

		switch {
		case req.ExtensionHeight == nil:
			c.skip(model.CondDoubleStoreyHeight, "extension_height_m")
		case req.ExistingRidgeHeight == nil:
			c.skip(model.CondDoubleStoreyHeight, "existing_ridge_height_m")
		default:
			c.atMost(model.CondDoubleStoreyHeight, "Extension height", *req.ExtensionHeight, *req.ExistingRidgeHeight, "m")
		}
	} else {
		switch {
		case req.ExtensionDepth == nil:
			c.skip(model.CondRearDepth, "extension_depth_m")
		case !rear:
			c.notApplicable(model.CondRearDepth, "Rear depth limit does not apply to a "+string(location)+" extension")
		default:
			c.rearDepth(*req.ExtensionDepth)
		}

		if req.ExtensionHeight == nil {
			c.skip(model.CondSingleStoreyHeight, "extension_height_m")
		} else {
			c.atMost(model.CondSingleStoreyHeight, "Single storey height", *req.ExtensionHeight, catalog.SingleStoreyHeight, "m")
		}
	}

	c.gardenCoverage()
}

func (c *checker) rearDepth(depth float64) {
	permitted, prior := catalog.RearDepthLimits(c.prop.Type)
	form := "attached"
	if c.prop.Type == model.PropertyDetached {
		form = "detached"
	} else if c.prop.Type == "" {
		form = "attached (property type unknown)"
	}

	switch {
	case depth <= permitted:
		c.add(model.CondRearDepth, model.BandPass, "Rear depth of %s is within the %s limit for a %s house", num(depth, "m"), num(permitted, "m"), form)
	case depth <= prior:
		c.add(model.CondRearDepth, model.BandSoftFail, "Rear depth of %s exceeds %s but is within the %s prior approval limit for a %s house", num(depth, "m"), num(permitted, "m"), num(prior, "m"), form)
	default:
		c.add(model.CondRearDepth, model.BandHardFail, "Rear depth of %s exceeds the %s maximum for a %s house", num(depth, "m"), num(prior, "m"), form)
	}
}

func (c *checker) gardenCoverage() {
	switch {
	case c.req.GardenAreaUsed == nil:
		c.skip(model.CondGardenCoverage, "garden_area_used_m2")
	case c.req.GardenAreaTotal == nil || *c.req.GardenAreaTotal <= 0:
		c.skip(model.CondGardenCoverage, "garden_area_total_m2")
	default:
		ratio := *c.req.GardenAreaUsed / *c.req.GardenAreaTotal
		if ratio <= catalog.MaxGardenCoverage {
			c.add(model.CondGardenCoverage, model.BandPass, "Garden coverage of %s is within the 50%% cap", pct(ratio))
		} else {
			c.add(model.CondGardenCoverage, model.BandHardFail, "Garden coverage of %s exceeds the 50%% cap", pct(ratio))
		}
	}
}

func (c *checker) roofAddition() {
	req := c.req

	// Checked first so a front dormer is reported as such even in a conservation area
	switch req.DormerLocation {
	case "":
		c.skip(model.CondFrontDormer, "dormer_location")
	case model.ElevationFront:
		c.add(model.CondFrontDormer, model.BandHardFail, "Front dormer: roof additions facing the highway on the principal elevation are not permitted development")
	default:
		c.add(model.CondFrontDormer, model.BandPass, "Dormer is on the %s roof slope, not the principal elevation", req.DormerLocation)
	}

	if c.prop.InConservationArea {
		c.add(model.CondRoofConservation, model.BandHardFail, "Roof additions in a conservation area are not permitted development")
	} else {
		c.add(model.CondRoofConservation, model.BandPass, "Property is not in a conservation area")
	}

	if req.RoofVolume == nil {
		c.skip(model.CondRoofVolume, "roof_volume_m3")
	} else {
		c.atMost(model.CondRoofVolume, "Additional roof volume", *req.RoofVolume, catalog.RoofVolumeLimit(c.prop.Type), "m3")
	}
}

func (c *checker) roofAlteration() {
	if c.req.RooflightProjection == nil {
		c.skip(model.CondRooflight, "rooflight_projection_m")
		return
	}
	c.atMost(model.CondRooflight, "Rooflight projection", *c.req.RooflightProjection, catalog.RooflightProjection, "m")
}

func (c *checker) porch() {
	req := c.req

	if req.PorchArea == nil {
		c.skip(model.CondPorchArea, "porch_area_m2")
	} else {
		c.atMost(model.CondPorchArea, "Porch footprint", *req.PorchArea, catalog.PorchArea, "m2")
	}

	if req.PorchHeight == nil {
		c.skip(model.CondPorchHeight, "porch_height_m")
	} else {
		c.atMost(model.CondPorchHeight, "Porch height", *req.PorchHeight, catalog.PorchHeight, "m")
	}

	switch {
	case req.DistanceFromBoundary == nil:
		c.skip(model.CondPorchBoundary, "distance_from_boundary_m")
	case *req.DistanceFromBoundary >= catalog.PorchBoundaryDistance:
		c.add(model.CondPorchBoundary, model.BandPass, "Porch is %s from the highway boundary (minimum %s)", num(*req.DistanceFromBoundary, "m"), num(catalog.PorchBoundaryDistance, "m"))
	default:
		c.add(model.CondPorchBoundary, model.BandHardFail, "Porch is %s from the highway boundary, less than the %s minimum", num(*req.DistanceFromBoundary, "m"), num(catalog.PorchBoundaryDistance, "m"))
	}
}

func (c *checker) outbuilding() {
	req := c.req

	switch {
	case req.OutbuildingHeight == nil:
		c.skip(model.CondOutbuildingHeight, "outbuilding_height_m")
	case req.DistanceFromBoundary == nil:
		c.skip(model.CondOutbuildingHeight, "distance_from_boundary_m")
	default:
		limit, band := catalog.OutbuildingHeightLimit(*req.DistanceFromBoundary, req.DualPitchedRoof != nil && *req.DualPitchedRoof)
		c.atMost(model.CondOutbuildingHeight, "Outbuilding height ("+band+")", *req.OutbuildingHeight, limit, "m")
	}

	c.gardenCoverage()
}

func (c *checker) boundaryTreatment() {
	req := c.req

	switch {
	case req.BoundaryHeight == nil:
		c.skip(model.CondBoundaryHeight, "boundary_height_m")
	case req.AdjacentToHighway != nil:
		adjacent := *req.AdjacentToHighway
		what := "Boundary treatment height (not adjacent to a highway)"
		if adjacent {
			what = "Boundary treatment height (adjacent to a highway)"
		}
		c.atMost(model.CondBoundaryHeight, what, *req.BoundaryHeight, catalog.BoundaryTreatmentLimit(adjacent), "m")
	case *req.BoundaryHeight <= catalog.BoundaryTreatmentHighway:
		c.add(model.CondBoundaryHeight, model.BandPass, "Boundary treatment height of %s is within the %s limit wherever it stands", num(*req.BoundaryHeight, "m"), num(catalog.BoundaryTreatmentHighway, "m"))
	default:
		c.skip(model.CondBoundaryHeight, "adjacent_to_highway")
	}
}

func (c *checker) smallHMO() {
	req := c.req
	if !req.HasChangeOfUse() {
		c.skip(model.CondSmallHMO, "current_use and proposed_use")
		return
	}
	pair := string(req.CurrentUse) + " to " + string(req.ProposedUse)
	if (req.CurrentUse == model.UseC3 && req.ProposedUse == model.UseC4) || (req.CurrentUse == model.UseC4 && req.ProposedUse == model.UseC3) {
		c.add(model.CondSmallHMO, model.BandPass, "Change from %s is permitted development under Class L", pair)
		return
	}
	c.add(model.CondSmallHMO, model.BandHardFail, "Change from %s is not covered by Class L", pair)
}

func (c *checker) commercialToHome() {
	req := c.req
	if req.HasChangeOfUse() && !(req.CurrentUse == model.UseE && req.ProposedUse == model.UseC3) {
		c.add(model.CondCommercialToHome, model.BandHardFail, "Change from %s to %s is not covered by Class MA", req.CurrentUse, req.ProposedUse)
		return
	}
	c.add(model.CondCommercialToHome, model.BandSoftFail, "Change from use class E to C3 requires prior approval under Class MA")
}

// num formats a measurement without trailing zeros
func num(v float64, unit string) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + unit
}

func pct(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}
