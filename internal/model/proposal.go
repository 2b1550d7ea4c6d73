package model

import (
	"fmt"
	"strings"
)

// ProposalType is an explicit structured hint for what the works are
type ProposalType string

const (
	ProposalRearExtension         ProposalType = "rear_extension"
	ProposalSideExtension         ProposalType = "side_extension"
	ProposalDoubleStoreyExtension ProposalType = "double_storey_extension"
	ProposalLoftConversion        ProposalType = "loft_conversion"
	ProposalDormer                ProposalType = "dormer"
	ProposalRooflight             ProposalType = "rooflight"
	ProposalPorch                 ProposalType = "porch"
	ProposalOutbuilding           ProposalType = "outbuilding"
	ProposalBoundaryTreatment     ProposalType = "boundary_treatment"
	ProposalChangeOfUse           ProposalType = "change_of_use"
)

// ProposalTypes lists every known proposal type in display order
var ProposalTypes = []ProposalType{
	ProposalRearExtension,
	ProposalSideExtension,
	ProposalDoubleStoreyExtension,
	ProposalLoftConversion,
	ProposalDormer,
	ProposalRooflight,
	ProposalPorch,
	ProposalOutbuilding,
	ProposalBoundaryTreatment,
	ProposalChangeOfUse,
}

// ParseProposalType validates an explicit proposal type
func ParseProposalType(s string) (ProposalType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if key == "" {
		return "", nil
	}
	for _, t := range ProposalTypes {
		if string(t) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown proposal type %q", s)
}

// Elevation identifies which side of the house an addition faces
type Elevation string

const (
	ElevationFront Elevation = "front"
	ElevationRear  Elevation = "rear"
	ElevationSide  Elevation = "side"
)

// ParseElevation validates a front/rear/side location
func ParseElevation(s string) (Elevation, error) {
	switch Elevation(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case ElevationFront:
		return ElevationFront, nil
	case ElevationRear:
		return ElevationRear, nil
	case ElevationSide:
		return ElevationSide, nil
	}
	return "", fmt.Errorf("unknown elevation %q (expected front, rear or side)", s)
}

// UseClass is a Use Classes Order category
type UseClass string

const (
	UseC3         UseClass = "C3" // Dwellinghouses
	UseC4         UseClass = "C4" // Small houses in multiple occupation
	UseE          UseClass = "E"  // Commercial, business and service
	UseB8         UseClass = "B8" // Storage or distribution
	UseSuiGeneris UseClass = "sui_generis"
)

// ParseUseClass validates a use class code
func ParseUseClass(s string) (UseClass, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	switch key {
	case "":
		return "", nil
	case "C3":
		return UseC3, nil
	case "C4":
		return UseC4, nil
	case "E":
		return UseE, nil
	case "B8":
		return UseB8, nil
	case "SUI GENERIS", "SUI_GENERIS", "SG":
		return UseSuiGeneris, nil
	}
	return "", fmt.Errorf("unknown use class %q", s)
}

// ProposalRequest describes the proposed works.
// Every geometry field is a pointer: nil means "not assessed", never zero.
type ProposalRequest struct {
	Description string       `json:"description" yaml:"description"`       // Free-text category, e.g. "single storey rear extension"
	Type        ProposalType `json:"type,omitempty" yaml:"type,omitempty"` // Optional explicit type

	// Extensions (Class A)
	ExtensionDepth      *float64  `json:"extension_depth_m,omitempty" yaml:"extension_depth_m,omitempty"`
	ExtensionHeight     *float64  `json:"extension_height_m,omitempty" yaml:"extension_height_m,omitempty"` // Highest point of the extension
	DoubleStorey        *bool     `json:"double_storey,omitempty" yaml:"double_storey,omitempty"`
	ExtensionLocation   Elevation `json:"extension_location,omitempty" yaml:"extension_location,omitempty"`
	ExistingRidgeHeight *float64  `json:"existing_ridge_height_m,omitempty" yaml:"existing_ridge_height_m,omitempty"`

	// Roof (Classes B and C)
	DormerLocation      Elevation `json:"dormer_location,omitempty" yaml:"dormer_location,omitempty"`
	RoofVolume          *float64  `json:"roof_volume_m3,omitempty" yaml:"roof_volume_m3,omitempty"`
	RooflightProjection *float64  `json:"rooflight_projection_m,omitempty" yaml:"rooflight_projection_m,omitempty"`

	// Porches (Class D)
	PorchArea   *float64 `json:"porch_area_m2,omitempty" yaml:"porch_area_m2,omitempty"`
	PorchHeight *float64 `json:"porch_height_m,omitempty" yaml:"porch_height_m,omitempty"`

	// Outbuildings (Class E)
	OutbuildingHeight *float64 `json:"outbuilding_height_m,omitempty" yaml:"outbuilding_height_m,omitempty"`
	DualPitchedRoof   *bool    `json:"dual_pitched_roof,omitempty" yaml:"dual_pitched_roof,omitempty"`

	// Shared site geometry
	DistanceFromBoundary *float64 `json:"distance_from_boundary_m,omitempty" yaml:"distance_from_boundary_m,omitempty"`
	GardenAreaUsed       *float64 `json:"garden_area_used_m2,omitempty" yaml:"garden_area_used_m2,omitempty"`
	GardenAreaTotal      *float64 `json:"garden_area_total_m2,omitempty" yaml:"garden_area_total_m2,omitempty"`

	// Gates, fences and walls (Part 2 Class A)
	BoundaryHeight    *float64 `json:"boundary_height_m,omitempty" yaml:"boundary_height_m,omitempty"`
	AdjacentToHighway *bool    `json:"adjacent_to_highway,omitempty" yaml:"adjacent_to_highway,omitempty"`

	// Change of use
	CurrentUse  UseClass `json:"current_use,omitempty" yaml:"current_use,omitempty"`
	ProposedUse UseClass `json:"proposed_use,omitempty" yaml:"proposed_use,omitempty"`
}

// IsDoubleStorey reports whether the extension was declared as more than one storey
func (r ProposalRequest) IsDoubleStorey() bool {
	return r.DoubleStorey != nil && *r.DoubleStorey
}

// HasChangeOfUse reports whether a structured use-class pair was supplied
func (r ProposalRequest) HasChangeOfUse() bool {
	return r.CurrentUse != "" && r.ProposedUse != ""
}

// Float returns a pointer to v, for building requests in code and tests
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}

// Has reports whether the named request field was supplied. Names are the JSON field names.
func (r ProposalRequest) Has(field string) bool {
	switch field {
	case "description":
		return r.Description != ""
	case "type":
		return r.Type != ""
	case "extension_depth_m":
		return r.ExtensionDepth != nil
	case "extension_height_m":
		return r.ExtensionHeight != nil
	case "double_storey":
		return r.DoubleStorey != nil
	case "extension_location":
		return r.ExtensionLocation != ""
	case "existing_ridge_height_m":
		return r.ExistingRidgeHeight != nil
	case "dormer_location":
		return r.DormerLocation != ""
	case "roof_volume_m3":
		return r.RoofVolume != nil
	case "rooflight_projection_m":
		return r.RooflightProjection != nil
	case "porch_area_m2":
		return r.PorchArea != nil
	case "porch_height_m":
		return r.PorchHeight != nil
	case "outbuilding_height_m":
		return r.OutbuildingHeight != nil
	case "dual_pitched_roof":
		return r.DualPitchedRoof != nil
	case "distance_from_boundary_m":
		return r.DistanceFromBoundary != nil
	case "garden_area_used_m2":
		return r.GardenAreaUsed != nil
	case "garden_area_total_m2":
		return r.GardenAreaTotal != nil
	case "boundary_height_m":
		return r.BoundaryHeight != nil
	case "adjacent_to_highway":
		return r.AdjacentToHighway != nil
	case "current_use":
		return r.CurrentUse != ""
	case "proposed_use":
		return r.ProposedUse != ""
	}
	return false
}
