// Package validate turns raw CLI and API input into engine types.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/permitcheck/internal/model"
)

// Size limits (fail fast on absurd input)
const (
	MaxDescriptionLength = 500
	MaxNameLength        = 120
	MaxMeasurement       = 10000 // metres, square metres or cubic metres
)

// FieldError is one problem with one input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every field problem found in a request
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e *Error) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *Error) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	sort.SliceStable(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
	return e
}

// PropertyInput is the raw property section of a request
type PropertyInput struct {
	PropertyType       string `json:"property_type" yaml:"property_type"`
	ListedGrade        string `json:"listed_grade,omitempty" yaml:"listed_grade,omitempty"`
	InConservationArea bool   `json:"in_conservation_area" yaml:"in_conservation_area"`
	ConservationArea   string `json:"conservation_area,omitempty" yaml:"conservation_area,omitempty"`
	HasArticle4        bool   `json:"has_article4" yaml:"has_article4"`
	Article4Area       string `json:"article4_area,omitempty" yaml:"article4_area,omitempty"`
	PreviouslyExtended bool   `json:"previously_extended" yaml:"previously_extended"`
}

// ProposalInput is the raw proposal section of a request
type ProposalInput struct {
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`

	ExtensionDepth      *float64 `json:"extension_depth_m,omitempty" yaml:"extension_depth_m,omitempty"`
	ExtensionHeight     *float64 `json:"extension_height_m,omitempty" yaml:"extension_height_m,omitempty"`
	DoubleStorey        *bool    `json:"double_storey,omitempty" yaml:"double_storey,omitempty"`
	ExtensionLocation   string   `json:"extension_location,omitempty" yaml:"extension_location,omitempty"`
	ExistingRidgeHeight *float64 `json:"existing_ridge_height_m,omitempty" yaml:"existing_ridge_height_m,omitempty"`

	DormerLocation      string   `json:"dormer_location,omitempty" yaml:"dormer_location,omitempty"`
	RoofVolume          *float64 `json:"roof_volume_m3,omitempty" yaml:"roof_volume_m3,omitempty"`
	RooflightProjection *float64 `json:"rooflight_projection_m,omitempty" yaml:"rooflight_projection_m,omitempty"`

	PorchArea   *float64 `json:"porch_area_m2,omitempty" yaml:"porch_area_m2,omitempty"`
	PorchHeight *float64 `json:"porch_height_m,omitempty" yaml:"porch_height_m,omitempty"`

	OutbuildingHeight *float64 `json:"outbuilding_height_m,omitempty" yaml:"outbuilding_height_m,omitempty"`
	DualPitchedRoof   *bool    `json:"dual_pitched_roof,omitempty" yaml:"dual_pitched_roof,omitempty"`

	DistanceFromBoundary *float64 `json:"distance_from_boundary_m,omitempty" yaml:"distance_from_boundary_m,omitempty"`
	GardenAreaUsed       *float64 `json:"garden_area_used_m2,omitempty" yaml:"garden_area_used_m2,omitempty"`
	GardenAreaTotal      *float64 `json:"garden_area_total_m2,omitempty" yaml:"garden_area_total_m2,omitempty"`

	BoundaryHeight    *float64 `json:"boundary_height_m,omitempty" yaml:"boundary_height_m,omitempty"`
	AdjacentToHighway *bool    `json:"adjacent_to_highway,omitempty" yaml:"adjacent_to_highway,omitempty"`

	CurrentUse  string `json:"current_use,omitempty" yaml:"current_use,omitempty"`
	ProposedUse string `json:"proposed_use,omitempty" yaml:"proposed_use,omitempty"`
}

// CheckRequest is the body of POST /v1/check and one entry of a batch file
type CheckRequest struct {
	ID       string        `json:"id,omitempty" yaml:"id,omitempty"` // Caller reference, echoed back
	Property PropertyInput `json:"property" yaml:"property"`
	Proposal ProposalInput `json:"proposal" yaml:"proposal"`

	// Parsed values (populated by Validate)
	property model.PropertyContext
	proposal model.ProposalRequest
}

// Validate checks and parses the request. Every field problem is reported at once.
//
// An unknown property type is not an error: it passes through so the engine can
// record it as an input issue and lower confidence. Every other enum must parse,
// because a misread location or use class would silently change the outcome.
func (r *CheckRequest) Validate() error {
	verr := &Error{}
	if r == nil {
		verr.add("body", "request body is required")
		return verr
	}

	r.property = parseProperty(r.Property, verr)
	r.proposal = parseProposal(r.Proposal, verr)

	return verr.orNil()
}

// PropertyContext returns the validated property context
func (r *CheckRequest) PropertyContext() model.PropertyContext {
	return r.property
}

// ProposalRequest returns the validated proposal
func (r *CheckRequest) ProposalRequest() model.ProposalRequest {
	return r.proposal
}

func parseProperty(in PropertyInput, verr *Error) model.PropertyContext {
	prop := model.PropertyContext{
		InConservationArea: in.InConservationArea,
		HasArticle4:        in.HasArticle4,
		PreviouslyExtended: in.PreviouslyExtended,
		ConservationArea:   name(verr, "property.conservation_area", in.ConservationArea),
		Article4Area:       name(verr, "property.article4_area", in.Article4Area),
	}

	// A named area implies membership
	if prop.ConservationArea != "" {
		prop.InConservationArea = true
	}
	if prop.Article4Area != "" {
		prop.HasArticle4 = true
	}

	if t, err := model.ParsePropertyType(in.PropertyType); err == nil {
		prop.Type = t
	} else {
		prop.Type = model.PropertyType(strings.TrimSpace(in.PropertyType))
	}

	grade, err := model.ParseListedGrade(in.ListedGrade)
	if err != nil {
		verr.add("property.listed_grade", "%v", err)
	}
	prop.ListedGrade = grade

	return prop
}

func parseProposal(in ProposalInput, verr *Error) model.ProposalRequest {
	desc := strings.TrimSpace(in.Description)
	if len(desc) > MaxDescriptionLength {
		verr.add("proposal.description", "must be at most %d characters", MaxDescriptionLength)
	}

	req := model.ProposalRequest{
		Description:       desc,
		DoubleStorey:      in.DoubleStorey,
		DualPitchedRoof:   in.DualPitchedRoof,
		AdjacentToHighway: in.AdjacentToHighway,
	}

	var err error
	if req.Type, err = model.ParseProposalType(in.Type); err != nil {
		verr.add("proposal.type", "%v", err)
	}
	if req.ExtensionLocation, err = model.ParseElevation(in.ExtensionLocation); err != nil {
		verr.add("proposal.extension_location", "%v", err)
	}
	if req.DormerLocation, err = model.ParseElevation(in.DormerLocation); err != nil {
		verr.add("proposal.dormer_location", "%v", err)
	}
	if req.CurrentUse, err = model.ParseUseClass(in.CurrentUse); err != nil {
		verr.add("proposal.current_use", "%v", err)
	}
	if req.ProposedUse, err = model.ParseUseClass(in.ProposedUse); err != nil {
		verr.add("proposal.proposed_use", "%v", err)
	}
	if (req.CurrentUse == "") != (req.ProposedUse == "") {
		verr.add("proposal.current_use", "current_use and proposed_use must be supplied together")
	}

	req.ExtensionDepth = measure(verr, "proposal.extension_depth_m", in.ExtensionDepth)
	req.ExtensionHeight = measure(verr, "proposal.extension_height_m", in.ExtensionHeight)
	req.ExistingRidgeHeight = measure(verr, "proposal.existing_ridge_height_m", in.ExistingRidgeHeight)
	req.RoofVolume = measure(verr, "proposal.roof_volume_m3", in.RoofVolume)
	req.RooflightProjection = measure(verr, "proposal.rooflight_projection_m", in.RooflightProjection)
	req.PorchArea = measure(verr, "proposal.porch_area_m2", in.PorchArea)
	req.PorchHeight = measure(verr, "proposal.porch_height_m", in.PorchHeight)
	req.OutbuildingHeight = measure(verr, "proposal.outbuilding_height_m", in.OutbuildingHeight)
	req.DistanceFromBoundary = measure(verr, "proposal.distance_from_boundary_m", in.DistanceFromBoundary)
	req.GardenAreaUsed = measure(verr, "proposal.garden_area_used_m2", in.GardenAreaUsed)
	req.GardenAreaTotal = measure(verr, "proposal.garden_area_total_m2", in.GardenAreaTotal)
	req.BoundaryHeight = measure(verr, "proposal.boundary_height_m", in.BoundaryHeight)

	return req
}

// measure rejects negative, non-finite and absurd values. Zero is a real measurement.
func measure(verr *Error, field string, v *float64) *float64 {
	if v == nil {
		return nil
	}
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		verr.add(field, "must be a finite number")
	case *v < 0:
		verr.add(field, "must not be negative")
	case *v > MaxMeasurement:
		verr.add(field, "must be at most %d", MaxMeasurement)
	default:
		return model.Float(*v)
	}
	return nil
}

func name(verr *Error, field, s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxNameLength {
		verr.add(field, "must be at most %d characters", MaxNameLength)
		return ""
	}
	return s
}
