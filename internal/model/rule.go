package model

// ClassID identifies a permitted development rule class.
// The set is closed: every id the catalog serves is declared here.
type ClassID string

const (
	ClassA   ClassID = "A"   // Part 1 Class A: enlargement of a dwellinghouse
	ClassB   ClassID = "B"   // Part 1 Class B: additions to the roof
	ClassC   ClassID = "C"   // Part 1 Class C: other alterations to the roof
	ClassD   ClassID = "D"   // Part 1 Class D: porches
	ClassE   ClassID = "E"   // Part 1 Class E: buildings incidental to the enjoyment of the dwellinghouse
	ClassP2A ClassID = "P2A" // Part 2 Class A: gates, fences, walls
	ClassL   ClassID = "L"   // Part 3 Class L: small HMOs to dwellinghouses and vice versa
	ClassMA  ClassID = "MA"  // Part 3 Class MA: commercial to dwellinghouses
)

// ClassIDs lists every rule class in catalog order
var ClassIDs = []ClassID{ClassA, ClassB, ClassC, ClassD, ClassE, ClassP2A, ClassL, ClassMA}

// HouseholderClasses are the Part 1 and Part 2 classes an Article 4 direction in a
// conservation area typically withdraws
var HouseholderClasses = []ClassID{ClassA, ClassB, ClassC, ClassD, ClassE, ClassP2A}

// Valid reports whether id is a declared class
func (id ClassID) Valid() bool {
	for _, c := range ClassIDs {
		if c == id {
			return true
		}
	}
	return false
}

// ConditionKind describes how a condition is tested
type ConditionKind string

const (
	ConditionNumeric     ConditionKind = "numeric"
	ConditionBoolean     ConditionKind = "boolean"
	ConditionCategorical ConditionKind = "categorical"
)

// ConditionID names a condition within the catalog
type ConditionID string

const (
	CondRearDepth          ConditionID = "rear_depth"
	CondDoubleStoreyDepth  ConditionID = "double_storey_depth"
	CondSingleStoreyHeight ConditionID = "single_storey_height"
	CondDoubleStoreyHeight ConditionID = "double_storey_height"
	CondFrontExtension     ConditionID = "front_extension"
	CondSideConservation   ConditionID = "side_extension_conservation"
	CondGardenCoverage     ConditionID = "garden_coverage"
	CondFrontDormer        ConditionID = "front_dormer"
	CondRoofConservation   ConditionID = "roof_addition_conservation"
	CondRoofVolume         ConditionID = "roof_volume"
	CondRooflight          ConditionID = "rooflight_projection"
	CondPorchArea          ConditionID = "porch_area"
	CondPorchHeight        ConditionID = "porch_height"
	CondPorchBoundary      ConditionID = "porch_boundary_distance"
	CondOutbuildingHeight  ConditionID = "outbuilding_height"
	CondBoundaryHeight     ConditionID = "boundary_height"
	CondSmallHMO           ConditionID = "small_hmo_change"
	CondCommercialToHome   ConditionID = "commercial_to_residential"
	CondPropertyExcluded   ConditionID = "property_type_excluded"
)

// Condition is a named predicate a rule class places on a proposal
type Condition struct {
	ID          ConditionID   `json:"id" yaml:"id"`
	Kind        ConditionKind `json:"kind" yaml:"kind"`
	Description string        `json:"description" yaml:"description"`
	Field       string        `json:"field,omitempty" yaml:"field,omitempty"` // Request field the condition reads
}

// RuleClass is one permitted development class
type RuleClass struct {
	ID          ClassID        `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Reference   string         `json:"reference" yaml:"reference"` // Legislation reference (GPDO 2015 Schedule 2)
	Conditions  []Condition    `json:"conditions" yaml:"conditions"`
	Limitations []string       `json:"limitations,omitempty" yaml:"limitations,omitempty"`
	ExcludedFor []PropertyType `json:"excluded_for,omitempty" yaml:"excluded_for,omitempty"`
	Required    []string       `json:"required_fields,omitempty" yaml:"required_fields,omitempty"` // Fields without which the class cannot be assessed
}

// ExcludesType reports whether the class never applies to the property type
func (c *RuleClass) ExcludesType(t PropertyType) bool {
	for _, ex := range c.ExcludedFor {
		if ex == t {
			return true
		}
	}
	return false
}

// Condition returns the condition with the given id
func (c *RuleClass) Condition(id ConditionID) (Condition, bool) {
	for _, cond := range c.Conditions {
		if cond.ID == id {
			return cond, true
		}
	}
	return Condition{}, false
}
