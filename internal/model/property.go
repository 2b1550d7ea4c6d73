package model

import (
	"fmt"
	"strings"
)

// PropertyType classifies the built form of the dwelling
type PropertyType string

const (
	PropertyDetached     PropertyType = "detached"
	PropertySemiDetached PropertyType = "semi_detached"
	PropertyTerraced     PropertyType = "terraced"
	PropertyFlat         PropertyType = "flat"
)

// Attached reports whether the property shares a party wall (semi-detached or terraced)
func (t PropertyType) Attached() bool {
	return t == PropertySemiDetached || t == PropertyTerraced
}

// Valid reports whether t is one of the known property types
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyDetached, PropertySemiDetached, PropertyTerraced, PropertyFlat:
		return true
	}
	return false
}

// ParsePropertyType accepts the common spellings used by councils and listing portals
func ParsePropertyType(s string) (PropertyType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	switch key {
	case "":
		return "", nil
	case "detached", "detached_house":
		return PropertyDetached, nil
	case "semi_detached", "semi", "semidetached", "semi_detached_house":
		return PropertySemiDetached, nil
	case "terraced", "terrace", "mid_terrace", "end_terrace", "end_of_terrace", "townhouse":
		return PropertyTerraced, nil
	case "flat", "apartment", "maisonette":
		return PropertyFlat, nil
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// ListedGrade is the statutory listing tier of a building
type ListedGrade string

const (
	GradeNone   ListedGrade = "none"
	GradeI      ListedGrade = "I"
	GradeIIStar ListedGrade = "II*"
	GradeII     ListedGrade = "II"
)

// Listed reports whether the grade carries statutory protection. Any value
// other than empty or GradeNone counts, so an unrecognised grade is never
// read as unlisted.
func (g ListedGrade) Listed() bool {
	return g != "" && g != GradeNone
}

// Known reports whether g is one of the defined grades
func (g ListedGrade) Known() bool {
	switch g {
	case "", GradeNone, GradeI, GradeIIStar, GradeII:
		return true
	}
	return false
}

// ParseListedGrade normalises the grade spellings found in the Historic England register
// exports ("2*", "Grade II", "1") into a ListedGrade
func ParseListedGrade(s string) (ListedGrade, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimSpace(strings.TrimPrefix(key, "GRADE"))
	key = strings.ReplaceAll(key, " ", "")

	switch key {
	case "", "NONE", "UNLISTED", "N/A":
		return GradeNone, nil
	case "I", "1":
		return GradeI, nil
	case "II*", "2*", "IISTAR":
		return GradeIIStar, nil
	case "II", "2":
		return GradeII, nil
	}
	return GradeNone, fmt.Errorf("unknown listed grade %q", s)
}

// PropertyContext is the already-resolved heritage status of a property.
// It is supplied by the caller; the engine never looks anything up.
type PropertyContext struct {
	Type        PropertyType `json:"property_type" yaml:"property_type"`
	ListedGrade ListedGrade  `json:"listed_grade,omitempty" yaml:"listed_grade,omitempty"`

	InConservationArea bool   `json:"in_conservation_area" yaml:"in_conservation_area"`
	ConservationArea   string `json:"conservation_area,omitempty" yaml:"conservation_area,omitempty"` // Named area (optional)

	HasArticle4  bool   `json:"has_article4" yaml:"has_article4"`
	Article4Area string `json:"article4_area,omitempty" yaml:"article4_area,omitempty"` // Named direction (optional)

	PreviouslyExtended bool `json:"previously_extended" yaml:"previously_extended"`
}

// Listed reports whether the property is a listed building
func (p PropertyContext) Listed() bool {
	return p.ListedGrade.Listed()
}

// Article4Present reports whether any Article 4 signal was supplied
func (p PropertyContext) Article4Present() bool {
	return p.HasArticle4 || strings.TrimSpace(p.Article4Area) != ""
}
