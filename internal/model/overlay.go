package model

// OverlayKind classifies the heritage layer that applies to a property
type OverlayKind string

const (
	OverlayListed               OverlayKind = "listed"                // Statutory listed building
	OverlayArticle4             OverlayKind = "article4"              // Named Article 4 direction found in the catalog
	OverlayArticle4Unspecified  OverlayKind = "article4_unspecified"  // Article 4 reported, restrictions unknown
	OverlayConservation         OverlayKind = "conservation"          // Conservation area, no Article 4
	OverlayConservationArticle4 OverlayKind = "conservation_article4" // Conservation area with an unnamed Article 4 direction
)

// RestrictsPD reports whether the overlay withdraws permitted development rights
func (k OverlayKind) RestrictsPD() bool {
	switch k {
	case OverlayArticle4, OverlayArticle4Unspecified, OverlayConservationArticle4:
		return true
	}
	return false
}

// ListedPolicy is the consent regime for one listing grade
type ListedPolicy struct {
	Grade            ListedGrade `json:"grade" yaml:"grade"`
	PDAllowed        bool        `json:"pd_allowed" yaml:"pd_allowed"`
	RequiredConsents []string    `json:"required_consents" yaml:"required_consents"`
	Notes            []string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// AreaProfile is descriptive text about a conservation or Article 4 area.
// It is merged into output for the reader and never drives a decision.
type AreaProfile struct {
	Name         string `json:"name" yaml:"name"`
	Reference    string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Borough      string `json:"borough,omitempty" yaml:"borough,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	AppraisalURL string `json:"appraisal_url,omitempty" yaml:"appraisal_url,omitempty"`
}

// Overlay is the single heritage rule layer resolved for a property
type Overlay struct {
	Kind         OverlayKind   `json:"kind"`
	Name         string        `json:"name"`
	Restrictions []string      `json:"restrictions,omitempty"`
	Nullifies    []ClassID     `json:"nullifies,omitempty"` // Rule classes whose PD rights are withdrawn
	Listed       *ListedPolicy `json:"listed,omitempty"`
	Profile      *AreaProfile  `json:"profile,omitempty"`
}

// NullifiesAny reports whether the overlay withdraws any of the given classes and returns the first hit
func (o *Overlay) NullifiesAny(classes []ClassID) (ClassID, bool) {
	if o == nil {
		return "", false
	}
	for _, c := range classes {
		for _, n := range o.Nullifies {
			if c == n {
				return c, true
			}
		}
	}
	return "", false
}

// HeritageStatus is the tri-state summary of the heritage layer
type HeritageStatus string

const (
	HeritageRed   HeritageStatus = "RED"   // Listed building
	HeritageAmber HeritageStatus = "AMBER" // Conservation area or Article 4
	HeritageGreen HeritageStatus = "GREEN" // Standard permitted development
)

// StatusOf maps a resolved overlay to a heritage status
func StatusOf(o *Overlay) HeritageStatus {
	if o == nil {
		return HeritageGreen
	}
	if o.Kind == OverlayListed {
		return HeritageRed
	}
	return HeritageAmber
}

// Article4Area is a named Article 4 direction held in the catalog
type Article4Area struct {
	Name         string    `json:"name" yaml:"name"`
	Borough      string    `json:"borough,omitempty" yaml:"borough,omitempty"`
	Reference    string    `json:"reference,omitempty" yaml:"reference,omitempty"`
	Restrictions []string  `json:"restrictions" yaml:"restrictions"`
	Nullifies    []ClassID `json:"nullifies" yaml:"nullifies"`
}

// ConservationPolicy is the rule layer for a conservation area, with or without an Article 4 direction
type ConservationPolicy struct {
	WithArticle4 bool      `json:"with_article4"`
	Restrictions []string  `json:"restrictions"`
	Nullifies    []ClassID `json:"nullifies,omitempty"`
}
