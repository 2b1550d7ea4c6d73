package model

// Band is the outcome of one condition check
type Band string

const (
	BandPass     Band = "pass"      // Within permitted limits
	BandSoftFail Band = "soft_fail" // Within the prior approval band
	BandHardFail Band = "hard_fail" // Outside every permitted band, or a blanket rule is broken
	BandSkipped  Band = "skipped"   // A field the condition needs was not supplied
)

// Classification is one rule class the proposal maps to
type Classification struct {
	Class  ClassID `json:"class"`
	Reason string  `json:"reason"` // Which rule matched (e.g., "keyword:dormer", "type:porch")
}

// ClassifiedClass is a Classification enriched for output
type ClassifiedClass struct {
	Class      ClassID `json:"class"`
	Name       string  `json:"name"`
	Reason     string  `json:"reason"`
	Applicable bool    `json:"applicable"` // False when the class is excluded for the property type
}

// ConditionResult is the narrative result of checking one condition
type ConditionResult struct {
	Class     ClassID     `json:"class"`
	Condition ConditionID `json:"condition"`
	Band      Band        `json:"band"`
	Reason    string      `json:"reason"`
	Missing   string      `json:"missing,omitempty"` // Field that was absent when Band is skipped
}

// CalculatedLimit is an auditable numeric comparison
type CalculatedLimit struct {
	Name        string  `json:"name"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
	Proposed    float64 `json:"proposed"`
	Unit        string  `json:"unit"`
	Compliant   bool    `json:"compliant"`
}

// Determination is the final planning outcome
type Determination string

const (
	PermittedDevelopment       Determination = "PermittedDevelopment"
	RequiresPriorApproval      Determination = "RequiresPriorApproval"
	RequiresPlanningPermission Determination = "RequiresPlanningPermission"
)

// Label returns a reader-facing label for the determination
func (d Determination) Label() string {
	switch d {
	case PermittedDevelopment:
		return "Permitted development"
	case RequiresPriorApproval:
		return "Prior approval required"
	case RequiresPlanningPermission:
		return "Planning permission required"
	default:
		return "Unknown"
	}
}

// DeciderKind names which layer produced the determination
type DeciderKind string

const (
	DecidedByListedBuilding   DeciderKind = "listed_building"
	DecidedByCondition        DeciderKind = "condition"
	DecidedByLimit            DeciderKind = "limit"
	DecidedByArticle4         DeciderKind = "article4"
	DecidedBySoftFail         DeciderKind = "soft_fail"
	DecidedByDefault          DeciderKind = "default"
	DecidedByInsufficientInfo DeciderKind = "insufficient_information"
)

// Decider is the single rule, overlay or limit that produced the determination
type Decider struct {
	Kind   DeciderKind `json:"kind"`
	Ref    string      `json:"ref"` // e.g. "A/rear_depth", "overlay:Hampstead", "limit:extension_depth"
	Reason string      `json:"reason"`
}

// ConfidenceLevel is derived from the shape of the evaluation, never supplied
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Confidence carries the level and the factors that set it
type Confidence struct {
	Level   ConfidenceLevel `json:"level"`
	Factors []string        `json:"factors"`
}

// ComplianceResult is the complete output of a compliance check
type ComplianceResult struct {
	Determination Determination  `json:"determination"`
	DecidedBy     Decider        `json:"decided_by"`
	Determinable  bool           `json:"determinable"` // False when the proposal could not be classified
	Heritage      HeritageStatus `json:"heritage_status"`

	Classes    []ClassifiedClass `json:"classes"`
	Conditions []ConditionResult `json:"conditions"`
	Limits     []CalculatedLimit `json:"limits"`

	Overlay      *Overlay `json:"overlay,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`

	Recommendations []string   `json:"recommendations"`
	Warnings        []string   `json:"warnings"`
	InputIssues     []string   `json:"input_issues,omitempty"`
	Confidence      Confidence `json:"confidence"`

	CatalogVersion string `json:"catalog_version"`

	Narrative *Narrative `json:"narrative,omitempty"` // Optional LLM text (separate, never affects determination)
}

// Narrative is an optional plain-English explanation produced after the determination
type Narrative struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Guarded  bool     `json:"guarded"` // Text was checked against the determination and the allowed links
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
