package advise

import (
	"fmt"
	"strings"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/determine"
	"github.com/ppiankov/permitcheck/internal/model"
)

// Confidence factors
const (
	FactorListedShortCircuit = "listed_building_short_circuit"
	FactorNoClass            = "no_rule_class_matched"
	FactorInputIssues        = "input_issues"
	FactorMissingRequired    = "missing_required_field"
	FactorArticle4Unknown    = "article4_restrictions_unknown"
	FactorAssessed           = "classified_and_assessed"
)

// Input is the composed outcome plus the context the advice depends on
type Input struct {
	Property    model.PropertyContext
	Request     model.ProposalRequest
	Overlay     *model.Overlay
	Classes     []model.ClassID
	Unmatched   []string
	Conditions  []model.ConditionResult
	InputIssues []string
	Outcome     determine.Outcome
}

// Advice is what the reader should do next, what to watch for, and how far to trust the result
type Advice struct {
	Recommendations []string
	Warnings        []string
	Confidence      model.Confidence
}

// Advisor derives recommendations, warnings and confidence
type Advisor struct {
	cat *catalog.Catalog
}

// NewAdvisor creates an advisor over the catalog
func NewAdvisor(cat *catalog.Catalog) *Advisor {
	return &Advisor{cat: cat}
}

// Advise derives the advisory part of the result
func (a *Advisor) Advise(in Input) Advice {
	adv := Advice{
		Recommendations: []string{},
		Warnings:        []string{},
	}
	rec := func(s string) { adv.Recommendations = appendOnce(adv.Recommendations, s) }
	warn := func(s string) { adv.Warnings = appendOnce(adv.Warnings, s) }

	listed := in.Outcome.DecidedBy.Kind == model.DecidedByListedBuilding

	// Recommendations follow the determination
	switch in.Outcome.Determination {
	case model.RequiresPlanningPermission:
		rec("Submit a full planning application to the local planning authority")
		if listed {
			rec("Apply for listed building consent alongside planning permission")
			rec("Speak to the council's conservation officer before commissioning designs")
		}
	case model.RequiresPriorApproval:
		rec("Apply to the local planning authority for prior approval before starting work")
		if contains(in.Classes, model.ClassA) {
			rec("Expect neighbours to be notified and given 21 days to comment")
		}
		if contains(in.Classes, model.ClassMA) {
			rec("Prepare evidence on transport, contamination, flood risk, noise and natural light for the prior approval")
		}
	case model.PermittedDevelopment:
		if in.Outcome.Determinable {
			rec("Retain evidence of compliance: dated drawings and measurements")
			rec("Consider applying for a Lawful Development Certificate for certainty")
		}
	}

	if !in.Outcome.Determinable && !listed {
		rec("Describe the works more specifically (for example rear extension, loft conversion, porch) or give an explicit proposal type")
	}

	if o := in.Overlay; o != nil && o.Kind != model.OverlayListed {
		switch o.Kind {
		case model.OverlayConservation, model.OverlayConservationArticle4, model.OverlayArticle4:
			rec("Commission a heritage statement describing the effect on the area's character")
		}
		if o.Profile != nil && o.Profile.AppraisalURL != "" {
			rec(fmt.Sprintf("Read the %s character appraisal: %s", o.Profile.Name, o.Profile.AppraisalURL))
		}
	}

	for _, c := range in.Conditions {
		if c.Band == model.BandSkipped && c.Missing != "" {
			rec(fmt.Sprintf("Supply %s so Class %s can be fully assessed", c.Missing, c.Class))
		}
	}

	// Warnings
	if o := in.Overlay; o != nil {
		switch o.Kind {
		case model.OverlayListed:
			warn("Works to a listed building without consent are a criminal offence")
		case model.OverlayArticle4:
			warn(fmt.Sprintf("Article 4 direction in force: %s (%s)", o.Name, strings.Join(o.Restrictions, ", ")))
		case model.OverlayArticle4Unspecified:
			warn("Article 4 direction in force with unknown restrictions; confirm its scope with the local planning authority")
		case model.OverlayConservationArticle4:
			warn("Article 4 direction in force in " + o.Name + "; householder permitted development rights are withdrawn")
		case model.OverlayConservation:
			warn("Conservation area: side extensions, roof additions and cladding are not permitted development")
		}
	}
	if in.Property.PreviouslyExtended {
		warn("Previous extensions reduce the remaining permitted development allowance; limits are measured from the original house")
	}
	for _, u := range in.Unmatched {
		warn("No permitted development class covers " + u)
	}
	for _, c := range in.Conditions {
		if c.Condition == model.CondPropertyExcluded {
			warn(c.Reason)
		}
	}

	adv.Confidence = a.confidence(in, listed)
	return adv
}

// confidence sets the level from the shape of the evaluation:
// HIGH only for the listed short-circuit, LOW when anything needed is missing
func (a *Advisor) confidence(in Input, listed bool) model.Confidence {
	if listed {
		return model.Confidence{Level: model.ConfidenceHigh, Factors: []string{FactorListedShortCircuit}}
	}

	var factors []string
	if len(in.Classes) == 0 {
		factors = append(factors, FactorNoClass)
	}
	if len(in.InputIssues) > 0 {
		factors = append(factors, fmt.Sprintf("%s:%d", FactorInputIssues, len(in.InputIssues)))
	}
	for _, id := range in.Classes {
		rc, ok := a.cat.ClassByID(id)
		if !ok || rc.ExcludesType(in.Property.Type) {
			continue
		}
		for _, field := range rc.Required {
			if !in.Request.Has(field) {
				factors = append(factors, fmt.Sprintf("%s:%s/%s", FactorMissingRequired, id, field))
			}
		}
	}
	if in.Overlay != nil && in.Overlay.Kind == model.OverlayArticle4Unspecified {
		factors = append(factors, FactorArticle4Unknown)
	}

	if len(factors) > 0 {
		return model.Confidence{Level: model.ConfidenceLow, Factors: factors}
	}
	return model.Confidence{Level: model.ConfidenceMedium, Factors: []string{FactorAssessed}}
}

func contains(ids []model.ClassID, id model.ClassID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}

func appendOnce(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
