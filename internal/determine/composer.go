package determine

import (
	"fmt"

	"github.com/ppiankov/permitcheck/internal/model"
)

// Input is everything the composer needs. It is assembled by the pipeline.
type Input struct {
	Overlay    *model.Overlay
	Classes    []model.ClassID
	Conditions []model.ConditionResult
	Limits     []model.CalculatedLimit
}

// Outcome is the determination and the single rule, overlay or limit that produced it
type Outcome struct {
	Determination model.Determination
	DecidedBy     model.Decider
	Determinable  bool // False when no rule class could be identified
}

// Compose applies the rule chain, first match wins.
// Rule priority (fail-fast):
//  1. Listed building overlay - terminal
//  2. Hard-fail condition, then non-compliant limit
//  3. Article 4 overlay that withdraws a classified class, or any Article 4
//     overlay when nothing could be classified
//  4. Soft-fail condition - prior approval
//  5. Permitted development (default, or insufficient information when unclassified)
//
// This is pure logic: no I/O, no side effects.
func Compose(in Input) Outcome {
	// Rule 1: listed building
	if in.Overlay != nil && in.Overlay.Kind == model.OverlayListed {
		return rpp(model.Decider{
			Kind:   model.DecidedByListedBuilding,
			Ref:    "overlay:" + in.Overlay.Name,
			Reason: "Listed buildings have no permitted development rights for works affecting their character; listed building consent is required",
		}, true)
	}

	determinable := len(in.Classes) > 0

	// Rule 2: any hard-fail condition, then any breached limit
	for _, c := range in.Conditions {
		if c.Band == model.BandHardFail {
			return rpp(model.Decider{
				Kind:   model.DecidedByCondition,
				Ref:    fmt.Sprintf("%s/%s", c.Class, c.Condition),
				Reason: c.Reason,
			}, determinable)
		}
	}
	for _, l := range in.Limits {
		if !l.Compliant {
			return rpp(model.Decider{
				Kind:   model.DecidedByLimit,
				Ref:    "limit:" + l.Name,
				Reason: fmt.Sprintf("%s: proposed %g%s exceeds %g%s", l.Description, l.Proposed, l.Unit, l.Threshold, l.Unit),
			}, determinable)
		}
	}

	// Rule 3: Article 4 overlay withdrawing a classified class
	if in.Overlay != nil && in.Overlay.Kind.RestrictsPD() {
		if !determinable {
			return rpp(model.Decider{
				Kind:   model.DecidedByArticle4,
				Ref:    "overlay:" + in.Overlay.Name,
				Reason: fmt.Sprintf("%s is in force and the works could not be matched to a class; permitted development rights cannot be relied on", in.Overlay.Name),
			}, false)
		}
		if hit, ok := in.Overlay.NullifiesAny(in.Classes); ok {
			reason := fmt.Sprintf("%s withdraws Class %s permitted development rights", in.Overlay.Name, hit)
			if in.Overlay.Kind == model.OverlayArticle4Unspecified {
				reason = fmt.Sprintf("%s is in force with unknown scope; Class %s rights are treated as withdrawn", in.Overlay.Name, hit)
			}
			return rpp(model.Decider{
				Kind:   model.DecidedByArticle4,
				Ref:    "overlay:" + in.Overlay.Name,
				Reason: reason,
			}, determinable)
		}
	}

	// Rule 4: prior approval band
	for _, c := range in.Conditions {
		if c.Band == model.BandSoftFail {
			return Outcome{
				Determination: model.RequiresPriorApproval,
				DecidedBy: model.Decider{
					Kind:   model.DecidedBySoftFail,
					Ref:    fmt.Sprintf("%s/%s", c.Class, c.Condition),
					Reason: c.Reason,
				},
				Determinable: determinable,
			}
		}
	}

	// Rule 5: nothing stood in the way
	if !determinable {
		return Outcome{
			Determination: model.PermittedDevelopment,
			DecidedBy: model.Decider{
				Kind:   model.DecidedByInsufficientInfo,
				Ref:    "classification:none",
				Reason: "The proposal did not match any permitted development class; no restriction was found but the outcome cannot be confirmed",
			},
			Determinable: false,
		}
	}
	return Outcome{
		Determination: model.PermittedDevelopment,
		DecidedBy: model.Decider{
			Kind:   model.DecidedByDefault,
			Ref:    "default",
			Reason: "All assessed conditions are within permitted development limits",
		},
		Determinable: true,
	}
}

func rpp(d model.Decider, determinable bool) Outcome {
	return Outcome{
		Determination: model.RequiresPlanningPermission,
		DecidedBy:     d,
		Determinable:  determinable,
	}
}
