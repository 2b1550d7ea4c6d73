package overlay

import (
	"fmt"
	"strings"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/model"
)

// Resolver picks the single highest-precedence heritage overlay for a property
type Resolver struct {
	cat *catalog.Catalog
}

// NewResolver creates a resolver over the catalog
func NewResolver(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve returns the overlay that governs the property, or false when standard rules apply.
// The overlay shares nothing with the catalog, so callers may modify it.
//
// Precedence: listed grade, then a named Article 4 direction, then conservation area
// membership (with or without an unnamed Article 4 direction), then an unnamed
// Article 4 direction on its own. Lower layers are ignored once one matches.
func (r *Resolver) Resolve(prop model.PropertyContext) (*model.Overlay, bool) {
	if prop.Listed() {
		return r.listed(prop.ListedGrade), true
	}

	if name := strings.TrimSpace(prop.Article4Area); name != "" {
		if area, ok := r.cat.Article4AreaByName(name); ok {
			return r.article4(area, prop), true
		}
		return unspecified(name), true
	}

	if prop.InConservationArea {
		if prop.HasArticle4 {
			// A conservation area whose own name is a catalogued direction
			if area, ok := r.cat.Article4AreaByName(prop.ConservationArea); ok {
				return r.article4(area, prop), true
			}
		}
		return r.conservation(prop), true
	}

	if prop.HasArticle4 {
		return unspecified(""), true
	}

	return nil, false
}

func (r *Resolver) listed(grade model.ListedGrade) *model.Overlay {
	o := &model.Overlay{
		Kind:      model.OverlayListed,
		Name:      fmt.Sprintf("Grade %s listed building", grade),
		Nullifies: copyClasses(model.ClassIDs),
	}
	policy, ok := r.cat.ListedPolicy(grade)
	if !ok {
		o.Restrictions = []string{fmt.Sprintf("Listing grade %q is not recognised; treat the building as listed and all permitted development rights as withdrawn", string(grade))}
		return o
	}

	cp := *policy
	cp.RequiredConsents = copyStrings(policy.RequiredConsents)
	cp.Notes = copyStrings(policy.Notes)
	o.Listed = &cp

	o.Restrictions = append(o.Restrictions, "No permitted development rights apply to works affecting the character of a listed building")
	for _, consent := range cp.RequiredConsents {
		o.Restrictions = append(o.Restrictions, consent+" required")
	}
	return o
}

func (r *Resolver) article4(area *model.Article4Area, prop model.PropertyContext) *model.Overlay {
	o := &model.Overlay{
		Kind:         model.OverlayArticle4,
		Name:         area.Name,
		Restrictions: copyStrings(area.Restrictions),
		Nullifies:    copyClasses(area.Nullifies),
	}
	o.Profile = r.profile(area.Name, prop.ConservationArea)
	return o
}

func (r *Resolver) conservation(prop model.PropertyContext) *model.Overlay {
	policy := r.cat.ConservationPolicy(prop.HasArticle4)

	o := &model.Overlay{
		Kind:         model.OverlayConservation,
		Name:         conservationName(prop.ConservationArea),
		Restrictions: copyStrings(policy.Restrictions),
		Nullifies:    copyClasses(policy.Nullifies),
	}
	if policy.WithArticle4 {
		o.Kind = model.OverlayConservationArticle4
	}
	o.Profile = r.profile(prop.ConservationArea)
	return o
}

// profile returns a copy of the first catalogued profile among the candidate names
func (r *Resolver) profile(names ...string) *model.AreaProfile {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if p, ok := r.cat.ConservationProfile(name); ok {
			cp := *p
			return &cp
		}
	}
	return nil
}

// unspecified is the conservative overlay for an Article 4 direction whose
// restrictions are not known: every class is treated as withdrawn
func unspecified(name string) *model.Overlay {
	restriction := "Article 4 direction reported but its restrictions are not in the catalog; treat all permitted development rights as withdrawn"
	display := "Article 4 direction (unspecified)"
	if name != "" {
		restriction = fmt.Sprintf("Article 4 direction %q is not in the catalog; treat all permitted development rights as withdrawn", name)
		display = name
	}
	return &model.Overlay{
		Kind:         model.OverlayArticle4Unspecified,
		Name:         display,
		Restrictions: []string{restriction},
		Nullifies:    copyClasses(model.ClassIDs),
	}
}

func conservationName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "Conservation area"
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}

func copyClasses(in []model.ClassID) []model.ClassID {
	if len(in) == 0 {
		return nil
	}
	return append([]model.ClassID(nil), in...)
}
