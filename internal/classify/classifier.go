package classify

import (
	"regexp"
	"strings"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/model"
)

// roofWords stop the generic extension keywords from implying Class A within the same clause
var roofWords = []string{"loft", "dormer", "roof", "mansard", "hip to gable", "rooflight", "skylight"}

// clauseBreak splits a description into separately described works
var clauseBreak = regexp.MustCompile(`\s*(?:[,;&+]|\band\b|\bwith\b|\bplus\b)\s*`)

// keywordRule maps a whole word or phrase in the description to rule classes
type keywordRule struct {
	keyword string
	classes []model.ClassID
	unless  []string // Rule is skipped for a clause containing any of these words

	re       *regexp.Regexp
	unlessRe []*regexp.Regexp
}

// Result is the set of classes a proposal maps to
type Result struct {
	Classes   []model.Classification `json:"classes"`
	Unmatched []string               `json:"unmatched,omitempty"` // Structured hints that mapped to no class
}

// Empty reports whether no class matched
func (r Result) Empty() bool {
	return len(r.Classes) == 0
}

// IDs returns the class ids in classification order
func (r Result) IDs() []model.ClassID {
	ids := make([]model.ClassID, 0, len(r.Classes))
	for _, c := range r.Classes {
		ids = append(ids, c.Class)
	}
	return ids
}

// Classifier maps proposals to rule classes with a fixed, ordered table
type Classifier struct {
	cat      *catalog.Catalog
	types    map[model.ProposalType][]model.ClassID
	keywords []keywordRule
}

// NewClassifier creates a classifier over the catalog
func NewClassifier(cat *catalog.Catalog) *Classifier {
	c := &Classifier{
		cat: cat,
		types: map[model.ProposalType][]model.ClassID{
			model.ProposalRearExtension:         {model.ClassA},
			model.ProposalSideExtension:         {model.ClassA},
			model.ProposalDoubleStoreyExtension: {model.ClassA},
			model.ProposalLoftConversion:        {model.ClassB, model.ClassC},
			model.ProposalDormer:                {model.ClassB, model.ClassC},
			model.ProposalRooflight:             {model.ClassC},
			model.ProposalPorch:                 {model.ClassD},
			model.ProposalOutbuilding:           {model.ClassE},
			model.ProposalBoundaryTreatment:     {model.ClassP2A},
		},
		keywords: []keywordRule{
			{keyword: "loft", classes: []model.ClassID{model.ClassB, model.ClassC}},
			{keyword: "dormer", classes: []model.ClassID{model.ClassB, model.ClassC}},
			{keyword: "mansard", classes: []model.ClassID{model.ClassB, model.ClassC}},
			{keyword: "hip to gable", classes: []model.ClassID{model.ClassB, model.ClassC}},
			{keyword: "roof", classes: []model.ClassID{model.ClassB, model.ClassC}},
			{keyword: "rooflight", classes: []model.ClassID{model.ClassC}},
			{keyword: "skylight", classes: []model.ClassID{model.ClassC}},
			{keyword: "extension", classes: []model.ClassID{model.ClassA}, unless: append([]string{"porch"}, roofWords...)},
			{keyword: "rear", classes: []model.ClassID{model.ClassA}, unless: roofWords},
			{keyword: "side", classes: []model.ClassID{model.ClassA}, unless: roofWords},
			{keyword: "storey", classes: []model.ClassID{model.ClassA}, unless: roofWords},
			{keyword: "conservatory", classes: []model.ClassID{model.ClassA}},
			{keyword: "orangery", classes: []model.ClassID{model.ClassA}},
			{keyword: "porch", classes: []model.ClassID{model.ClassD}},
			{keyword: "outbuilding", classes: []model.ClassID{model.ClassE}},
			{keyword: "shed", classes: []model.ClassID{model.ClassE}},
			{keyword: "summerhouse", classes: []model.ClassID{model.ClassE}},
			{keyword: "garden room", classes: []model.ClassID{model.ClassE}},
			{keyword: "greenhouse", classes: []model.ClassID{model.ClassE}},
			{keyword: "fence", classes: []model.ClassID{model.ClassP2A}},
			{keyword: "fencing", classes: []model.ClassID{model.ClassP2A}},
			{keyword: "gate", classes: []model.ClassID{model.ClassP2A}},
			{keyword: "boundary wall", classes: []model.ClassID{model.ClassP2A}},
			{keyword: "hmo", classes: []model.ClassID{model.ClassL}},
			{keyword: "house in multiple occupation", classes: []model.ClassID{model.ClassL}},
			{keyword: "shop to flat", classes: []model.ClassID{model.ClassMA}},
			{keyword: "commercial to residential", classes: []model.ClassID{model.ClassMA}},
			{keyword: "office to residential", classes: []model.ClassID{model.ClassMA}},
		},
	}

	for i := range c.keywords {
		rule := &c.keywords[i]
		rule.re = wordPattern(rule.keyword)
		for _, word := range rule.unless {
			rule.unlessRe = append(rule.unlessRe, wordPattern(word))
		}
	}

	return c
}

// wordPattern matches a word or phrase on word boundaries, allowing a plural
// and any run of whitespace or hyphens between words
func wordPattern(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b` + strings.Join(words, `[\s-]+`) + `(s|es)?\b`)
}

// Classify maps a proposal to rule classes. Order: explicit type, explicit
// change-of-use pair, then the keyword table over the description. Exclusion
// words only apply inside the clause that holds the keyword, so "rear
// extension and loft conversion" keeps Class A. A class appears once,
// carrying the reason of its first match.
func (c *Classifier) Classify(req model.ProposalRequest) Result {
	var res Result
	seen := make(map[model.ClassID]bool)
	add := func(reason string, classes ...model.ClassID) {
		for _, id := range classes {
			if seen[id] {
				continue
			}
			seen[id] = true
			res.Classes = append(res.Classes, model.Classification{Class: id, Reason: reason})
		}
	}

	if req.Type != "" {
		if ids, ok := c.types[req.Type]; ok {
			add("type:"+string(req.Type), ids...)
		} else if req.Type == model.ProposalChangeOfUse && !req.HasChangeOfUse() {
			res.Unmatched = append(res.Unmatched, "type:change_of_use without current and proposed use")
		}
	}

	if req.HasChangeOfUse() {
		pair := string(req.CurrentUse) + "->" + string(req.ProposedUse)
		if id, ok := c.cat.ChangeOfUseClass(req.CurrentUse, req.ProposedUse); ok {
			add("change_of_use:"+pair, id)
		} else {
			res.Unmatched = append(res.Unmatched, "change_of_use:"+pair)
		}
	}

	clauses := splitClauses(req.Description)
	for _, rule := range c.keywords {
		if rule.matchesAny(clauses) {
			add("keyword:"+rule.keyword, rule.classes...)
		}
	}

	return res
}

// matchesAny reports whether some clause holds the keyword without an exclusion word
func (r keywordRule) matchesAny(clauses []string) bool {
	for _, clause := range clauses {
		if r.re.MatchString(clause) && !r.excluded(clause) {
			return true
		}
	}
	return false
}

func splitClauses(description string) []string {
	text := normalize(description)
	if text == "" {
		return nil
	}
	var clauses []string
	for _, part := range clauseBreak.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			clauses = append(clauses, part)
		}
	}
	return clauses
}

func (r keywordRule) excluded(text string) bool {
	for _, re := range r.unlessRe {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// normalize lower-cases and collapses whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
