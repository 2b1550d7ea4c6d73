package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/permitcheck/internal/model"
)

// BaseVersion identifies the built-in rule tables
const BaseVersion = "gpdo2015-1"

var (
	ErrEmptyCatalog   = errors.New("catalog has no rule classes")
	ErrDuplicateClass = errors.New("duplicate rule class")
	ErrUnknownClass   = errors.New("unknown rule class")
	ErrInvalidArea    = errors.New("invalid article 4 area")
)

// Catalog is the read-only index of rule classes, overlays and Article 4 areas.
// It is built once by New and shared by pointer; nothing mutates it afterwards.
type Catalog struct {
	version string

	classes     map[model.ClassID]*model.RuleClass
	classOrder  []model.ClassID
	changeOfUse map[usePair]model.ClassID

	listed       map[model.ListedGrade]*model.ListedPolicy
	conservation model.ConservationPolicy
	consArticle4 model.ConservationPolicy

	areas     map[string]*model.Article4Area
	areaOrder []string
	profiles  map[string]*model.AreaProfile
}

// Option adjusts the tables before validation
type Option func(*builder)

type builder struct {
	classes  []model.RuleClass
	areas    []model.Article4Area
	profiles []model.AreaProfile
	merged   []string
}

// WithArticle4Areas merges Article 4 areas over the defaults. An area whose
// normalised name matches a default replaces it.
func WithArticle4Areas(areas ...model.Article4Area) Option {
	return func(b *builder) {
		b.areas = append(b.areas, areas...)
		for _, a := range areas {
			b.merged = append(b.merged, "a4:"+NormalizeAreaName(a.Name))
		}
	}
}

// WithProfiles merges descriptive area profiles over the defaults
func WithProfiles(profiles ...model.AreaProfile) Option {
	return func(b *builder) {
		b.profiles = append(b.profiles, profiles...)
		for _, p := range profiles {
			b.merged = append(b.merged, "profile:"+NormalizeAreaName(p.Name))
		}
	}
}

// WithClasses replaces the built-in rule classes. Used by tests that need a
// deliberately broken catalog.
func WithClasses(classes ...model.RuleClass) Option {
	return func(b *builder) {
		b.classes = classes
	}
}

// New builds and validates the catalog
func New(opts ...Option) (*Catalog, error) {
	b := &builder{
		classes:  defaultClasses(),
		areas:    defaultArticle4Areas(),
		profiles: defaultProfiles(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if len(b.classes) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		version:     BaseVersion,
		classes:     make(map[model.ClassID]*model.RuleClass, len(b.classes)),
		changeOfUse: defaultChangesOfUse(),
		listed:      make(map[model.ListedGrade]*model.ListedPolicy),
		areas:       make(map[string]*model.Article4Area),
		profiles:    make(map[string]*model.AreaProfile),
	}

	for i := range b.classes {
		rc := b.classes[i]
		if !rc.ID.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClass, rc.ID)
		}
		if _, dup := c.classes[rc.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, rc.ID)
		}
		c.classes[rc.ID] = &rc
		c.classOrder = append(c.classOrder, rc.ID)
	}

	for pair, id := range c.changeOfUse {
		if _, ok := c.classes[id]; !ok {
			return nil, fmt.Errorf("%w: change of use %s->%s maps to %s", ErrUnknownClass, pair.from, pair.to, id)
		}
	}

	for _, p := range defaultListedPolicies() {
		c.listed[p.Grade] = &p
	}
	c.conservation, c.consArticle4 = defaultConservationPolicies()

	for _, a := range b.areas {
		key := NormalizeAreaName(a.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidArea)
		}
		if len(a.Nullifies) == 0 {
			return nil, fmt.Errorf("%w: %q nullifies no classes", ErrInvalidArea, a.Name)
		}
		for _, id := range a.Nullifies {
			if _, ok := c.classes[id]; !ok {
				return nil, fmt.Errorf("%w: area %q nullifies %q", ErrUnknownClass, a.Name, id)
			}
		}
		if _, exists := c.areas[key]; !exists {
			c.areaOrder = append(c.areaOrder, key)
		}
		c.areas[key] = &a
	}
	sort.Strings(c.areaOrder)

	for _, p := range b.profiles {
		key := NormalizeAreaName(p.Name)
		if key == "" {
			continue
		}
		c.profiles[key] = &p
	}

	if len(b.merged) > 0 {
		h := sha256.Sum256([]byte(strings.Join(b.merged, "\n")))
		c.version = BaseVersion + "+" + hex.EncodeToString(h[:])[:8]
	}

	return c, nil
}

// MustNew is New for tests and package-level defaults; it panics on a broken catalog
func MustNew(opts ...Option) *Catalog {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Version identifies the tables, including any merged reference data
func (c *Catalog) Version() string {
	return c.version
}

// ClassByID looks up a rule class. The class is shared by every caller and must not be modified.
func (c *Catalog) ClassByID(id model.ClassID) (*model.RuleClass, bool) {
	rc, ok := c.classes[id]
	return rc, ok
}

// Classes returns every rule class in catalog order. The classes are shared and must not be modified.
func (c *Catalog) Classes() []*model.RuleClass {
	out := make([]*model.RuleClass, 0, len(c.classOrder))
	for _, id := range c.classOrder {
		out = append(out, c.classes[id])
	}
	return out
}

// Article4AreaByName looks up a named Article 4 direction. The area is shared and must not be modified.
func (c *Catalog) Article4AreaByName(name string) (*model.Article4Area, bool) {
	a, ok := c.areas[NormalizeAreaName(name)]
	return a, ok
}

// Article4Areas returns every area ordered by normalised name
func (c *Catalog) Article4Areas() []*model.Article4Area {
	out := make([]*model.Article4Area, 0, len(c.areaOrder))
	for _, key := range c.areaOrder {
		out = append(out, c.areas[key])
	}
	return out
}

// ChangeOfUseClass returns the class governing a use-class change
func (c *Catalog) ChangeOfUseClass(from, to model.UseClass) (model.ClassID, bool) {
	id, ok := c.changeOfUse[usePair{from, to}]
	return id, ok
}

// ConservationProfile returns descriptive text for a named area. The profile is shared; copy before modifying.
func (c *Catalog) ConservationProfile(name string) (*model.AreaProfile, bool) {
	p, ok := c.profiles[NormalizeAreaName(name)]
	return p, ok
}

// ListedPolicy returns the consent regime for a listing grade. The policy is shared; copy before modifying.
func (c *Catalog) ListedPolicy(grade model.ListedGrade) (*model.ListedPolicy, bool) {
	p, ok := c.listed[grade]
	return p, ok
}

// ConservationPolicy returns the conservation area layer with or without an Article 4 direction
func (c *Catalog) ConservationPolicy(withArticle4 bool) model.ConservationPolicy {
	if withArticle4 {
		return c.consArticle4
	}
	return c.conservation
}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	suffixRe = regexp.MustCompile(`\s+(conservation area|article 4 direction|article four direction)$`)
)

// NormalizeAreaName lower-cases, collapses whitespace and strips a trailing
// "conservation area" or "article 4 direction", so "Hampstead  Conservation Area"
// and "hampstead" share a key.
func NormalizeAreaName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "’", "'")
	s = spaceRe.ReplaceAllString(s, " ")
	s = suffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
