// Package refdata loads Article 4 directions and conservation area profiles from
// council open-data exports so they can be merged into the rule catalog.
package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/model"
)

// ErrUnsupportedFormat is returned for files that are neither GeoJSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported reference data format")

// Dataset is the reference data read from one file
type Dataset struct {
	Areas    []model.Article4Area
	Profiles []model.AreaProfile
	Skipped  int // Features dropped: unnamed, or outside the target boroughs
}

// Options returns the catalog options that merge the dataset
func (d *Dataset) Options() []catalog.Option {
	return []catalog.Option{
		catalog.WithArticle4Areas(d.Areas...),
		catalog.WithProfiles(d.Profiles...),
	}
}

// Loader reads reference data files
type Loader struct {
	boroughs []string
}

// NewLoader creates a loader. With no boroughs every feature is kept.
func NewLoader(boroughs ...string) *Loader {
	return &Loader{boroughs: boroughs}
}

// LoadFile picks the parser from the file extension
func (l *Loader) LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return l.ParseGeoJSON(f)
	case ".yaml", ".yml":
		return l.ParseYAML(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]any `json:"properties"`
}

// ParseGeoJSON reads a FeatureCollection of conservation areas.
// Geometry is ignored; the engine never geocodes.
func (l *Loader) ParseGeoJSON(r io.Reader) (*Dataset, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode GeoJSON: %w", err)
	}
	if fc.Features == nil {
		return nil, fmt.Errorf("%w: no features array", ErrUnsupportedFormat)
	}

	ds := &Dataset{}
	for _, f := range fc.Features {
		props := f.Properties
		name := firstString(props, "CA_NAME", "name", "Name", "NAME", "conservation_area_name")
		borough := NormalizeBorough(firstString(props, "borough", "Borough", "LOCAL_AUTHORITY", "LocalAuthority"))
		if name == "" || !l.targetBorough(borough) {
			ds.Skipped++
			continue
		}

		reference := firstString(props, "CA_REF", "reference", "REF", "ca_id")

		ds.Profiles = append(ds.Profiles, model.AreaProfile{
			Name:         name,
			Reference:    reference,
			Borough:      borough,
			Description:  firstString(props, "description", "DESCRIPTION"),
			AppraisalURL: firstString(props, "character_appraisal_url", "CA_URL"),
		})

		if !hasArticle4(props) {
			continue
		}
		restrictions := restrictionList(props)
		ds.Areas = append(ds.Areas, model.Article4Area{
			Name:         name,
			Borough:      borough,
			Reference:    reference,
			Restrictions: restrictions,
			Nullifies:    NullifiedClasses(restrictions),
		})
	}

	return ds, nil
}

type yamlFile struct {
	Article4Areas []model.Article4Area `yaml:"article4_areas"`
	Profiles      []model.AreaProfile  `yaml:"profiles"`
}

// ParseYAML reads article4_areas and profiles lists. Areas without explicit
// nullifies get them derived from their restrictions.
func (l *Loader) ParseYAML(r io.Reader) (*Dataset, error) {
	var y yamlFile
	if err := yaml.NewDecoder(r).Decode(&y); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}

	ds := &Dataset{}
	for _, a := range y.Article4Areas {
		a.Borough = NormalizeBorough(a.Borough)
		if strings.TrimSpace(a.Name) == "" || !l.targetBorough(a.Borough) {
			ds.Skipped++
			continue
		}
		if len(a.Nullifies) == 0 {
			a.Nullifies = NullifiedClasses(a.Restrictions)
		}
		ds.Areas = append(ds.Areas, a)
	}
	for _, p := range y.Profiles {
		p.Borough = NormalizeBorough(p.Borough)
		if strings.TrimSpace(p.Name) == "" || !l.targetBorough(p.Borough) {
			ds.Skipped++
			continue
		}
		ds.Profiles = append(ds.Profiles, p)
	}
	return ds, nil
}

func (l *Loader) targetBorough(borough string) bool {
	if len(l.boroughs) == 0 {
		return true
	}
	b := strings.ToLower(borough)
	for _, target := range l.boroughs {
		if t := strings.ToLower(strings.TrimSpace(target)); t != "" && strings.Contains(b, t) {
			return true
		}
	}
	return false
}

var boroughNames = map[string]string{
	"LB Camden":           "Camden",
	"LB Barnet":           "Barnet",
	"City of Westminster": "Westminster",
	"LB Haringey":         "Haringey",
	"LB Brent":            "Brent",
	"LB Islington":        "Islington",
}

// NormalizeBorough maps council export spellings to the short borough name
func NormalizeBorough(s string) string {
	s = strings.TrimSpace(s)
	if short, ok := boroughNames[s]; ok {
		return short
	}
	return s
}

// restrictionKeywords maps Article 4 restriction wording to the classes it withdraws
var restrictionKeywords = []struct {
	words   []string
	classes []model.ClassID
}{
	{[]string{"extension", "enlargement", "window", "door", "cladding", "render", "paint", "elevation"}, []model.ClassID{model.ClassA}},
	{[]string{"roof", "dormer", "chimney"}, []model.ClassID{model.ClassB, model.ClassC}},
	{[]string{"rooflight", "skylight", "solar"}, []model.ClassID{model.ClassC}},
	{[]string{"porch"}, []model.ClassID{model.ClassD}},
	{[]string{"outbuilding", "shed", "garage"}, []model.ClassID{model.ClassE}},
	{[]string{"boundary", "wall", "fence", "gate", "railing"}, []model.ClassID{model.ClassP2A}},
	{[]string{"hmo", "multiple occupation"}, []model.ClassID{model.ClassL}},
	{[]string{"commercial", "office", "shop"}, []model.ClassID{model.ClassMA}},
}

// NullifiedClasses derives the withdrawn classes from restriction text. Wording that
// names no known works withdraws every householder class.
func NullifiedClasses(restrictions []string) []model.ClassID {
	hit := map[model.ClassID]bool{}
	for _, r := range restrictions {
		text := strings.ToLower(r)
		for _, kw := range restrictionKeywords {
			for _, w := range kw.words {
				if strings.Contains(text, w) {
					for _, id := range kw.classes {
						hit[id] = true
					}
					break
				}
			}
		}
	}
	if len(hit) == 0 {
		return append([]model.ClassID(nil), model.HouseholderClasses...)
	}

	var out []model.ClassID
	for _, id := range model.ClassIDs {
		if hit[id] {
			out = append(out, id)
		}
	}
	return out
}

func hasArticle4(props map[string]any) bool {
	for _, key := range []string{"has_article_4", "ARTICLE_4", "article4"} {
		if truthy(props[key]) {
			return true
		}
	}
	// Some exports only mention the direction in free text
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := props[k].(string); ok && strings.Contains(strings.ToLower(s), "article 4") {
			return true
		}
	}
	return false
}

func restrictionList(props map[string]any) []string {
	var raw any
	for _, key := range []string{"article_4_restrictions", "A4_RESTRICTIONS"} {
		if v, ok := props[key]; ok && v != nil {
			raw = v
			break
		}
	}

	var out []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

func firstString(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := props[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
