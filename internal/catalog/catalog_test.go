package catalog

import (
	"errors"
	"testing"

	"github.com/ppiankov/permitcheck/internal/model"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.Version() != BaseVersion {
		t.Errorf("Expected version %s, got %s", BaseVersion, c.Version())
	}

	classes := c.Classes()
	if len(classes) != len(model.ClassIDs) {
		t.Fatalf("Expected %d classes, got %d", len(model.ClassIDs), len(classes))
	}
	for i, rc := range classes {
		if rc.ID != model.ClassIDs[i] {
			t.Errorf("Class %d: expected %s, got %s", i, model.ClassIDs[i], rc.ID)
		}
		if len(rc.Conditions) == 0 {
			t.Errorf("Class %s has no conditions", rc.ID)
		}
	}
}

func TestClassByID(t *testing.T) {
	c := MustNew()

	rc, ok := c.ClassByID(model.ClassB)
	if !ok {
		t.Fatal("Expected class B")
	}
	if !rc.ExcludesType(model.PropertyFlat) {
		t.Error("Expected class B to exclude flats")
	}
	if _, ok := rc.Condition(model.CondFrontDormer); !ok {
		t.Error("Expected class B to carry the front dormer condition")
	}

	if _, ok := c.ClassByID("Z"); ok {
		t.Error("Expected unknown class to be absent")
	}
}

func TestChangeOfUseClass(t *testing.T) {
	c := MustNew()

	tests := []struct {
		from, to model.UseClass
		want     model.ClassID
		found    bool
	}{
		{model.UseC3, model.UseC4, model.ClassL, true},
		{model.UseC4, model.UseC3, model.ClassL, true},
		{model.UseE, model.UseC3, model.ClassMA, true},
		{model.UseB8, model.UseC3, "", false},
		{model.UseC3, model.UseE, "", false},
	}

	for _, tt := range tests {
		got, ok := c.ChangeOfUseClass(tt.from, tt.to)
		if ok != tt.found || got != tt.want {
			t.Errorf("%s->%s: expected (%q, %v), got (%q, %v)", tt.from, tt.to, tt.want, tt.found, got, ok)
		}
	}
}

func TestArticle4AreaByName_Normalisation(t *testing.T) {
	c := MustNew()

	names := []string{
		"Hampstead",
		"hampstead",
		"  HAMPSTEAD  ",
		"Hampstead Conservation Area",
		"Hampstead Article 4 Direction",
	}
	for _, name := range names {
		a, ok := c.Article4AreaByName(name)
		if !ok {
			t.Errorf("Expected %q to match", name)
			continue
		}
		if a.Borough != "Camden" {
			t.Errorf("Expected Camden, got %s", a.Borough)
		}
	}

	if _, ok := c.Article4AreaByName("Hampstead Garden  Suburb"); !ok {
		t.Error("Expected whitespace to collapse")
	}
	if _, ok := c.Article4AreaByName("Atlantis"); ok {
		t.Error("Expected unknown area to be absent")
	}
}

func TestNormalizeAreaName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Queen’s Park", "queen's park"},
		{"St John's  Wood Conservation Area", "st john's wood"},
		{"", ""},
		{"Conservation Area", "conservation area"},
	}
	for _, tt := range tests {
		if got := NormalizeAreaName(tt.in); got != tt.want {
			t.Errorf("NormalizeAreaName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithArticle4Areas_MergesAndVersions(t *testing.T) {
	c, err := New(WithArticle4Areas(
		model.Article4Area{
			Name:         "Hampstead Conservation Area",
			Borough:      "Camden",
			Restrictions: []string{"Solar panels"},
			Nullifies:    []model.ClassID{model.ClassC},
		},
		model.Article4Area{
			Name:      "Belsize",
			Nullifies: []model.ClassID{model.ClassA},
		},
	))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	a, ok := c.Article4AreaByName("hampstead")
	if !ok {
		t.Fatal("Expected Hampstead")
	}
	if len(a.Nullifies) != 1 || a.Nullifies[0] != model.ClassC {
		t.Errorf("Expected merged area to replace default, got %v", a.Nullifies)
	}
	if _, ok := c.Article4AreaByName("Belsize"); !ok {
		t.Error("Expected new area Belsize")
	}
	if c.Version() == BaseVersion {
		t.Error("Expected version to change after merging reference data")
	}

	again := MustNew(WithArticle4Areas(
		model.Article4Area{Name: "Hampstead Conservation Area", Nullifies: []model.ClassID{model.ClassC}},
		model.Article4Area{Name: "Belsize", Nullifies: []model.ClassID{model.ClassA}},
	))
	if again.Version() != c.Version() {
		t.Errorf("Expected stable version, got %s and %s", c.Version(), again.Version())
	}

	areas := c.Article4Areas()
	for i := 1; i < len(areas); i++ {
		if NormalizeAreaName(areas[i-1].Name) > NormalizeAreaName(areas[i].Name) {
			t.Errorf("Expected areas sorted, %q before %q", areas[i-1].Name, areas[i].Name)
		}
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{
			name: "empty",
			opts: []Option{WithClasses()},
			want: ErrEmptyCatalog,
		},
		{
			name: "duplicate class",
			opts: []Option{WithClasses(
				model.RuleClass{ID: model.ClassA},
				model.RuleClass{ID: model.ClassA},
			)},
			want: ErrDuplicateClass,
		},
		{
			name: "undeclared class id",
			opts: []Option{WithClasses(model.RuleClass{ID: "Q"})},
			want: ErrUnknownClass,
		},
		{
			name: "area nullifies unknown class",
			opts: []Option{WithArticle4Areas(model.Article4Area{Name: "X", Nullifies: []model.ClassID{"Q"}})},
			want: ErrUnknownClass,
		},
		{
			name: "area without name",
			opts: []Option{WithArticle4Areas(model.Article4Area{Nullifies: []model.ClassID{model.ClassA}})},
			want: ErrInvalidArea,
		},
		{
			name: "area nullifies nothing",
			opts: []Option{WithArticle4Areas(model.Article4Area{Name: "X"})},
			want: ErrInvalidArea,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestListedAndConservationPolicies(t *testing.T) {
	c := MustNew()

	for _, g := range []model.ListedGrade{model.GradeI, model.GradeIIStar, model.GradeII} {
		p, ok := c.ListedPolicy(g)
		if !ok {
			t.Errorf("Expected policy for grade %s", g)
			continue
		}
		if p.PDAllowed {
			t.Errorf("Grade %s: expected PD not allowed", g)
		}
	}
	if _, ok := c.ListedPolicy(model.GradeNone); ok {
		t.Error("Expected no policy for unlisted buildings")
	}

	if n := c.ConservationPolicy(false).Nullifies; len(n) != 0 {
		t.Errorf("Expected plain conservation policy to nullify nothing, got %v", n)
	}
	with := c.ConservationPolicy(true)
	if len(with.Nullifies) != len(model.HouseholderClasses) {
		t.Errorf("Expected householder classes nullified, got %v", with.Nullifies)
	}
}

func TestConservationProfile(t *testing.T) {
	c := MustNew(WithProfiles(model.AreaProfile{Name: "Kentish Town", Borough: "Camden"}))

	if p, ok := c.ConservationProfile("Kentish Town Conservation Area"); !ok || p.Borough != "Camden" {
		t.Errorf("Expected merged profile, got %v %v", p, ok)
	}
	if _, ok := c.ConservationProfile("Belsize"); !ok {
		t.Error("Expected default profile for Belsize")
	}
}
