package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/model"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": null,
      "properties": {
        "CA_NAME": "Fitzjohns Netherhall",
        "CA_REF": "CA023",
        "LOCAL_AUTHORITY": "LB Camden",
        "ARTICLE_4": "Y",
        "A4_RESTRICTIONS": "Front boundary walls, Replacement windows",
        "CA_URL": "https://example.org/fitzjohns"
      }
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {
        "name": "Elsworthy",
        "borough": "LB Camden",
        "has_article_4": true,
        "article_4_restrictions": ["Roof alterations"]
      }
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {
        "name": "Redington Frognal",
        "borough": "Camden",
        "description": "Victorian villas"
      }
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {
        "name": "Hackney Central",
        "borough": "Hackney"
      }
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"borough": "Camden"}
    }
  ]
}`

const sampleYAML = `
article4_areas:
  - name: Kensal Green
    borough: LB Brent
    restrictions:
      - Porches
  - name: Willesden
    borough: Brent
    restrictions: [Changes to the roof]
    nullifies: [B]
profiles:
  - name: Kensal Green
    borough: Brent
    appraisal_url: https://example.org/kensal
`

// LoaderSuite tests GeoJSON and YAML reference data loading.
type LoaderSuite struct {
	suite.Suite
	loader *Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.loader = NewLoader("Camden", "Barnet", "Westminster", "Haringey", "Brent", "Islington")
}

func (s *LoaderSuite) TestGeoJSON() {
	ds, err := s.loader.ParseGeoJSON(strings.NewReader(sampleGeoJSON))
	s.Require().NoError(err)

	s.Run("unnamed and out-of-area features skipped", func() {
		s.Equal(2, ds.Skipped)
		s.Len(ds.Profiles, 3)
	})

	s.Run("comma separated restrictions", func() {
		s.Require().Len(ds.Areas, 2)
		a := ds.Areas[0]
		s.Equal("Fitzjohns Netherhall", a.Name)
		s.Equal("Camden", a.Borough)
		s.Equal("CA023", a.Reference)
		s.Equal([]string{"Front boundary walls", "Replacement windows"}, a.Restrictions)
		s.Equal([]model.ClassID{model.ClassA, model.ClassP2A}, a.Nullifies)
	})

	s.Run("list restrictions", func() {
		a := ds.Areas[1]
		s.Equal([]string{"Roof alterations"}, a.Restrictions)
		s.Equal([]model.ClassID{model.ClassB, model.ClassC}, a.Nullifies)
	})

	s.Run("profiles carry descriptive fields", func() {
		s.Equal("https://example.org/fitzjohns", ds.Profiles[0].AppraisalURL)
		s.Equal("Victorian villas", ds.Profiles[2].Description)
	})
}

func (s *LoaderSuite) TestGeoJSONRejectsNonCollection() {
	_, err := s.loader.ParseGeoJSON(strings.NewReader(`{"type": "Feature"}`))
	s.ErrorIs(err, ErrUnsupportedFormat)

	_, err = s.loader.ParseGeoJSON(strings.NewReader(`{not json`))
	s.Error(err)
}

func (s *LoaderSuite) TestYAML() {
	ds, err := s.loader.ParseYAML(strings.NewReader(sampleYAML))
	s.Require().NoError(err)

	s.Require().Len(ds.Areas, 2)
	s.Equal("Brent", ds.Areas[0].Borough)
	s.Equal([]model.ClassID{model.ClassD}, ds.Areas[0].Nullifies)
	s.Equal([]model.ClassID{model.ClassB}, ds.Areas[1].Nullifies, "explicit nullifies are kept")
	s.Require().Len(ds.Profiles, 1)
	s.Equal("https://example.org/kensal", ds.Profiles[0].AppraisalURL)
}

func (s *LoaderSuite) TestLoadFile() {
	dir := s.T().TempDir()

	geo := filepath.Join(dir, "areas.geojson")
	s.Require().NoError(os.WriteFile(geo, []byte(sampleGeoJSON), 0644))
	ds, err := s.loader.LoadFile(geo)
	s.Require().NoError(err)
	s.Len(ds.Areas, 2)

	yml := filepath.Join(dir, "areas.yml")
	s.Require().NoError(os.WriteFile(yml, []byte(sampleYAML), 0644))
	ds, err = s.loader.LoadFile(yml)
	s.Require().NoError(err)
	s.Len(ds.Areas, 2)

	csv := filepath.Join(dir, "areas.csv")
	s.Require().NoError(os.WriteFile(csv, []byte("name\n"), 0644))
	_, err = s.loader.LoadFile(csv)
	s.ErrorIs(err, ErrUnsupportedFormat)

	_, err = s.loader.LoadFile(filepath.Join(dir, "missing.geojson"))
	s.Error(err)
}

func (s *LoaderSuite) TestMergesIntoCatalog() {
	ds, err := s.loader.ParseGeoJSON(strings.NewReader(sampleGeoJSON))
	s.Require().NoError(err)

	cat, err := catalog.New(ds.Options()...)
	s.Require().NoError(err)

	area, ok := cat.Article4AreaByName("Fitzjohns Netherhall Conservation Area")
	s.Require().True(ok)
	s.Equal("CA023", area.Reference)
	s.NotEqual(catalog.BaseVersion, cat.Version())

	_, ok = cat.ConservationProfile("redington frognal")
	s.True(ok)
}

func (s *LoaderSuite) TestNoBoroughFilterKeepsEverything() {
	ds, err := NewLoader().ParseGeoJSON(strings.NewReader(sampleGeoJSON))
	s.Require().NoError(err)
	s.Equal(1, ds.Skipped)
	s.Len(ds.Profiles, 4)
}

func (s *LoaderSuite) TestNullifiedClasses() {
	s.Equal(model.HouseholderClasses, NullifiedClasses(nil))
	s.Equal(model.HouseholderClasses, NullifiedClasses([]string{"All permitted development"}))
	s.Equal([]model.ClassID{model.ClassD, model.ClassE}, NullifiedClasses([]string{"Garden sheds", "Porches"}))
}

func (s *LoaderSuite) TestNormalizeBorough() {
	s.Equal("Westminster", NormalizeBorough("City of Westminster"))
	s.Equal("Camden", NormalizeBorough(" LB Camden "))
	s.Equal("Hackney", NormalizeBorough("Hackney"))
}
