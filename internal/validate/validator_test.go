package validate

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ppiankov/permitcheck/internal/model"
)

// CheckRequestSuite tests CheckRequest validation and normalization.
type CheckRequestSuite struct {
	suite.Suite
}

func TestCheckRequestSuite(t *testing.T) {
	suite.Run(t, new(CheckRequestSuite))
}

func (s *CheckRequestSuite) validRequest() *CheckRequest {
	return &CheckRequest{
		Property: PropertyInput{
			PropertyType:       "Semi-Detached",
			ListedGrade:        "none",
			InConservationArea: true,
			ConservationArea:   "  Belsize  ",
		},
		Proposal: ProposalInput{
			Description:       "  single storey rear extension ",
			ExtensionDepth:    model.Float(5),
			ExtensionLocation: "Rear",
		},
	}
}

func (s *CheckRequestSuite) fieldNames(err error) []string {
	var verr *Error
	s.Require().True(errors.As(err, &verr), "expected *validate.Error, got %T", err)
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Field
	}
	return names
}

func (s *CheckRequestSuite) TestValidation() {
	s.Run("valid request parses", func() {
		req := s.validRequest()
		s.Require().NoError(req.Validate())

		prop := req.PropertyContext()
		s.Equal(model.PropertySemiDetached, prop.Type)
		s.Equal(model.GradeNone, prop.ListedGrade)
		s.Equal("Belsize", prop.ConservationArea)

		proposal := req.ProposalRequest()
		s.Equal("single storey rear extension", proposal.Description)
		s.Equal(model.ElevationRear, proposal.ExtensionLocation)
		s.Require().NotNil(proposal.ExtensionDepth)
		s.Equal(5.0, *proposal.ExtensionDepth)
	})

	s.Run("nil request rejected", func() {
		var req *CheckRequest
		s.Error(req.Validate())
	})

	s.Run("unknown property type passes through", func() {
		req := s.validRequest()
		req.Property.PropertyType = "castle"
		s.Require().NoError(req.Validate())
		s.Equal(model.PropertyType("castle"), req.PropertyContext().Type)
	})

	s.Run("bad enums all reported", func() {
		req := s.validRequest()
		req.Property.ListedGrade = "Grade III"
		req.Proposal.Type = "swimming_pool"
		req.Proposal.DormerLocation = "underneath"

		err := req.Validate()
		s.Require().Error(err)
		s.Equal([]string{"property.listed_grade", "proposal.dormer_location", "proposal.type"}, s.fieldNames(err))
	})

	s.Run("use classes must come in pairs", func() {
		req := s.validRequest()
		req.Proposal.CurrentUse = "C3"
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "supplied together")
	})

	s.Run("use class pair parses", func() {
		req := s.validRequest()
		req.Proposal.CurrentUse = "c3"
		req.Proposal.ProposedUse = "C4"
		s.Require().NoError(req.Validate())
		s.True(req.ProposalRequest().HasChangeOfUse())
	})
}

func (s *CheckRequestSuite) TestMeasurements() {
	tests := []struct {
		name  string
		value float64
		msg   string
	}{
		{"negative", -1, "must not be negative"},
		{"not a number", math.NaN(), "finite"},
		{"infinite", math.Inf(1), "finite"},
		{"absurd", MaxMeasurement + 1, "at most"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.validRequest()
			req.Proposal.OutbuildingHeight = model.Float(tt.value)
			err := req.Validate()
			s.Require().Error(err)
			s.Contains(err.Error(), "proposal.outbuilding_height_m")
			s.Contains(err.Error(), tt.msg)
			s.Nil(req.ProposalRequest().OutbuildingHeight)
		})
	}

	s.Run("zero is a real measurement", func() {
		req := s.validRequest()
		req.Proposal.DistanceFromBoundary = model.Float(0)
		s.Require().NoError(req.Validate())
		s.Require().NotNil(req.ProposalRequest().DistanceFromBoundary)
	})

	s.Run("absent stays absent", func() {
		req := s.validRequest()
		s.Require().NoError(req.Validate())
		s.Nil(req.ProposalRequest().RoofVolume)
	})
}

func (s *CheckRequestSuite) TestNamedAreasImplyMembership() {
	req := &CheckRequest{
		Property: PropertyInput{PropertyType: "semi_detached", ConservationArea: "Belsize", Article4Area: "Hampstead"},
		Proposal: ProposalInput{Description: "loft conversion with rear dormer"},
	}
	s.Require().NoError(req.Validate())

	prop := req.PropertyContext()
	s.True(prop.InConservationArea)
	s.True(prop.HasArticle4)

	s.Run("blank names imply nothing", func() {
		req := &CheckRequest{Property: PropertyInput{PropertyType: "detached", ConservationArea: "   "}}
		s.Require().NoError(req.Validate())
		s.False(req.PropertyContext().InConservationArea)
		s.False(req.PropertyContext().HasArticle4)
	})
}

func (s *CheckRequestSuite) TestSizeLimits() {
	req := s.validRequest()
	req.Proposal.Description = strings.Repeat("a", MaxDescriptionLength+1)
	req.Property.Article4Area = strings.Repeat("b", MaxNameLength+1)

	err := req.Validate()
	s.Require().Error(err)
	s.Equal([]string{"property.article4_area", "proposal.description"}, s.fieldNames(err))
}

func (s *CheckRequestSuite) TestDecodesJSON() {
	body := `{
		"id": "plot-7",
		"property": {"property_type": "terraced", "has_article4": true, "article4_area": "Hampstead"},
		"proposal": {"description": "rear dormer", "dormer_location": "rear", "roof_volume_m3": 35}
	}`

	var req CheckRequest
	s.Require().NoError(json.Unmarshal([]byte(body), &req))
	s.Require().NoError(req.Validate())

	s.Equal("plot-7", req.ID)
	s.Equal(model.PropertyTerraced, req.PropertyContext().Type)
	s.Equal("Hampstead", req.PropertyContext().Article4Area)
	s.Equal(35.0, *req.ProposalRequest().RoofVolume)
}
