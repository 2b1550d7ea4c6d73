package catalog

import "github.com/ppiankov/permitcheck/internal/model"

func defaultListedPolicies() []model.ListedPolicy {
	return []model.ListedPolicy{
		{
			Grade:     model.GradeI,
			PDAllowed: false,
			RequiredConsents: []string{
				"Listed building consent",
				"Planning permission",
			},
			Notes: []string{
				"Grade I: buildings of exceptional interest",
				"Historic England is consulted on applications",
			},
		},
		{
			Grade:     model.GradeIIStar,
			PDAllowed: false,
			RequiredConsents: []string{
				"Listed building consent",
				"Planning permission",
			},
			Notes: []string{
				"Grade II*: particularly important buildings of more than special interest",
				"Historic England is consulted on applications",
			},
		},
		{
			Grade:     model.GradeII,
			PDAllowed: false,
			RequiredConsents: []string{
				"Listed building consent",
				"Planning permission",
			},
			Notes: []string{
				"Grade II: buildings of special interest",
				"Consent covers internal works that affect the building's character",
			},
		},
	}
}

func defaultConservationPolicies() (without, with model.ConservationPolicy) {
	without = model.ConservationPolicy{
		Restrictions: []string{
			"Side extensions are not permitted development",
			"Roof additions are not permitted development",
			"Cladding of any part of the exterior is not permitted development",
			"Demolition of unlisted buildings needs planning permission",
			"Works to trees need six weeks' notice to the council",
		},
	}
	with = model.ConservationPolicy{
		WithArticle4: true,
		Restrictions: append(append([]string{}, without.Restrictions...),
			"An Article 4 direction withdraws householder permitted development rights",
		),
		Nullifies: model.HouseholderClasses,
	}
	return without, with
}

func defaultArticle4Areas() []model.Article4Area {
	return []model.Article4Area{
		{
			Name:      "Hampstead",
			Borough:   "Camden",
			Reference: "CA001",
			Restrictions: []string{
				"Front boundary walls",
				"Roof materials",
				"Windows",
			},
			Nullifies: []model.ClassID{model.ClassA, model.ClassB, model.ClassC, model.ClassP2A},
		},
		{
			Name:      "Highgate",
			Borough:   "Camden",
			Reference: "CA002",
			Restrictions: []string{
				"Alterations to front elevations",
				"Roof alterations",
				"Front boundary treatments",
			},
			Nullifies: []model.ClassID{model.ClassA, model.ClassB, model.ClassC, model.ClassP2A},
		},
		{
			Name:      "Hampstead Garden Suburb",
			Borough:   "Barnet",
			Reference: "HGS",
			Restrictions: []string{
				"All householder extensions",
				"Roof alterations and rooflights",
				"Porches",
				"Outbuildings",
				"Gates, fences and walls",
			},
			Nullifies: model.HouseholderClasses,
		},
		{
			Name:      "Mapesbury",
			Borough:   "Brent",
			Reference: "BR-MAP",
			Restrictions: []string{
				"Front porches",
				"Roof alterations",
				"Front boundary walls",
			},
			Nullifies: []model.ClassID{model.ClassB, model.ClassC, model.ClassD, model.ClassP2A},
		},
		{
			Name:      "Queen's Park",
			Borough:   "Brent",
			Reference: "BR-QP",
			Restrictions: []string{
				"Windows and doors",
				"Roof materials",
				"Front boundary walls",
			},
			Nullifies: []model.ClassID{model.ClassA, model.ClassC, model.ClassP2A},
		},
		{
			Name:      "St John's Wood",
			Borough:   "Westminster",
			Reference: "WCC-SJW",
			Restrictions: []string{
				"Rear extensions",
				"Roof extensions",
				"Boundary walls",
			},
			Nullifies: []model.ClassID{model.ClassA, model.ClassB, model.ClassP2A},
		},
		{
			Name:      "Barnsbury",
			Borough:   "Islington",
			Reference: "ISL-BAR",
			Restrictions: []string{
				"Roof alterations",
				"Windows and doors",
				"Front gardens and boundaries",
			},
			Nullifies: []model.ClassID{model.ClassA, model.ClassB, model.ClassC, model.ClassP2A},
		},
		{
			Name:      "Muswell Hill",
			Borough:   "Haringey",
			Reference: "HGY-MH",
			Restrictions: []string{
				"Front extensions and porches",
				"Roof alterations",
				"Front boundary treatments",
			},
			Nullifies: []model.ClassID{model.ClassA, model.ClassB, model.ClassC, model.ClassD, model.ClassP2A},
		},
	}
}

func defaultProfiles() []model.AreaProfile {
	return []model.AreaProfile{
		{Name: "Hampstead", Reference: "CA001", Borough: "Camden",
			Description: "Historic Hampstead village and its Georgian and Victorian streets around the Heath"},
		{Name: "Highgate", Reference: "CA002", Borough: "Camden",
			Description: "Hilltop village with an intact eighteenth-century core"},
		{Name: "Hampstead Garden Suburb", Borough: "Barnet",
			Description: "Arts and Crafts garden suburb founded in 1907, managed by the HGS Trust"},
		{Name: "Mapesbury", Borough: "Brent",
			Description: "Late Victorian and Edwardian detached and semi-detached villas"},
		{Name: "Queen's Park", Borough: "Brent",
			Description: "Terraced streets laid out in the 1890s around the park"},
		{Name: "St John's Wood", Borough: "Westminster",
			Description: "Early nineteenth-century villas and stucco terraces"},
		{Name: "Barnsbury", Borough: "Islington",
			Description: "Georgian squares and terraces on the former Barnsbury estate"},
		{Name: "Muswell Hill", Borough: "Haringey",
			Description: "Edwardian suburb with a consistent roofscape and parades"},
		{Name: "Belsize", Borough: "Camden",
			Description: "Mid-Victorian Italianate villas and mansion blocks"},
		{Name: "Primrose Hill", Borough: "Camden",
			Description: "Victorian terraces around the hill"},
	}
}
