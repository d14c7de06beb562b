package domain

import "strings"

// Platform identifies the academic platform a paper was discovered on.
type Platform string

// Supported platforms.
const (
	PlatformArXiv         Platform = "ArXiv"
	PlatformIEEE          Platform = "IEEE Xplore"
	PlatformSpringer      Platform = "Springer"
	PlatformPubMed        Platform = "PubMed"
	PlatformScienceDirect Platform = "ScienceDirect"
	PlatformOther         Platform = "Other"
)

// Platforms lists every platform in display order.
var Platforms = []Platform{
	PlatformArXiv,
	PlatformIEEE,
	PlatformSpringer,
	PlatformPubMed,
	PlatformScienceDirect,
	PlatformOther,
}

// IsValid reports whether p is one of the known platforms.
func (p Platform) IsValid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// String returns the display name of the platform.
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform resolves a platform name case-insensitively. "IEEE" is accepted
// as an alias for IEEE Xplore.
func ParsePlatform(s string) (Platform, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "IEEE") {
		return PlatformIEEE, true
	}
	for _, known := range Platforms {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// ResearchDomain is a research field used to classify papers.
type ResearchDomain string

// Supported research domains.
const (
	DomainArtificialIntelligence ResearchDomain = "Artificial Intelligence"
	DomainMedicine               ResearchDomain = "Medicine"
	DomainPhysics                ResearchDomain = "Physics"
	DomainChemistry              ResearchDomain = "Chemistry"
	DomainBiology                ResearchDomain = "Biology"
	DomainComputerScience        ResearchDomain = "Computer Science"
	DomainMathematics            ResearchDomain = "Mathematics"
	DomainEngineering            ResearchDomain = "Engineering"
	DomainEconomics              ResearchDomain = "Economics"
	DomainPsychology             ResearchDomain = "Psychology"
	DomainSocialSciences         ResearchDomain = "Social Sciences"
	DomainEnvironmentalScience   ResearchDomain = "Environmental Science"
	DomainMaterialsScience       ResearchDomain = "Materials Science"
	DomainAstronomy              ResearchDomain = "Astronomy"
	DomainOther                  ResearchDomain = "Other"
)

// ResearchDomains lists every research domain in display order.
var ResearchDomains = []ResearchDomain{
	DomainArtificialIntelligence,
	DomainMedicine,
	DomainPhysics,
	DomainChemistry,
	DomainBiology,
	DomainComputerScience,
	DomainMathematics,
	DomainEngineering,
	DomainEconomics,
	DomainPsychology,
	DomainSocialSciences,
	DomainEnvironmentalScience,
	DomainMaterialsScience,
	DomainAstronomy,
	DomainOther,
}

// IsValid reports whether d is one of the known research domains.
func (d ResearchDomain) IsValid() bool {
	for _, known := range ResearchDomains {
		if d == known {
			return true
		}
	}
	return false
}

// String returns the display name of the domain.
func (d ResearchDomain) String() string {
	return string(d)
}

// ParseResearchDomain resolves a domain name case-insensitively.
// Unknown names yield DomainOther and false.
func ParseResearchDomain(s string) (ResearchDomain, bool) {
	s = strings.TrimSpace(s)
	for _, known := range ResearchDomains {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return DomainOther, false
}
