package springer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources/simulated"
)

// PlaceholderProfile describes the papers served without an API key.
func PlaceholderProfile() simulated.Profile {
	return simulated.Profile{
		Platform: domain.PlatformSpringer,
		Title: func(query string, _ domain.ResearchDomain, _ int) string {
			if query == "" {
				return "Advances in Research Methodology"
			}
			return query + ": Advances and Applications"
		},
		Abstract: func(query string, d domain.ResearchDomain) string {
			if query == "" {
				query = "important advances"
			}
			return fmt.Sprintf("This research paper published by Springer explores %s in the field of %s. "+
				"The study provides comprehensive analysis and presents new methodologies for future research directions.", query, d)
		},
		Authors:     []string{"Daniel Weber", "Susan Richards", "Takashi Yamamoto", "Elena Popov"},
		KeepAuthors: 2,
		Domains: []domain.ResearchDomain{
			domain.DomainArtificialIntelligence,
			domain.DomainComputerScience,
			domain.DomainMedicine,
			domain.DomainBiology,
			domain.DomainPhysics,
			domain.DomainChemistry,
			domain.DomainMathematics,
			domain.DomainEngineering,
			domain.DomainEconomics,
			domain.DomainPsychology,
			domain.DomainEnvironmentalScience,
			domain.DomainSocialSciences,
		},
		Journals: map[domain.ResearchDomain][]string{
			domain.DomainArtificialIntelligence: {"Journal of Artificial Intelligence Research", "AI and Ethics", "Cognitive Computation"},
			domain.DomainComputerScience:        {"Journal of Computer Science and Technology", "Scientific Computing", "Software Quality Journal"},
			domain.DomainMedicine:               {"BMC Medicine", "European Journal of Clinical Pharmacology", "Journal of Neurology"},
			domain.DomainPhysics:                {"European Physical Journal", "Applied Physics", "Quantum Information Processing"},
			domain.DomainBiology:                {"Journal of Molecular Evolution", "Plant Cell Reports", "Marine Biology"},
		},
		DefaultJournal: "Springer Journal",
		DOI: func(id int, _ time.Time) string {
			return "10.1007/s11432-" + strconv.Itoa(id)
		},
		URL: func(id int) string {
			return "https://link.springer.com/article/10.1007/s11432-" + strconv.Itoa(id)
		},
		PDFURL: func(id int) string {
			return "https://link.springer.com/content/pdf/10.1007/s11432-" + strconv.Itoa(id) + ".pdf"
		},
		MinPages:     10,
		PageSpread:   15,
		MaxViews:     3000,
		MaxCitations: 150,
		MaxAge:       365 * 24 * time.Hour,
	}
}
