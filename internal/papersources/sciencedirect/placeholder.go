package sciencedirect

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
		Platform: domain.PlatformScienceDirect,
		Title: func(query string, _ domain.ResearchDomain, _ int) string {
			if query == "" {
				return "Recent Developments in Scientific Research"
			}
			return query + ": A Comprehensive Review"
		},
		Abstract: func(query string, d domain.ResearchDomain) string {
			if query == "" {
				query = "recent advances"
			}
			return fmt.Sprintf("This ScienceDirect publication presents a comprehensive analysis of %s in the field of %s. "+
				"The research explores key methodologies, results, and implications for future studies.", query, d)
		},
		Authors:     []string{"Elizabeth Chen", "Mohammed Al-Farsi", "Julia Kowalski", "Benjamin Taylor"},
		KeepAuthors: 2,
		Domains: []domain.ResearchDomain{
			domain.DomainArtificialIntelligence,
			domain.DomainMedicine,
			domain.DomainPhysics,
			domain.DomainChemistry,
			domain.DomainBiology,
			domain.DomainEnvironmentalScience,
			domain.DomainMaterialsScience,
			domain.DomainEngineering,
			domain.DomainMathematics,
			domain.DomainPsychology,
			domain.DomainSocialSciences,
			domain.DomainComputerScience,
		},
		Journals: map[domain.ResearchDomain][]string{
			domain.DomainArtificialIntelligence: {"Artificial Intelligence", "Neural Networks", "Pattern Recognition"},
			domain.DomainMedicine:               {"The Lancet", "Journal of Advanced Research", "Biomedical Journal"},
			domain.DomainPhysics:                {"Physics Reports", "Nuclear Physics", "Astroparticle Physics"},
			domain.DomainChemistry:              {"Journal of Molecular Structure", "Chemical Physics", "Journal of Organometallic Chemistry"},
			domain.DomainBiology:                {"Cell", "Current Biology", "Journal of Theoretical Biology"},
			domain.DomainEnvironmentalScience:   {"Environmental Pollution", "Science of The Total Environment", "Ecological Indicators"},
		},
		DefaultJournal: "ScienceDirect Journal",
		DOI: func(id int, now time.Time) string {
			return fmt.Sprintf("10.1016/j.scidirect.%d.%d", now.Year(), id)
		},
		URL: func(id int) string {
			return "https://www.sciencedirect.com/science/article/abs/pii/S" + strconv.Itoa(id)
		},
		PDFURL: func(id int) string {
			return articleURLPrefix + "S" + strconv.Itoa(id) + "/pdfft"
		},
		MinPages:     12,
		PageSpread:   18,
		MaxViews:     4000,
		MaxCitations: 300,
		MaxAge:       365 * 24 * time.Hour,
	}
}
