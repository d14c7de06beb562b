package ieee

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
		Platform: domain.PlatformIEEE,
		Title: func(query string, d domain.ResearchDomain, id int) string {
			title := "IEEE Research on Advanced Technologies"
			if query != "" {
				title = "IEEE Research on " + query
			}
			if d != "" {
				title += " in " + string(d)
			}
			return fmt.Sprintf("%s #%d", title, id)
		},
		Abstract: func(query string, d domain.ResearchDomain) string {
			topic := "advanced technologies"
			if query != "" {
				topic = "advanced technologies related to " + query
			}
			return fmt.Sprintf("This IEEE paper explores %s with applications in %s. "+
				"The research presents novel approaches to solving complex problems in the field.", topic, d)
		},
		Authors:     []string{"Jane Smith", "Robert Johnson", "Maria Garcia"},
		KeepAuthors: 1,
		Domains: []domain.ResearchDomain{
			domain.DomainArtificialIntelligence,
			domain.DomainComputerScience,
			domain.DomainEngineering,
			domain.DomainMedicine,
			domain.DomainPhysics,
		},
		DefaultJournal: "IEEE Transactions on Information Theory",
		DOI: func(id int, _ time.Time) string {
			return "10.1109/IEEECONF.2023." + strconv.Itoa(id)
		},
		URL: func(id int) string {
			return documentURLPrefix + strconv.Itoa(id)
		},
		PDFURL: func(id int) string {
			return "https://ieeexplore.ieee.org/stamp/stamp.jsp?tp=&arnumber=" + strconv.Itoa(id)
		},
		MinPages:     8,
		PageSpread:   20,
		MaxViews:     5000,
		MaxCitations: 200,
		MaxAge:       180 * 24 * time.Hour,
	}
}
