// Package normalize maps heterogeneous upstream metadata onto the canonical paper
// fields: research domain classification, author names, page counts, dates and text.
//
// Every function in this package is pure and total: unparseable input yields a
// documented default instead of an error.
package normalize

import (
	"sort"
	"strings"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// CategorySystem identifies whose taxonomy a raw category string comes from.
type CategorySystem string

// Supported category systems.
const (
	SystemArXiv         CategorySystem = "arxiv"
	SystemCrossRef      CategorySystem = "crossref"
	SystemPubMed        CategorySystem = "pubmed"
	SystemSpringer      CategorySystem = "springer"
	SystemIEEE          CategorySystem = "ieee"
	SystemScienceDirect CategorySystem = "sciencedirect"
)

type keywordRule struct {
	keyword string
	domain  domain.ResearchDomain
}

// arxivCategories maps arXiv category codes (or code prefixes) to domains.
var arxivCategories = map[string]domain.ResearchDomain{
	"cs.AI":    domain.DomainArtificialIntelligence,
	"cs.CL":    domain.DomainArtificialIntelligence,
	"cs.CV":    domain.DomainArtificialIntelligence,
	"cs.LG":    domain.DomainArtificialIntelligence,
	"cs.NE":    domain.DomainArtificialIntelligence,
	"cs":       domain.DomainComputerScience,
	"physics":  domain.DomainPhysics,
	"math":     domain.DomainMathematics,
	"q-bio":    domain.DomainBiology,
	"stat":     domain.DomainMathematics,
	"econ":     domain.DomainEconomics,
	"q-fin":    domain.DomainEconomics,
	"astro-ph": domain.DomainAstronomy,
	"cond-mat": domain.DomainPhysics,
	"eess":     domain.DomainEngineering,
	"quant-ph": domain.DomainPhysics,
	"hep":      domain.DomainPhysics,
	"gr-qc":    domain.DomainPhysics,
	"nucl":     domain.DomainPhysics,
	"nlin":     domain.DomainPhysics,
}

// arxivPrefixes holds the keys of arxivCategories sorted longest first so that
// "cs.AI.x" resolves to cs.AI before cs.
var arxivPrefixes = sortedByLength(arxivCategories)

// crossRefRules classifies CrossRef subject strings by keyword containment.
// Order matters: the first matching keyword wins.
var crossRefRules = []keywordRule{
	{"artificial intelligence", domain.DomainArtificialIntelligence},
	{"machine learning", domain.DomainArtificialIntelligence},
	{"deep learning", domain.DomainArtificialIntelligence},
	{"neural network", domain.DomainArtificialIntelligence},
	{"computer science", domain.DomainComputerScience},
	{"data science", domain.DomainComputerScience},
	{"software", domain.DomainComputerScience},
	{"medicine", domain.DomainMedicine},
	{"medical", domain.DomainMedicine},
	{"clinical", domain.DomainMedicine},
	{"healthcare", domain.DomainMedicine},
	{"nursing", domain.DomainMedicine},
	{"pharmacy", domain.DomainMedicine},
	{"astrophysics", domain.DomainAstronomy},
	{"astronomy", domain.DomainAstronomy},
	{"cosmology", domain.DomainAstronomy},
	{"biochemistry", domain.DomainChemistry},
	{"physics", domain.DomainPhysics},
	{"quantum", domain.DomainPhysics},
	{"mechanics", domain.DomainPhysics},
	{"chemistry", domain.DomainChemistry},
	{"chemical", domain.DomainChemistry},
	{"molecular", domain.DomainChemistry},
	{"microbiology", domain.DomainBiology},
	{"genetics", domain.DomainBiology},
	{"biology", domain.DomainBiology},
	{"ecology", domain.DomainBiology},
	{"mathematics", domain.DomainMathematics},
	{"statistics", domain.DomainMathematics},
	{"algebra", domain.DomainMathematics},
	{"geometry", domain.DomainMathematics},
	{"civil engineering", domain.DomainEngineering},
	{"engineering", domain.DomainEngineering},
	{"mechanical", domain.DomainEngineering},
	{"electrical", domain.DomainEngineering},
	{"psychology", domain.DomainPsychology},
	{"cognitive", domain.DomainPsychology},
	{"behavioral", domain.DomainPsychology},
	{"economics", domain.DomainEconomics},
	{"finance", domain.DomainEconomics},
	{"business", domain.DomainEconomics},
	{"sociology", domain.DomainSocialSciences},
	{"anthropology", domain.DomainSocialSciences},
	{"political science", domain.DomainSocialSciences},
	{"social sciences", domain.DomainSocialSciences},
	{"environmental", domain.DomainEnvironmentalScience},
	{"sustainability", domain.DomainEnvironmentalScience},
	{"climate", domain.DomainEnvironmentalScience},
	{"materials", domain.DomainMaterialsScience},
	{"metallurgy", domain.DomainMaterialsScience},
	{"polymer", domain.DomainMaterialsScience},
}

// pubMedRules classifies MeSH terms, keywords and journal names.
var pubMedRules = []keywordRule{
	{"medicine", domain.DomainMedicine},
	{"clinical", domain.DomainMedicine},
	{"patient", domain.DomainMedicine},
	{"treatment", domain.DomainMedicine},
	{"therapy", domain.DomainMedicine},
	{"health", domain.DomainMedicine},
	{"medical", domain.DomainMedicine},
	{"disease", domain.DomainMedicine},
	{"drug", domain.DomainMedicine},
	{"hospital", domain.DomainMedicine},
	{"physician", domain.DomainMedicine},
	{"biology", domain.DomainBiology},
	{"cell", domain.DomainBiology},
	{"molecular", domain.DomainBiology},
	{"gene", domain.DomainBiology},
	{"protein", domain.DomainBiology},
	{"organism", domain.DomainBiology},
	{"tissue", domain.DomainBiology},
	{"genomic", domain.DomainBiology},
	{"biological", domain.DomainBiology},
	{"chemistry", domain.DomainChemistry},
	{"chemical", domain.DomainChemistry},
	{"molecule", domain.DomainChemistry},
	{"compound", domain.DomainChemistry},
	{"synthesis", domain.DomainChemistry},
	{"reaction", domain.DomainChemistry},
	{"polymer", domain.DomainChemistry},
	{"pharmaceutical", domain.DomainChemistry},
	{"psychology", domain.DomainPsychology},
	{"behavior", domain.DomainPsychology},
	{"cognitive", domain.DomainPsychology},
	{"mental", domain.DomainPsychology},
	{"brain", domain.DomainPsychology},
	{"neurological", domain.DomainPsychology},
	{"psychiatric", domain.DomainPsychology},
	{"artificial intelligence", domain.DomainArtificialIntelligence},
	{"machine learning", domain.DomainArtificialIntelligence},
	{"deep learning", domain.DomainArtificialIntelligence},
	{"neural network", domain.DomainArtificialIntelligence},
	{"algorithm", domain.DomainArtificialIntelligence},
	{"computational", domain.DomainArtificialIntelligence},
	{"data science", domain.DomainArtificialIntelligence},
}

// springerRules classifies Springer subject names.
var springerRules = []keywordRule{
	{"artificial intelligence", domain.DomainArtificialIntelligence},
	{"machine learning", domain.DomainArtificialIntelligence},
	{"computer science", domain.DomainComputerScience},
	{"medicine", domain.DomainMedicine},
	{"public health", domain.DomainMedicine},
	{"life sciences", domain.DomainBiology},
	{"biomedicine", domain.DomainBiology},
	{"astronomy", domain.DomainAstronomy},
	{"physics", domain.DomainPhysics},
	{"chemistry", domain.DomainChemistry},
	{"mathematics", domain.DomainMathematics},
	{"statistics", domain.DomainMathematics},
	{"engineering", domain.DomainEngineering},
	{"economics", domain.DomainEconomics},
	{"finance", domain.DomainEconomics},
	{"psychology", domain.DomainPsychology},
	{"materials", domain.DomainMaterialsScience},
	{"environment", domain.DomainEnvironmentalScience},
	{"earth sciences", domain.DomainEnvironmentalScience},
	{"social sciences", domain.DomainSocialSciences},
}

// ieeeRules classifies IEEE index terms and publication titles.
var ieeeRules = []keywordRule{
	{"artificial intelligence", domain.DomainArtificialIntelligence},
	{"machine learning", domain.DomainArtificialIntelligence},
	{"deep learning", domain.DomainArtificialIntelligence},
	{"neural network", domain.DomainArtificialIntelligence},
	{"computer vision", domain.DomainArtificialIntelligence},
	{"natural language", domain.DomainArtificialIntelligence},
	{"biomedical", domain.DomainMedicine},
	{"medical", domain.DomainMedicine},
	{"quantum", domain.DomainPhysics},
	{"physics", domain.DomainPhysics},
	{"software", domain.DomainComputerScience},
	{"computer", domain.DomainComputerScience},
	{"computing", domain.DomainComputerScience},
	{"information theory", domain.DomainComputerScience},
	{"network", domain.DomainComputerScience},
	{"power", domain.DomainEngineering},
	{"circuit", domain.DomainEngineering},
	{"signal", domain.DomainEngineering},
	{"control", domain.DomainEngineering},
	{"engineering", domain.DomainEngineering},
	{"materials", domain.DomainMaterialsScience},
}

// scienceDirectRules classifies Elsevier publication names.
var scienceDirectRules = []keywordRule{
	{"artificial intelligence", domain.DomainArtificialIntelligence},
	{"neural network", domain.DomainArtificialIntelligence},
	{"pattern recognition", domain.DomainArtificialIntelligence},
	{"lancet", domain.DomainMedicine},
	{"medic", domain.DomainMedicine},
	{"clinical", domain.DomainMedicine},
	{"biomedical", domain.DomainMedicine},
	{"cell", domain.DomainBiology},
	{"biology", domain.DomainBiology},
	{"chemi", domain.DomainChemistry},
	{"molecular", domain.DomainChemistry},
	{"astroparticle", domain.DomainPhysics},
	{"physics", domain.DomainPhysics},
	{"environment", domain.DomainEnvironmentalScience},
	{"ecolog", domain.DomainEnvironmentalScience},
	{"pollution", domain.DomainEnvironmentalScience},
	{"materials", domain.DomainMaterialsScience},
	{"mathemat", domain.DomainMathematics},
	{"engineering", domain.DomainEngineering},
	{"computer", domain.DomainComputerScience},
	{"psycholog", domain.DomainPsychology},
	{"social", domain.DomainSocialSciences},
	{"econom", domain.DomainEconomics},
}

// MapCategoryToDomain classifies a raw category from the given system.
// arXiv codes match exactly, then by longest prefix; other systems match by
// case-insensitive keyword containment. Unmatched input yields DomainOther.
func MapCategoryToDomain(system CategorySystem, raw string) domain.ResearchDomain {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DomainOther
	}

	if system == SystemArXiv {
		return mapArXivCategory(raw)
	}

	rules := rulesFor(system)
	lower := strings.ToLower(raw)
	for _, rule := range rules {
		if strings.Contains(lower, rule.keyword) {
			return rule.domain
		}
	}
	return domain.DomainOther
}

// ClassifyTerms returns the domain of the first term that classifies to anything
// other than DomainOther, or fallback when none does.
func ClassifyTerms(system CategorySystem, terms []string, fallback domain.ResearchDomain) domain.ResearchDomain {
	for _, term := range terms {
		if d := MapCategoryToDomain(system, term); d != domain.DomainOther {
			return d
		}
	}
	return fallback
}

func mapArXivCategory(code string) domain.ResearchDomain {
	if d, ok := arxivCategories[code]; ok {
		return d
	}
	for _, prefix := range arxivPrefixes {
		if strings.HasPrefix(code, prefix) {
			return arxivCategories[prefix]
		}
	}
	return domain.DomainOther
}

func rulesFor(system CategorySystem) []keywordRule {
	switch system {
	case SystemCrossRef:
		return crossRefRules
	case SystemPubMed:
		return pubMedRules
	case SystemSpringer:
		return springerRules
	case SystemIEEE:
		return ieeeRules
	case SystemScienceDirect:
		return scienceDirectRules
	default:
		return nil
	}
}

func sortedByLength(m map[string]domain.ResearchDomain) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// domainToArXiv maps domains to the arXiv categories searched for them.
var domainToArXiv = map[domain.ResearchDomain][]string{
	domain.DomainArtificialIntelligence: {"cs.AI"},
	domain.DomainComputerScience:        {"cs"},
	domain.DomainPhysics:                {"physics"},
	domain.DomainMathematics:            {"math"},
	domain.DomainBiology:                {"q-bio"},
	domain.DomainEngineering:            {"cs.SE", "eess"},
	domain.DomainEconomics:              {"econ"},
	domain.DomainMedicine:               {"q-bio.TO"},
	domain.DomainPsychology:             {"q-bio.NC"},
	domain.DomainChemistry:              {"physics.chem-ph"},
	domain.DomainSocialSciences:         {"econ", "q-bio.PE"},
	domain.DomainEnvironmentalScience:   {"physics.ao-ph"},
	domain.DomainMaterialsScience:       {"cond-mat.mtrl-sci"},
	domain.DomainAstronomy:              {"astro-ph"},
}

// DomainToArXivCategories returns the arXiv categories to search for d.
func DomainToArXivCategories(d domain.ResearchDomain) ([]string, bool) {
	c, ok := domainToArXiv[d]
	return c, ok
}

// domainToMeSH maps domains to PubMed MeSH query terms.
var domainToMeSH = map[domain.ResearchDomain]string{
	domain.DomainMedicine:               "Medicine[MeSH]",
	domain.DomainBiology:                "Biology[MeSH]",
	domain.DomainChemistry:              "Chemistry[MeSH]",
	domain.DomainPhysics:                "Physics[MeSH]",
	domain.DomainArtificialIntelligence: "Artificial Intelligence[MeSH]",
	domain.DomainPsychology:             "Psychology[MeSH]",
	domain.DomainEnvironmentalScience:   "Environment[MeSH]",
}

// DomainToMeSH returns the MeSH query term for d.
func DomainToMeSH(d domain.ResearchDomain) (string, bool) {
	t, ok := domainToMeSH[d]
	return t, ok
}

// domainToSpringer maps domains to Springer subject names.
var domainToSpringer = map[domain.ResearchDomain]string{
	domain.DomainArtificialIntelligence: "Computer Science",
	domain.DomainComputerScience:        "Computer Science",
	domain.DomainMedicine:               "Medicine & Public Health",
	domain.DomainBiology:                "Life Sciences",
	domain.DomainPhysics:                "Physics",
	domain.DomainChemistry:              "Chemistry",
	domain.DomainMathematics:            "Mathematics",
	domain.DomainEngineering:            "Engineering",
	domain.DomainEconomics:              "Economics",
	domain.DomainPsychology:             "Psychology",
	domain.DomainEnvironmentalScience:   "Environment",
	domain.DomainSocialSciences:         "Social Sciences",
	domain.DomainMaterialsScience:       "Materials Science",
	domain.DomainAstronomy:              "Astronomy",
}

// DomainToSpringerSubject returns the Springer subject to search for d.
func DomainToSpringerSubject(d domain.ResearchDomain) (string, bool) {
	s, ok := domainToSpringer[d]
	return s, ok
}
