package normalize

import "github.com/helixir/paper-discovery-service/internal/domain"

const genericContext = "This research adds to the existing body of knowledge in its field and points to open questions for further investigation."

var domainContexts = map[domain.ResearchDomain]string{
	domain.DomainArtificialIntelligence: "Artificial Intelligence is advancing quickly, driven by progress in machine learning, deep neural networks and their deployment across many industries.",
	domain.DomainMedicine:               "Medical research underpins better healthcare outcomes, new treatments and a deeper understanding of human health and disease.",
	domain.DomainPhysics:                "Physics studies the fundamental laws of nature, from quantum mechanics to cosmology, and supplies the foundations for new technology.",
	domain.DomainChemistry:              "Chemistry produces the materials, drugs and processes used to tackle problems in sustainability, healthcare and industry.",
	domain.DomainBiology:                "Biology examines living systems from molecular interactions up to whole ecosystems, informing medicine, agriculture and conservation.",
	domain.DomainComputerScience:        "Computer Science moves technology forward through new algorithms, data structures and system architectures that run modern digital infrastructure.",
	domain.DomainMathematics:            "Mathematics supplies the language and tools used to describe and analyze complex systems in every scientific and engineering discipline.",
	domain.DomainEngineering:            "Engineering turns scientific principles into working technologies and systems that address practical needs.",
	domain.DomainEconomics:              "Economics studies how goods and services are produced, distributed and consumed, informing policy makers, businesses and individuals.",
	domain.DomainPsychology:             "Psychology investigates behavior, cognition and emotion, shaping our understanding of mental health and decision-making.",
	domain.DomainSocialSciences:         "The social sciences examine societies, relationships and institutions, shedding light on social challenges and opportunities.",
	domain.DomainEnvironmentalScience:   "Environmental science studies how human activity interacts with natural systems, guiding work on climate change, pollution and resource management.",
	domain.DomainMaterialsScience:       "Materials science develops substances with new properties that enable advances in electronics, construction, medicine and energy.",
	domain.DomainAstronomy:              "Astronomy explores celestial objects and phenomena, widening our understanding of the universe.",
}

// DomainContext returns a descriptive paragraph about d, or a generic paragraph
// for domains without one.
func DomainContext(d domain.ResearchDomain) string {
	if c, ok := domainContexts[d]; ok {
		return c
	}
	return genericContext
}
