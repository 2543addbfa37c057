package coordinator

import (
	"strings"
	"unicode"

	"github.com/advcomp/expertswarm/expert"
)

// Routing reasons reported on a Decision.
const (
	ReasonService  = "aws_service"
	ReasonKeywords = "domain_keywords"
	ReasonMemory   = "memory_context"
	ReasonDirect   = "direct"
)

// maxExperts caps how many experts a single consultation involves. Larger
// teams tend to stall mid-collaboration, so matches beyond the cap are
// dropped in priority order.
const maxExperts = 3

// priorityOrder breaks ties when more domains match than the cap allows.
var priorityOrder = []string{
	expert.KeyGenAI,
	expert.KeyIoT,
	expert.KeyHPC,
	expert.KeyQuantum,
	expert.KeyVisual,
	expert.KeySpatial,
	expert.KeyPartners,
}

// serviceRules maps named AWS/Amazon service mentions to expert domains.
// A hit makes consultation mandatory: service questions are never answered
// from model weights. Every matching rule contributes its domain, so
// "AWS IoT TwinMaker" pulls in both spatial and iot.
var serviceRules = []struct {
	term   string
	domain string
}{
	{"bedrock", expert.KeyGenAI},
	{"sagemaker", expert.KeyGenAI},
	{"aws pcs", expert.KeyHPC},
	{"parallelcluster", expert.KeyHPC},
	{"fsx for lustre", expert.KeyHPC},
	{"braket", expert.KeyQuantum},
	{"rekognition", expert.KeyVisual},
	{"deadline cloud", expert.KeyVisual},
	{"amazon location", expert.KeySpatial},
	{"twinmaker", expert.KeySpatial},
	{"sitewise", expert.KeyIoT},
	{"greengrass", expert.KeyIoT},
	{"kinesis video", expert.KeyIoT},
	{"aws iot", expert.KeyIoT},
	{"aws marketplace", expert.KeyPartners},
}

// domainKeywords drives the advisory second routing rule. Single-word
// entries match whole tokens only; entries with spaces or hyphens match as
// substrings of the lowercased query.
var domainKeywords = map[string][]string{
	expert.KeyGenAI: {
		"ai", "ml", "llm", "llms", "rag", "model", "models",
		"predict", "prediction", "predictive", "analytics",
		"intelligence", "learning", "generative", "machine learning",
		"multi-agent",
	},
	expert.KeyIoT: {
		"camera", "cameras", "sensor", "sensors", "robot", "robots",
		"edge", "iot", "device", "devices", "telemetry", "monitoring",
	},
	expert.KeyHPC: {
		"parallel", "cluster", "clusters", "hpc", "mpi",
		"supercomputing", "simulation", "simulations",
	},
	expert.KeyQuantum: {
		"quantum", "qubit", "qubits", "circuit", "circuits", "annealing",
	},
	expert.KeyVisual: {
		"visualization", "visualizations", "render", "rendering",
		"gpu", "graphics", "3d graphics",
	},
	expert.KeySpatial: {
		"spatial", "geospatial", "facility", "facilities",
		"layout", "layouts", "ar", "vr", "xr",
		"digital twin", "digital twins", "3d mapping",
	},
	expert.KeyPartners: {
		"partner", "partners", "partnership", "partnerships",
		"isv", "isvs", "marketplace",
	},
}

// Decision is the outcome of routing a single query.
type Decision struct {
	// Consult indicates the query goes to the expert swarm.
	Consult bool
	// Mandatory is set when a named service mention forced the consult.
	Mandatory bool
	// Experts holds the selected domain keys in priority order, capped.
	Experts []string
	// Reason names the rule that produced the decision.
	Reason string
}

// Router evaluates queries against a fixed ordered rule set so the same
// query always routes the same way. It holds no state and is safe for
// concurrent use.
type Router struct{}

// NewRouter returns a Router.
func NewRouter() *Router { return &Router{} }

// Route classifies a query. Rule order:
//  1. named service mention: mandatory consult with the mapped domains;
//  2. domain keyword match: consult, unless the loaded memory context
//     already covers every matched domain from a prior consultation;
//  3. otherwise answer directly.
func (r *Router) Route(query, memoryContext string) Decision {
	q := strings.ToLower(query)

	if domains := matchServices(q); len(domains) > 0 {
		return Decision{Consult: true, Mandatory: true, Experts: capByPriority(domains), Reason: ReasonService}
	}

	if domains := matchKeywords(q); len(domains) > 0 {
		capped := capByPriority(domains)
		if memoryCovers(memoryContext, capped) {
			return Decision{Reason: ReasonMemory}
		}
		return Decision{Consult: true, Experts: capped, Reason: ReasonKeywords}
	}

	return Decision{Reason: ReasonDirect}
}

func matchServices(q string) map[string]bool {
	var domains map[string]bool
	for _, rule := range serviceRules {
		if strings.Contains(q, rule.term) {
			if domains == nil {
				domains = make(map[string]bool)
			}
			domains[rule.domain] = true
		}
	}
	return domains
}

func matchKeywords(q string) map[string]bool {
	tokens := tokenSet(q)
	var domains map[string]bool
	for domain, keywords := range domainKeywords {
		for _, kw := range keywords {
			hit := false
			if strings.ContainsAny(kw, " -") {
				hit = strings.Contains(q, kw)
			} else {
				hit = tokens[kw]
			}
			if hit {
				if domains == nil {
					domains = make(map[string]bool)
				}
				domains[domain] = true
				break
			}
		}
	}
	return domains
}

// tokenSet splits on every non-alphanumeric rune so "AI-driven" yields both
// "ai" and "driven". Short keywords like "ar" only match whole tokens.
func tokenSet(q string) map[string]bool {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// capByPriority orders matched domains by the fixed priority list and drops
// everything past the cap.
func capByPriority(domains map[string]bool) []string {
	selected := make([]string, 0, maxExperts)
	for _, key := range priorityOrder {
		if !domains[key] {
			continue
		}
		selected = append(selected, key)
		if len(selected) == maxExperts {
			break
		}
	}
	return selected
}

// memoryCovers reports whether prior conversation context already answers
// for every matched domain: it must carry an expert learning line and
// mention each domain key. Anything less falls through to a fresh consult.
func memoryCovers(memoryContext string, domains []string) bool {
	if memoryContext == "" {
		return false
	}
	lower := strings.ToLower(memoryContext)
	if !strings.Contains(lower, "swarm_learning:") {
		return false
	}
	for _, d := range domains {
		if !strings.Contains(lower, d) {
			return false
		}
	}
	return true
}
