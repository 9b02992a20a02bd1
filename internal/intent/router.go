package intent

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Router scores free text against immutable phrase tables. It holds no
// mutable state after construction, so one Router serves unbounded
// concurrent Parse calls without locking.
type Router struct {
	minConfidence float64
	priority      []Service
	opOrder       []Operation
	services      ServiceLexicon
	operations    OperationLexicon
	canonical     map[Service]map[string]bool
	weights       WeightRules
}

// NewRouter builds a Router from cfg, filling zero-valued fields from
// DefaultConfig. All tables are deep-copied, so later mutation of cfg by the
// caller never affects parsing.
func NewRouter(cfg Config) *Router {
	def := DefaultConfig()
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if len(cfg.Priority) == 0 {
		cfg.Priority = def.Priority
	}
	if len(cfg.Services) == 0 {
		cfg.Services = def.Services
	}
	if len(cfg.Operations) == 0 {
		cfg.Operations = def.Operations
	}
	if cfg.Weights == (WeightRules{}) {
		cfg.Weights = def.Weights
	}

	r := &Router{
		minConfidence: cfg.MinConfidence,
		priority:      clonePriority(cfg.Priority),
		services:      cloneServiceLexicon(cfg.Services),
		operations:    cloneOperationLexicon(cfg.Operations),
		canonical:     make(map[Service]map[string]bool, len(defaultCanonicalNames)),
		weights:       cfg.Weights,
	}

	for svc, names := range defaultCanonicalNames {
		if _, known := r.services[svc]; !known {
			continue
		}
		pinned := make(map[string]bool, len(names))
		for _, name := range names {
			pinned[name] = true
			if !containsString(r.services[svc], name) {
				r.services[svc] = append(r.services[svc], name)
			}
		}
		r.canonical[svc] = pinned
	}

	// Services present in the lexicon but missing from the priority list
	// still need a deterministic scoring position.
	seen := make(map[Service]bool, len(r.priority))
	for _, svc := range r.priority {
		seen[svc] = true
	}
	var extra []Service
	for svc := range r.services {
		if !seen[svc] {
			extra = append(extra, svc)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	r.priority = append(r.priority, extra...)

	r.opOrder = make([]Operation, 0, len(r.operations))
	for _, op := range operationOrder {
		if _, ok := r.operations[op]; ok {
			r.opOrder = append(r.opOrder, op)
		}
	}
	var extraOps []Operation
	for op := range r.operations {
		if !containsOperation(r.opOrder, op) {
			extraOps = append(extraOps, op)
		}
	}
	sort.Slice(extraOps, func(i, j int) bool { return extraOps[i] < extraOps[j] })
	r.opOrder = append(r.opOrder, extraOps...)

	return r
}

// Parse converts text into an Intent. It never fails: unmatched input
// degrades to ServiceUnknown with low confidence, leaving the clarification
// decision to the caller. Identical input always yields an identical Intent.
func (r *Router) Parse(text string) Intent {
	normalized := normalize(text)
	padded := " " + normalized + " "

	out := Intent{
		Service:   ServiceUnknown,
		Operation: OpUnknown,
		RawText:   text,
	}

	bestService := ServiceUnknown
	bestServiceScore := 0.0
	serviceMatches := make(map[Service][]Match)
	for _, svc := range r.priority {
		score := 0.0
		for _, phrase := range r.services[svc] {
			if !containsPhrase(padded, phrase) {
				continue
			}
			w := r.serviceWeight(svc, phrase)
			score += w
			serviceMatches[svc] = append(serviceMatches[svc], Match{
				Kind:   MatchService,
				Name:   string(svc),
				Phrase: phrase,
				Weight: w,
			})
		}
		if score > bestServiceScore {
			bestServiceScore = score
			bestService = svc
		}
	}

	bestOp := OpUnknown
	bestOpScore := 0.0
	opMatches := make(map[Operation][]Match)
	for _, op := range r.opOrder {
		score := 0.0
		for _, phrase := range r.operations[op] {
			if !containsPhrase(padded, phrase) {
				continue
			}
			w := r.operationWeight(phrase)
			score += w
			opMatches[op] = append(opMatches[op], Match{
				Kind:   MatchOperation,
				Name:   string(op),
				Phrase: phrase,
				Weight: w,
			})
		}
		if score > bestOpScore {
			bestOpScore = score
			bestOp = op
		}
	}

	for _, svc := range r.priority {
		out.Matches = append(out.Matches, serviceMatches[svc]...)
	}
	for _, op := range r.opOrder {
		out.Matches = append(out.Matches, opMatches[op]...)
	}

	serviceStrength := strength(bestServiceScore, r.weights.Smoothing)
	operationStrength := strength(bestOpScore, r.weights.Smoothing)
	if bestServiceScore > 0 {
		out.Service = bestService
	}
	switch {
	case bestOpScore > 0:
		out.Operation = bestOp
	case out.Service != ServiceUnknown:
		// A matched service with no verb still means the user wants
		// something found.
		out.Operation = OpSearch
		operationStrength = 0.5
	}

	out.Confidence = r.weights.ServiceShare*serviceStrength +
		(1-r.weights.ServiceShare)*operationStrength
	if out.Confidence > 1 {
		out.Confidence = 1
	}

	consumed := make(map[string]struct{})
	for _, m := range out.Matches {
		for _, word := range strings.Fields(m.Phrase) {
			consumed[word] = struct{}{}
		}
	}
	out.Context = extractContext(text, normalized, consumed)

	if out.Confidence < r.minConfidence {
		out.Service = ServiceUnknown
	}
	return out
}

// MinConfidence reports the threshold below which parsed intents are forced
// to ServiceUnknown.
func (r *Router) MinConfidence() float64 {
	return r.minConfidence
}

func (r *Router) serviceWeight(svc Service, phrase string) float64 {
	if r.canonical[svc][phrase] {
		return r.weights.CanonicalPin
	}
	return r.operationWeight(phrase)
}

func (r *Router) operationWeight(phrase string) float64 {
	words := strings.Count(phrase, " ") + 1
	return r.weights.PhraseBase + r.weights.WordBonus*float64(words-1)
}

func strength(score, smoothing float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + smoothing)
}

// normalize lower-cases text and replaces punctuation with spaces so phrase
// matching works on whole words only.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsOperation(list []Operation, op Operation) bool {
	for _, v := range list {
		if v == op {
			return true
		}
	}
	return false
}

// Explain renders an Intent for humans: the chosen service and operation,
// the percent confidence, every matched phrase with its weight, and the
// extracted context fields.
func Explain(in Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Service: %s (%d%% confident)\n", in.Service, int(in.Confidence*100+0.5))
	fmt.Fprintf(&b, "Operation: %s\n", in.Operation)
	if len(in.Matches) > 0 {
		b.WriteString("Matched:\n")
		for _, m := range in.Matches {
			fmt.Fprintf(&b, "  - %s %s: %q (weight %.1f)\n", m.Kind, m.Name, m.Phrase, m.Weight)
		}
	}
	if pairs := contextPairs(in.Context); len(pairs) > 0 {
		b.WriteString("Context:\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "  - %s: %s\n", p.key, p.value)
		}
	}
	if in.Service == ServiceUnknown {
		b.WriteString("No service matched confidently; try naming the product or the media type.\n")
	}
	return b.String()
}

type contextPair struct {
	key   string
	value string
}

func contextPairs(c Context) []contextPair {
	var pairs []contextPair
	add := func(key, value string) {
		if value != "" {
			pairs = append(pairs, contextPair{key, value})
		}
	}
	add("title", c.Title)
	if c.Year > 0 {
		add("year", fmt.Sprintf("%d", c.Year))
	}
	add("quality", c.Quality)
	if c.Season > 0 {
		add("season", fmt.Sprintf("%d", c.Season))
	}
	if c.Episode > 0 {
		add("episode", fmt.Sprintf("%d", c.Episode))
	}
	add("language", c.Language)
	if !c.Monitored {
		add("monitored", "false")
	}
	if !c.SearchOnAdd {
		add("search_on_add", "false")
	}
	if c.Is4K {
		add("is_4k", "true")
	}
	return pairs
}
