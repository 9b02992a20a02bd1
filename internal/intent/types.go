// Package intent turns free-form media requests into structured,
// confidence-scored routing decisions.
package intent

// Service identifies one wrapped media-management backend.
type Service string

const (
	ServiceSeries    Service = "series_manager"
	ServiceMovies    Service = "movie_manager"
	ServiceIndexers  Service = "indexer_manager"
	ServiceSubtitles Service = "subtitle_manager"
	ServiceRequests  Service = "request_manager"
	ServiceMedia     Service = "media_server"
	ServiceUnknown   Service = "unknown"
)

// Operation names one action a backend can perform.
type Operation string

const (
	OpSearch    Operation = "search"
	OpAdd       Operation = "add"
	OpDelete    Operation = "delete"
	OpUpdate    Operation = "update"
	OpList      Operation = "list"
	OpGet       Operation = "get"
	OpConfigure Operation = "configure"
	OpMonitor   Operation = "monitor"
	OpDownload  Operation = "download"
	OpRequest   Operation = "request"
	OpApprove   Operation = "approve"
	OpSync      Operation = "sync"
	OpBackup    Operation = "backup"
	OpPlay      Operation = "play"
	OpScan      Operation = "scan"
	OpRefresh   Operation = "refresh"
	OpWatch     Operation = "watch"
	OpUnknown   Operation = "unknown"
)

// ServiceLexicon maps each service to the phrases that trigger it.
type ServiceLexicon map[Service][]string

// OperationLexicon maps each operation to its trigger verbs.
type OperationLexicon map[Operation][]string

// MatchKind says which scoring axis produced a Match.
type MatchKind string

const (
	MatchService   MatchKind = "service"
	MatchOperation MatchKind = "operation"
)

// Match records one trigger phrase found in the input text. The full match
// set is kept on the Intent so callers can explain a routing decision
// instead of executing a low-confidence guess silently.
type Match struct {
	Kind   MatchKind
	Name   string
	Phrase string
	Weight float64
}

// Context carries the semantic fields extracted from the request text.
// Monitored and SearchOnAdd default to true and flip only on explicit
// negation in the text.
type Context struct {
	Title    string
	Year     int
	Quality  string
	Season   int
	Episode  int
	Language string

	Monitored   bool
	SearchOnAdd bool
	Is4K        bool
}

// Intent is the routing decision for one request. It is created per call
// and discarded after dispatch.
type Intent struct {
	Service    Service
	Operation  Operation
	Confidence float64
	Context    Context
	RawText    string
	Matches    []Match
}

// WeightRules control how matched phrases turn into scores. A phrase of n
// words weighs PhraseBase + WordBonus*(n-1); exact product or role names are
// pinned to CanonicalPin so they always beat generic terms. Axis scores map
// to [0,1) via score/(score+Smoothing), and the overall confidence blends
// the two axes with ServiceShare going to the service side.
type WeightRules struct {
	PhraseBase   float64
	WordBonus    float64
	CanonicalPin float64
	Smoothing    float64
	ServiceShare float64
}

// Config carries the tunable routing tables and thresholds. Zero-valued
// fields fall back to the built-in defaults.
type Config struct {
	MinConfidence float64
	Priority      []Service
	Services      ServiceLexicon
	Operations    OperationLexicon
	Weights       WeightRules
}
