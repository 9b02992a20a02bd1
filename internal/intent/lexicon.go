package intent

var (
	defaultServiceLexicon = ServiceLexicon{
		ServiceSeries: {
			"tv", "show", "shows", "series", "episode", "episodes",
			"season", "seasons", "television", "tvdb", "anime", "collection",
		},
		ServiceMovies: {
			"movie", "movies", "film", "films", "tmdb", "cinema", "collection",
		},
		ServiceIndexers: {
			"indexer", "indexers", "tracker", "trackers",
			"search engine", "torrent site", "usenet",
		},
		ServiceSubtitles: {
			"subtitle", "subtitles", "subs", "caption", "captions",
			"language", "translation",
		},
		ServiceRequests: {
			"request", "requests", "approve", "decline", "user", "users",
			"discover", "trending",
		},
		ServiceMedia: {
			"library", "libraries", "playing", "sessions", "watch", "watched",
			"on deck", "recently added", "playlist", "playlists", "collection",
			"transcode", "stream", "server", "media server",
		},
	}

	// Canonical names are merged into the service lexicon and pinned to the
	// CanonicalPin weight, so naming a product is never outscored by a
	// generic term from another table.
	defaultCanonicalNames = map[Service][]string{
		ServiceSeries:    {"sonarr", "series manager"},
		ServiceMovies:    {"radarr", "movie manager"},
		ServiceIndexers:  {"prowlarr", "indexer manager"},
		ServiceSubtitles: {"bazarr", "subtitle manager"},
		ServiceRequests:  {"overseerr", "request manager"},
		ServiceMedia:     {"plex", "media server"},
	}

	defaultOperationLexicon = OperationLexicon{
		OpSearch:    {"search", "find", "lookup", "look up", "query", "locate"},
		OpAdd:       {"add", "create", "new", "insert", "import"},
		OpDelete:    {"delete", "remove", "unmonitor", "destroy"},
		OpUpdate:    {"update", "modify", "change", "edit", "set"},
		OpList:      {"list", "show all", "get all", "display", "view"},
		OpGet:       {"get", "retrieve", "fetch", "show", "details"},
		OpConfigure: {"configure", "config", "settings", "setup", "customize"},
		OpMonitor:   {"monitor", "watch", "track", "follow"},
		OpDownload:  {"download", "grab", "get subtitle", "get subtitles", "fetch subtitle", "fetch subtitles"},
		OpRequest:   {"request", "want", "need", "ask for"},
		OpApprove:   {"approve", "accept", "decline", "reject"},
		OpSync:      {"sync", "synchronize", "update apps"},
		OpBackup:    {"backup", "back up", "export database"},
		OpPlay:      {"play", "playing", "stream", "streaming"},
		OpScan:      {"scan", "analyze", "index"},
		OpRefresh:   {"refresh", "reload", "update library"},
		OpWatch:     {"mark watched", "mark as watched", "scrobble"},
	}

	// Scoring iterates these slices instead of map keys so parsing stays
	// deterministic. Priority order doubles as the tie-break between
	// services with equal scores.
	defaultPriority = []Service{
		ServiceSeries,
		ServiceMovies,
		ServiceIndexers,
		ServiceSubtitles,
		ServiceRequests,
		ServiceMedia,
	}

	operationOrder = []Operation{
		OpSearch, OpAdd, OpDelete, OpUpdate, OpList, OpGet, OpConfigure,
		OpMonitor, OpDownload, OpRequest, OpApprove, OpSync, OpBackup,
		OpPlay, OpScan, OpRefresh, OpWatch,
	}

	defaultWeightRules = WeightRules{
		PhraseBase:   1.0,
		WordBonus:    0.5,
		CanonicalPin: 2.0,
		Smoothing:    0.5,
		ServiceShare: 0.6,
	}
)

const defaultMinConfidence = 0.40

// DefaultConfig returns the built-in routing tables and thresholds. The
// result is a deep copy, safe for the caller to modify before handing it to
// NewRouter.
func DefaultConfig() Config {
	return Config{
		MinConfidence: defaultMinConfidence,
		Priority:      clonePriority(defaultPriority),
		Services:      cloneServiceLexicon(defaultServiceLexicon),
		Operations:    cloneOperationLexicon(defaultOperationLexicon),
		Weights:       defaultWeightRules,
	}
}

// KnownServices lists the routable services in priority order, without
// the unknown sentinel.
func KnownServices() []string {
	out := make([]string, 0, len(defaultPriority))
	for _, svc := range defaultPriority {
		out = append(out, string(svc))
	}
	return out
}

// KnownOperations lists every routable operation in scoring order.
func KnownOperations() []string {
	out := make([]string, 0, len(operationOrder))
	for _, op := range operationOrder {
		out = append(out, string(op))
	}
	return out
}

func cloneServiceLexicon(src ServiceLexicon) ServiceLexicon {
	dst := make(ServiceLexicon, len(src))
	for svc, phrases := range src {
		copied := make([]string, len(phrases))
		copy(copied, phrases)
		dst[svc] = copied
	}
	return dst
}

func cloneOperationLexicon(src OperationLexicon) OperationLexicon {
	dst := make(OperationLexicon, len(src))
	for op, phrases := range src {
		copied := make([]string, len(phrases))
		copy(copied, phrases)
		dst[op] = copied
	}
	return dst
}

func clonePriority(src []Service) []Service {
	dst := make([]Service, len(src))
	copy(dst, src)
	return dst
}
