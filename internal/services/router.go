package services

import (
	"strings"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
)

// NewRouter builds the intent router from resolved configuration. Phrases
// under router.services and router.operations extend the built-in tables;
// router.priority and router.min_confidence replace their defaults when set.
func NewRouter(cfg *config.Config) *intent.Router {
	rc := intent.DefaultConfig()
	if cfg.Router.MinConfidence > 0 {
		rc.MinConfidence = cfg.Router.MinConfidence
	}
	if len(cfg.Router.Priority) > 0 {
		rc.Priority = make([]intent.Service, 0, len(cfg.Router.Priority))
		for _, svc := range cfg.Router.Priority {
			rc.Priority = append(rc.Priority, intent.Service(svc))
		}
	}
	for svc, phrases := range cfg.Router.Services {
		key := intent.Service(svc)
		rc.Services[key] = appendPhrases(rc.Services[key], phrases)
	}
	for op, phrases := range cfg.Router.Operations {
		key := intent.Operation(op)
		rc.Operations[key] = appendPhrases(rc.Operations[key], phrases)
	}
	return intent.NewRouter(rc)
}

// appendPhrases merges extra phrases into a table entry. Matching runs on
// lower-cased text, so phrases are folded on the way in; duplicates would
// double-count in scoring and are skipped.
func appendPhrases(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}
	for _, p := range extra {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		existing = append(existing, p)
	}
	return existing
}
