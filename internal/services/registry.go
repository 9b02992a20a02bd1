package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shaktech786/arr-suite-mcp-server/internal/backend"
	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
)

// Registry holds one resilient client per enabled service, built once from
// configuration. Definitions for disabled services are kept so callers can
// name them in answers.
type Registry struct {
	defs     map[intent.Service]Definition
	clients  map[intent.Service]*backend.Client
	settings map[intent.Service]config.Service
	order    []intent.Service
}

// Summary describes one service for listings.
type Summary struct {
	Service    intent.Service `json:"service"`
	Product    string         `json:"product"`
	URL        string         `json:"url"`
	Enabled    bool           `json:"enabled"`
	Configured bool           `json:"configured"`
	Operations []string       `json:"operations"`
}

// Status is the result of probing one service's system status endpoint.
type Status struct {
	Service   intent.Service `json:"service"`
	Product   string         `json:"product"`
	URL       string         `json:"url"`
	Reachable bool           `json:"reachable"`
	Version   string         `json:"version,omitempty"`
	Elapsed   time.Duration  `json:"elapsed,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewRegistry builds clients for every enabled service in cfg. The shared
// retry policy comes from the client settings; a per-service timeout
// overrides the global request timeout.
func NewRegistry(cfg *config.Config) *Registry {
	retry := backend.RetryPolicy{
		MaxAttempts: cfg.Client.MaxRetries,
		BaseDelay:   cfg.Client.BaseDelay,
		Multiplier:  cfg.Client.Multiplier,
		JitterBound: cfg.Client.JitterBound,
		MaxDelay:    cfg.Client.MaxDelay,
	}

	r := &Registry{
		defs:     make(map[intent.Service]Definition, len(definitions)),
		clients:  make(map[intent.Service]*backend.Client, len(definitions)),
		settings: make(map[intent.Service]config.Service, len(definitions)),
	}
	for _, def := range definitions {
		r.defs[def.Service] = def
		r.order = append(r.order, def.Service)

		svc, ok := cfg.Services[def.Product]
		if !ok {
			continue
		}
		r.settings[def.Service] = svc
		if !svc.Enabled || svc.URL == "" {
			continue
		}

		timeout := cfg.Client.RequestTimeout
		if svc.Timeout > 0 {
			timeout = svc.Timeout
		}
		r.clients[def.Service] = backend.NewClient(backend.Descriptor{
			Name:       def.Product,
			BaseURL:    svc.URL,
			Prefix:     def.Prefix,
			APIKey:     svc.APIKey,
			AuthHeader: def.AuthHeader,
			AuthQuery:  def.AuthQuery,
			StatusPath: def.StatusPath,
			Timeout:    timeout,
			Retry:      retry,
			Debug:      cfg.Debug,
		})
	}
	return r
}

// Definition returns the static wiring for a service.
func (r *Registry) Definition(svc intent.Service) (Definition, bool) {
	def, ok := r.defs[svc]
	return def, ok
}

// Client returns the service's client, or false when the service is
// disabled or unknown.
func (r *Registry) Client(svc intent.Service) (*backend.Client, bool) {
	c, ok := r.clients[svc]
	return c, ok
}

// Settings returns the service's configuration entry.
func (r *Registry) Settings(svc intent.Service) (config.Service, bool) {
	s, ok := r.settings[svc]
	return s, ok
}

// Services lists every known service in definition order.
func (r *Registry) Services() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, svc := range r.order {
		def := r.defs[svc]
		settings := r.settings[svc]
		_, enabled := r.clients[svc]
		out = append(out, Summary{
			Service:    svc,
			Product:    def.Product,
			URL:        settings.URL,
			Enabled:    enabled,
			Configured: settings.Configured(),
			Operations: def.Catalog.Operations(),
		})
	}
	return out
}

// Status probes every enabled service's status endpoint in parallel and
// reports reachability and version. Disabled services are reported without
// a probe.
func (r *Registry) Status(ctx context.Context) []Status {
	out := make([]Status, len(r.order))
	var wg sync.WaitGroup
	for i, svc := range r.order {
		def := r.defs[svc]
		out[i] = Status{Service: svc, Product: def.Product, URL: r.settings[svc].URL}

		client, ok := r.clients[svc]
		if !ok {
			out[i].Error = "disabled"
			continue
		}
		wg.Add(1)
		go func(i int, client *backend.Client) {
			defer wg.Done()
			resp, err := client.TestConnection(ctx)
			if err != nil {
				out[i].Error = err.Error()
				return
			}
			out[i].Reachable = true
			out[i].Version = versionFromBody(resp.Body)
			out[i].Elapsed = resp.Elapsed
		}(i, client)
	}
	wg.Wait()
	return out
}

// versionFromBody pulls a version string out of a status payload. The *arr
// products answer {"version": ...}; the media server nests it under
// MediaContainer.
func versionFromBody(body []byte) string {
	var direct struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &direct); err == nil && direct.Version != "" {
		return direct.Version
	}
	var nested struct {
		MediaContainer struct {
			Version string `json:"version"`
		} `json:"MediaContainer"`
	}
	if err := json.Unmarshal(body, &nested); err == nil {
		return nested.MediaContainer.Version
	}
	return ""
}
