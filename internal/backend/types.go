package backend

import (
	"encoding/json"
	"math"
	"net/url"
	"time"
)

// Descriptor holds everything the client needs to talk to one backend:
// address, auth scheme, per-attempt timeout, and retry policy. Structurally
// identical backends differ only by their descriptor values.
type Descriptor struct {
	// Name identifies the backend in logs and errors, e.g. "series_manager".
	Name string

	// BaseURL is scheme://host:port without a trailing slash.
	BaseURL string

	// Prefix is the API path prefix, e.g. "/api/v3". Empty for backends
	// that serve from the root.
	Prefix string

	// APIKey is injected on every request.
	APIKey string

	// AuthHeader carries the key; defaults to "X-Api-Key".
	AuthHeader string

	// AuthQuery, when set, sends the key as this query parameter instead
	// of a header (the media server wants "X-Plex-Token").
	AuthQuery string

	// StatusPath is the endpoint TestConnection probes; defaults to
	// "/system/status".
	StatusPath string

	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration

	Retry RetryPolicy
	Debug bool
}

// RetryPolicy controls how failed requests are reissued.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	Multiplier      float64
	JitterBound     time.Duration
	MaxDelay        time.Duration
	RetryableStatus []int
}

// DefaultRetryPolicy returns the retry settings used when a descriptor
// leaves the policy zero-valued.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		BaseDelay:       500 * time.Millisecond,
		Multiplier:      2.0,
		JitterBound:     250 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		RetryableStatus: []int{429, 502, 503, 504},
	}
}

// Delay returns the pre-jitter backoff applied after the given failed
// attempt (1-based), capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	scaled := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && scaled > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(scaled)
}

func (p RetryPolicy) retryable(status int) bool {
	for _, s := range p.RetryableStatus {
		if s == status {
			return true
		}
	}
	return false
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = def.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.RetryableStatus == nil {
		p.RetryableStatus = def.RetryableStatus
	}
	return p
}

// Request describes one backend call. Path is relative to the descriptor's
// prefix and must start with a slash.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is the outcome of a successful call.
type Response struct {
	Status   int
	Body     []byte
	Elapsed  time.Duration
	Attempts int
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
