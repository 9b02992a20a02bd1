package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shaktech786/arr-suite-mcp-server/internal/backend"
	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
)

var (
	// ErrUnknownService reports input the router could not attribute to
	// any wrapped product.
	ErrUnknownService = errors.New("no service matched the request")

	// ErrServiceDisabled reports a routed service that is switched off in
	// configuration.
	ErrServiceDisabled = errors.New("service is disabled")

	// ErrUnsupportedOperation reports an operation absent from the target
	// service's catalog.
	ErrUnsupportedOperation = errors.New("operation not supported")
)

// Result is the outcome of one executed intent. Attempts counts every HTTP
// attempt made, across both steps for the two-step flows.
type Result struct {
	Service   intent.Service   `json:"service"`
	Operation intent.Operation `json:"operation"`
	Product   string           `json:"product"`
	Method    string           `json:"method"`
	Path      string           `json:"path"`
	Status    int              `json:"status"`
	Elapsed   time.Duration    `json:"elapsed"`
	Attempts  int              `json:"attempts"`
	Body      json.RawMessage  `json:"body,omitempty"`
}

// Plan describes the call Dispatch would make for an intent, without
// touching the network. LookupPath is set when the operation resolves the
// title through a lookup step first.
type Plan struct {
	Service    intent.Service   `json:"service"`
	Operation  intent.Operation `json:"operation"`
	Product    string           `json:"product"`
	Method     string           `json:"method"`
	Path       string           `json:"path"`
	Query      url.Values       `json:"query,omitempty"`
	Body       any              `json:"body,omitempty"`
	LookupPath string           `json:"lookup_path,omitempty"`
}

// Dispatcher turns routed intents into backend calls.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// addFlows maps the library managers to their lookup endpoint and the add
// option that triggers an immediate search.
var addFlows = map[intent.Service]struct {
	LookupPath string
	SearchKey  string
}{
	intent.ServiceSeries: {"/series/lookup", "searchForMissingEpisodes"},
	intent.ServiceMovies: {"/movie/lookup", "searchForMovie"},
}

// Dispatch validates the intent, builds the backend request, and executes
// it. Unknown or unsupported intents fail before any network traffic.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) (*Result, error) {
	def, client, op, ep, err := d.resolve(in)
	if err != nil {
		return nil, err
	}

	if flow, ok := addFlows[in.Service]; ok && op == intent.OpAdd {
		return d.addMedia(ctx, def, client, in, ep, flow.LookupPath, flow.SearchKey)
	}
	if in.Service == intent.ServiceRequests && (op == intent.OpRequest || op == intent.OpAdd) {
		return d.requestMedia(ctx, def, client, in, ep)
	}

	req, err := buildRequest(def, in, op, ep)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResult(def, op, in.Service, req, resp), nil
}

// Plan runs the same validation as Dispatch and reports the request shape
// instead of executing it.
func (d *Dispatcher) Plan(in intent.Intent) (*Plan, error) {
	def, _, op, ep, err := d.resolve(in)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Service:   in.Service,
		Operation: op,
		Product:   def.Product,
		Method:    ep.Method,
		Path:      def.Prefix + ep.Path,
	}
	if flow, ok := addFlows[in.Service]; ok && op == intent.OpAdd {
		if in.Context.Title == "" {
			return nil, fmt.Errorf("%s needs a title to add; try quoting it", def.Product)
		}
		plan.LookupPath = def.Prefix + flow.LookupPath
		return plan, nil
	}
	if in.Service == intent.ServiceRequests && (op == intent.OpRequest || op == intent.OpAdd) {
		if in.Context.Title == "" {
			return nil, fmt.Errorf("%s needs a title to request; try quoting it", def.Product)
		}
		plan.LookupPath = def.Prefix + "/search"
		return plan, nil
	}

	req, err := buildRequest(def, in, op, ep)
	if err != nil {
		return nil, err
	}
	plan.Query = req.Query
	plan.Body = req.Body
	return plan, nil
}

// resolve checks the intent against the registry and catalog. It returns
// everything the execution paths need.
func (d *Dispatcher) resolve(in intent.Intent) (Definition, *backend.Client, intent.Operation, Endpoint, error) {
	if in.Service == intent.ServiceUnknown {
		return Definition{}, nil, "", Endpoint{}, fmt.Errorf("%w: %q; try naming the product or the media type", ErrUnknownService, in.RawText)
	}
	def, ok := d.registry.Definition(in.Service)
	if !ok {
		return Definition{}, nil, "", Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownService, in.RawText)
	}
	client, ok := d.registry.Client(in.Service)
	if !ok {
		return Definition{}, nil, "", Endpoint{}, fmt.Errorf("%s (%s): %w", in.Service, def.Product, ErrServiceDisabled)
	}

	op := in.Operation
	if op == intent.OpUnknown {
		op = intent.OpSearch
	}
	ep, ok := def.Catalog[op]
	if !ok {
		return Definition{}, nil, "", Endpoint{}, fmt.Errorf("%s: %w on %s; supported: %s", op, ErrUnsupportedOperation, def.Product, def.Catalog)
	}
	return def, client, op, ep, nil
}

// buildRequest fills the endpoint template from the intent context.
func buildRequest(def Definition, in intent.Intent, op intent.Operation, ep Endpoint) (backend.Request, error) {
	req := backend.Request{Method: ep.Method, Path: ep.Path}
	if ep.TermParam != "" {
		if in.Context.Title == "" {
			return backend.Request{}, fmt.Errorf("%s needs a title to search for; try quoting it", def.Product)
		}
		req.Query = url.Values{ep.TermParam: {in.Context.Title}}
	}
	if ep.Body != nil {
		req.Body = ep.Body
	}
	if in.Service == intent.ServiceSubtitles && op == intent.OpDownload {
		body := map[string]any{}
		if in.Context.Title != "" {
			body["title"] = in.Context.Title
		}
		if in.Context.Language != "" {
			body["language"] = in.Context.Language
		}
		req.Body = body
	}
	return req, nil
}

// addMedia is the two-step library add: resolve the title through the
// product's lookup endpoint, then post the first candidate enriched with
// the configured root folder and quality profile.
func (d *Dispatcher) addMedia(ctx context.Context, def Definition, client *backend.Client, in intent.Intent, ep Endpoint, lookupPath, searchKey string) (*Result, error) {
	if in.Context.Title == "" {
		return nil, fmt.Errorf("%s needs a title to add; try quoting it", def.Product)
	}
	term := in.Context.Title
	if in.Context.Year != 0 {
		term = fmt.Sprintf("%s %d", term, in.Context.Year)
	}

	lookup, err := client.Get(ctx, lookupPath, url.Values{"term": {term}})
	if err != nil {
		return nil, err
	}
	var candidates []map[string]any
	if err := lookup.Decode(&candidates); err != nil {
		return nil, fmt.Errorf("decode %s lookup: %w", def.Product, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no match for %q on %s", term, def.Product)
	}

	settings, _ := d.registry.Settings(in.Service)
	payload := candidates[0]
	payload["rootFolderPath"] = settings.RootFolder
	payload["qualityProfileId"] = settings.QualityProfileID
	payload["monitored"] = in.Context.Monitored
	payload["addOptions"] = map[string]any{searchKey: in.Context.SearchOnAdd}

	req := backend.Request{Method: ep.Method, Path: ep.Path, Body: payload}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	res := newResult(def, intent.OpAdd, in.Service, req, resp)
	res.Attempts += lookup.Attempts
	res.Elapsed += lookup.Elapsed
	return res, nil
}

// requestMedia files a request with the request manager: search for the
// title, then request the first result by its media id.
func (d *Dispatcher) requestMedia(ctx context.Context, def Definition, client *backend.Client, in intent.Intent, ep Endpoint) (*Result, error) {
	if in.Context.Title == "" {
		return nil, fmt.Errorf("%s needs a title to request; try quoting it", def.Product)
	}

	search, err := client.Get(ctx, "/search", url.Values{"query": {in.Context.Title}})
	if err != nil {
		return nil, err
	}
	var page struct {
		Results []struct {
			ID        int    `json:"id"`
			MediaType string `json:"mediaType"`
		} `json:"results"`
	}
	if err := search.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s search: %w", def.Product, err)
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("no match for %q on %s", in.Context.Title, def.Product)
	}

	first := page.Results[0]
	body := map[string]any{
		"mediaType": first.MediaType,
		"mediaId":   first.ID,
	}
	if in.Context.Is4K {
		body["is4k"] = true
	}
	if first.MediaType == "tv" && in.Context.Season != 0 {
		body["seasons"] = []int{in.Context.Season}
	}

	req := backend.Request{Method: ep.Method, Path: ep.Path, Body: body}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	res := newResult(def, in.Operation, in.Service, req, resp)
	res.Attempts += search.Attempts
	res.Elapsed += search.Elapsed
	return res, nil
}

func newResult(def Definition, op intent.Operation, svc intent.Service, req backend.Request, resp *backend.Response) *Result {
	return &Result{
		Service:   svc,
		Operation: op,
		Product:   def.Product,
		Method:    req.Method,
		Path:      def.Prefix + req.Path,
		Status:    resp.Status,
		Elapsed:   resp.Elapsed,
		Attempts:  resp.Attempts,
		Body:      json.RawMessage(resp.Body),
	}
}
