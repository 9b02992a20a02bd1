// Package services wires the wrapped media products together: per-product
// operation catalogs, a registry of configured backend clients, and the
// dispatcher that executes a routed intent.
package services

import (
	"sort"
	"strings"

	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
)

// Endpoint maps one operation onto a backend's HTTP API. TermParam, when
// set, names the query parameter that carries the extracted title. Body,
// when set, is sent as the JSON request body.
type Endpoint struct {
	Method    string
	Path      string
	TermParam string
	Body      map[string]any
}

// Catalog is one service's immutable operation table. Operations that need
// identifiers the router cannot extract from free text are deliberately
// absent; the dispatcher answers those with the supported set instead.
type Catalog map[intent.Operation]Endpoint

// Definition bundles the static wiring for one service: which product it
// is, how requests are addressed and authenticated, and what operations it
// offers.
type Definition struct {
	Service    intent.Service
	Product    string
	Prefix     string
	AuthHeader string
	AuthQuery  string
	StatusPath string
	Catalog    Catalog
}

var definitions = []Definition{
	{
		Service: intent.ServiceSeries,
		Product: "sonarr",
		Prefix:  "/api/v3",
		Catalog: Catalog{
			intent.OpSearch:  {Method: "GET", Path: "/series/lookup", TermParam: "term"},
			intent.OpAdd:     {Method: "POST", Path: "/series"},
			intent.OpList:    {Method: "GET", Path: "/series"},
			intent.OpGet:     {Method: "GET", Path: "/series"},
			intent.OpScan:    {Method: "POST", Path: "/command", Body: map[string]any{"name": "RescanSeries"}},
			intent.OpRefresh: {Method: "POST", Path: "/command", Body: map[string]any{"name": "RefreshSeries"}},
			intent.OpBackup:  {Method: "POST", Path: "/command", Body: map[string]any{"name": "Backup"}},
		},
	},
	{
		Service: intent.ServiceMovies,
		Product: "radarr",
		Prefix:  "/api/v3",
		Catalog: Catalog{
			intent.OpSearch:  {Method: "GET", Path: "/movie/lookup", TermParam: "term"},
			intent.OpAdd:     {Method: "POST", Path: "/movie"},
			intent.OpList:    {Method: "GET", Path: "/movie"},
			intent.OpGet:     {Method: "GET", Path: "/movie"},
			intent.OpScan:    {Method: "POST", Path: "/command", Body: map[string]any{"name": "RescanMovie"}},
			intent.OpRefresh: {Method: "POST", Path: "/command", Body: map[string]any{"name": "RefreshMovie"}},
			intent.OpBackup:  {Method: "POST", Path: "/command", Body: map[string]any{"name": "Backup"}},
		},
	},
	{
		Service: intent.ServiceIndexers,
		Product: "prowlarr",
		Prefix:  "/api/v1",
		Catalog: Catalog{
			intent.OpSearch:    {Method: "GET", Path: "/search", TermParam: "query"},
			intent.OpList:      {Method: "GET", Path: "/indexer"},
			intent.OpGet:       {Method: "GET", Path: "/indexer"},
			intent.OpConfigure: {Method: "GET", Path: "/config/host"},
			intent.OpSync:      {Method: "POST", Path: "/command", Body: map[string]any{"name": "ApplicationIndexerSync"}},
			intent.OpBackup:    {Method: "POST", Path: "/command", Body: map[string]any{"name": "Backup"}},
		},
	},
	{
		Service: intent.ServiceSubtitles,
		Product: "bazarr",
		Prefix:  "/api",
		Catalog: Catalog{
			intent.OpSearch:   {Method: "GET", Path: "/episodes/wanted"},
			intent.OpList:     {Method: "GET", Path: "/series"},
			intent.OpGet:      {Method: "GET", Path: "/system/status"},
			intent.OpDownload: {Method: "POST", Path: "/subtitles"},
		},
	},
	{
		Service: intent.ServiceRequests,
		Product: "overseerr",
		Prefix:  "/api/v1",
		Catalog: Catalog{
			intent.OpSearch:  {Method: "GET", Path: "/search", TermParam: "query"},
			intent.OpRequest: {Method: "POST", Path: "/request"},
			intent.OpAdd:     {Method: "POST", Path: "/request"},
			intent.OpList:    {Method: "GET", Path: "/request"},
			intent.OpGet:     {Method: "GET", Path: "/request"},
		},
	},
	{
		Service:    intent.ServiceMedia,
		Product:    "plex",
		Prefix:     "",
		AuthQuery:  "X-Plex-Token",
		StatusPath: "/identity",
		Catalog: Catalog{
			intent.OpSearch:  {Method: "GET", Path: "/search", TermParam: "query"},
			intent.OpList:    {Method: "GET", Path: "/library/sections"},
			intent.OpGet:     {Method: "GET", Path: "/library/sections"},
			intent.OpPlay:    {Method: "GET", Path: "/status/sessions"},
			intent.OpScan:    {Method: "GET", Path: "/library/sections/all/refresh"},
			intent.OpRefresh: {Method: "GET", Path: "/library/sections/all/refresh"},
		},
	},
}

// Operations lists a catalog's supported operations, sorted for stable
// error messages and tool output.
func (c Catalog) Operations() []string {
	ops := make([]string, 0, len(c))
	for op := range c {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)
	return ops
}

// String renders the supported set as a comma-separated list.
func (c Catalog) String() string {
	return strings.Join(c.Operations(), ", ")
}
