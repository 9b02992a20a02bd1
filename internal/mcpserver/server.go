// Package mcpserver exposes the router and the wrapped services as tools
// over the Model Context Protocol. The server speaks JSON-RPC on stdio,
// so every diagnostic goes to stderr.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shaktech786/arr-suite-mcp-server/internal/advisor"
	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
	"github.com/shaktech786/arr-suite-mcp-server/internal/releases"
	"github.com/shaktech786/arr-suite-mcp-server/internal/services"
	"github.com/shaktech786/arr-suite-mcp-server/internal/store"
)

// Server wires the router, the dispatcher, and the maintenance helpers
// into a fixed set of MCP tools.
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	router   *intent.Router
	registry *services.Registry
	dispatch *services.Dispatcher
	releases *releases.Client
	advisor  *advisor.Client
	tools    []string
	version  string
	debug    bool
}

// New builds the server and registers every tool. The advisor is optional:
// without an API key the execute and explain tools answer unroutable input
// with the router's own guidance.
func New(ctx context.Context, cfg *config.Config, version string) *Server {
	reg := services.NewRegistry(cfg)
	s := &Server{
		cfg:      cfg,
		router:   services.NewRouter(cfg),
		registry: reg,
		dispatch: services.NewDispatcher(reg),
		releases: releases.NewClient(cfg.GitHubToken),
		version:  version,
		debug:    cfg.Debug,
	}
	if cfg.AIKey != "" {
		adv, err := advisor.NewClient(ctx, cfg.AIKey, cfg.AIModel, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[mcp] advisor disabled: %v\n", err)
		} else {
			s.advisor = adv
		}
	}

	s.mcp = server.NewMCPServer(
		"arr-suite",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.register(mcp.NewTool("arr_execute",
		mcp.WithDescription("Route a natural language media request to the right service and execute it. Example: \"add the series Severance in 4k\"."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The request in plain English. Quote the title for exact matching."),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Describe the call that would be made instead of executing it."),
		),
	), s.handleExecute)

	s.register(mcp.NewTool("arr_explain_intent",
		mcp.WithDescription("Show how a request would be routed: matched phrases, confidence, and extracted context. Makes no backend calls."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The request to analyze."),
		),
	), s.handleExplain)

	s.register(mcp.NewTool("arr_list_services",
		mcp.WithDescription("List every wrapped service with its product, URL, and supported operations."),
	), s.handleListServices)

	s.register(mcp.NewTool("arr_system_status",
		mcp.WithDescription("Probe every enabled service's status endpoint and report reachability, version, and latency."),
	), s.handleStatus)

	s.register(mcp.NewTool("arr_backup_database",
		mcp.WithDescription("Snapshot a product's SQLite database into the backup directory and ship it to any configured remote storage."),
		mcp.WithString("product",
			mcp.Required(),
			mcp.Description("Product to back up, e.g. sonarr or radarr."),
		),
		mcp.WithString("path",
			mcp.Description("Database file to snapshot, overriding the configured db_path."),
		),
		mcp.WithString("upload",
			mcp.Description("Ship the backup to a remote after the snapshot (s3 or gcs)."),
		),
	), s.handleBackup)

	s.register(mcp.NewTool("arr_latest_releases",
		mcp.WithDescription("Fetch the latest upstream release of the wrapped products from GitHub."),
		mcp.WithString("product",
			mcp.Description("Limit the lookup to one product."),
		),
	), s.handleReleases)
}

func (s *Server) register(tool mcp.Tool, h server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, h)
	s.tools = append(s.tools, tool.Name)
}

// Tools lists the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// ServeStdio runs the server until the host disconnects. Stdout carries
// the protocol, so the banner goes to stderr.
func (s *Server) ServeStdio() error {
	fmt.Fprintf(os.Stderr, "arr-suite MCP server %s started (stdio mode)\n", s.version)
	fmt.Fprintf(os.Stderr, "tools: %s\n", strings.Join(s.tools, ", "))
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := s.router.Parse(text)
	if s.debug {
		fmt.Fprintf(os.Stderr, "[mcp] routed %q to %s/%s (%.2f)\n", text, in.Service, in.Operation, in.Confidence)
	}
	if in.Service == intent.ServiceUnknown {
		return s.unroutable(ctx, in), nil
	}

	if req.GetBool("dry_run", false) {
		plan, err := s.dispatch.Plan(in)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(plan)
	}

	res, err := s.dispatch.Dispatch(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) handleExplain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := s.router.Parse(text)
	out := intent.Explain(in)
	if in.Service == intent.ServiceUnknown && s.advisor != nil {
		if suggestion, err := s.advisor.Suggest(ctx, text, intent.KnownServices(), intent.KnownOperations()); err == nil {
			out += "Advisor: " + suggestion + "\n"
		} else if s.debug {
			fmt.Fprintf(os.Stderr, "[mcp] advisor: %v\n", err)
		}
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleListServices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.Services())
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.Status(ctx))
}

func (s *Server) handleBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	product, err := req.RequireString("product")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	svc, ok := s.cfg.Services[product]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown product %q; known: %s", product, strings.Join(config.Products, ", "))), nil
	}
	dbPath := req.GetString("path", svc.DBPath)
	if dbPath == "" {
		return mcp.NewToolResultError(fmt.Sprintf("no database path configured for %s; set services.%s.db_path or pass path", product, product)), nil
	}
	uploaders, err := store.UploadersFor(s.cfg.Backup, req.GetString("upload", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := store.BackupDatabase(ctx, dbPath, s.cfg.Backup.Dir, uploaders...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleReleases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if product := req.GetString("product", ""); product != "" {
		rel, err := s.releases.Latest(ctx, product)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(rel)
	}
	return jsonResult(s.releases.LatestAll(ctx))
}

// unroutable answers input the router gave up on. With an advisor
// configured the model proposes a placement; otherwise the router's own
// explanation is the answer.
func (s *Server) unroutable(ctx context.Context, in intent.Intent) *mcp.CallToolResult {
	if s.advisor != nil {
		suggestion, err := s.advisor.Suggest(ctx, in.RawText, intent.KnownServices(), intent.KnownOperations())
		if err == nil {
			return mcp.NewToolResultText(suggestion)
		}
		if s.debug {
			fmt.Fprintf(os.Stderr, "[mcp] advisor: %v\n", err)
		}
	}
	return mcp.NewToolResultError(intent.Explain(in))
}

// jsonResult renders v as indented JSON inside a text content block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
