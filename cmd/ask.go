package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shaktech786/arr-suite-mcp-server/internal/advisor"
	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
	"github.com/shaktech786/arr-suite-mcp-server/internal/services"
	"github.com/spf13/cobra"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [request]",
	Short: "Route a plain English request to the right media service",
	Long: `Route a plain English request to the right media service and execute it.

The router scores the request against each service and operation lexicon,
extracts titles, seasons, and quality hints, and dispatches the call through
the shared retrying client.

Examples:
  arr-suite ask "search for the series called 'Dark'"
  arr-suite ask "add the movie Dune and start looking for it"
  arr-suite ask --dry-run "test the indexer manager connection"
  arr-suite ask "show missing subtitles"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request := strings.Join(args, " ")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")

		cfg := loadConfig()
		router := services.NewRouter(cfg)
		in := router.Parse(request)

		if cfg.Debug {
			fmt.Fprintf(os.Stderr, "[router] %q -> %s/%s (%.2f)\n", request, in.Service, in.Operation, in.Confidence)
		}

		if in.Service == intent.ServiceUnknown {
			fmt.Print(intent.Explain(in))
			if hint := adviseUnroutable(cmd.Context(), cfg, request); hint != "" {
				fmt.Printf("Advisor: %s\n", hint)
			}
			return fmt.Errorf("could not route the request")
		}

		dispatcher := services.NewDispatcher(services.NewRegistry(cfg))

		plan, err := dispatcher.Plan(in)
		if err != nil {
			return fmt.Errorf("failed to plan the request: %w", err)
		}
		if dryRun {
			return printJSON(plan)
		}

		// Confirm writes unless --yes
		if plan.Method != http.MethodGet && !yes {
			fmt.Printf("About to %s %s on %s. Proceed? [y/N]: ", plan.Method, plan.Path, plan.Product)
			var response string
			fmt.Scanln(&response)
			if strings.ToLower(response) != "y" && strings.ToLower(response) != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		res, err := dispatcher.Dispatch(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to execute the request: %w", err)
		}

		fmt.Printf("%s %s: HTTP %d in %s (%d attempt(s))\n",
			res.Method, res.Path, res.Status, res.Elapsed.Round(time.Millisecond), res.Attempts)
		if len(res.Body) > 0 {
			var buf bytes.Buffer
			if err := json.Indent(&buf, res.Body, "", "  "); err != nil {
				fmt.Println(string(res.Body))
			} else {
				fmt.Println(buf.String())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("dry-run", false, "show the planned call without executing it")
	askCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt for writes")
}

// adviseUnroutable asks the configured AI model for a phrasing hint. It
// returns an empty string when no key is configured or the call fails;
// routing output must not depend on the advisor being reachable.
func adviseUnroutable(ctx context.Context, cfg *config.Config, request string) string {
	if cfg.AIKey == "" {
		return ""
	}
	client, err := advisor.NewClient(ctx, cfg.AIKey, cfg.AIModel, cfg.Debug)
	if err != nil {
		if cfg.Debug {
			fmt.Fprintf(os.Stderr, "[advisor] unavailable: %v\n", err)
		}
		return ""
	}
	suggestion, err := client.Suggest(ctx, request, intent.KnownServices(), intent.KnownOperations())
	if err != nil {
		if cfg.Debug {
			fmt.Fprintf(os.Stderr, "[advisor] %v\n", err)
		}
		return ""
	}
	return suggestion
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
