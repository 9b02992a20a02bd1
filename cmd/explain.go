package cmd

import (
	"fmt"
	"strings"

	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
	"github.com/shaktech786/arr-suite-mcp-server/internal/services"
	"github.com/spf13/cobra"
)

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain [request]",
	Short: "Show how a request would be routed without executing it",
	Long: `Show how a request would be routed without executing it.

The report lists the chosen service and operation, the matched phrases with
their weights, and the context the router extracted from the text (title,
season, quality, and so on).

Examples:
  arr-suite explain "download season 2 of The Expanse in 4k"
  arr-suite explain "is the request manager healthy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request := strings.Join(args, " ")

		cfg := loadConfig()
		router := services.NewRouter(cfg)
		in := router.Parse(request)

		fmt.Print(intent.Explain(in))
		if in.Service == intent.ServiceUnknown {
			if hint := adviseUnroutable(cmd.Context(), cfg, request); hint != "" {
				fmt.Printf("Advisor: %s\n", hint)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
