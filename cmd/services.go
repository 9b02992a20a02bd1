package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shaktech786/arr-suite-mcp-server/internal/releases"
	"github.com/shaktech786/arr-suite-mcp-server/internal/services"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Inspect the configured media services",
	Long:  `List, probe, and check upstream releases for the configured media services.`,
}

var servicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every service the router knows about",
	Long: `List every service the router knows about, with its product, URL, and
the operations it supports. Services without a URL and API key show up as
not configured.

Examples:
  arr-suite services list
  arr-suite services list -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sums := services.NewRegistry(cfg).Services()

		if output, _ := cmd.Flags().GetString("output"); output == "json" {
			return printJSON(sums)
		}
		renderSummaries(os.Stdout, sums)
		return nil
	},
}

var servicesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every enabled service's status endpoint",
	Long: `Probe every enabled service's status endpoint concurrently and report
reachability, version, and response time.

Examples:
  arr-suite services status
  arr-suite services status -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sts := services.NewRegistry(cfg).Status(cmd.Context())

		if output, _ := cmd.Flags().GetString("output"); output == "json" {
			return printJSON(sts)
		}
		renderStatuses(os.Stdout, sts)
		return nil
	},
}

var servicesReleasesCmd = &cobra.Command{
	Use:   "releases [product]",
	Short: "Check the latest upstream release for each product",
	Long: `Check the latest upstream release published on GitHub for each product,
or for a single product when one is named.

Set github.token (or GITHUB_TOKEN) to raise the API rate limit.

Examples:
  arr-suite services releases
  arr-suite services releases sonarr
  arr-suite services releases -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		client := releases.NewClient(cfg.GitHubToken)
		output, _ := cmd.Flags().GetString("output")

		if len(args) == 1 {
			rel, err := client.Latest(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to check releases: %w", err)
			}
			if output == "json" {
				return printJSON(rel)
			}
			renderChecks(os.Stdout, []releases.Check{{Product: rel.Product, Release: rel}})
			return nil
		}

		checks := client.LatestAll(cmd.Context())
		if output == "json" {
			return printJSON(checks)
		}
		renderChecks(os.Stdout, checks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	servicesCmd.AddCommand(servicesListCmd)
	servicesCmd.AddCommand(servicesStatusCmd)
	servicesCmd.AddCommand(servicesReleasesCmd)

	for _, c := range []*cobra.Command{servicesListCmd, servicesStatusCmd, servicesReleasesCmd} {
		c.Flags().StringP("output", "o", "text", "output format (text, json)")
	}
}

func renderSummaries(w io.Writer, sums []services.Summary) {
	fmt.Fprintf(w, "%-18s %-10s %-8s %s\n", "SERVICE", "PRODUCT", "STATE", "OPERATIONS")
	for _, s := range sums {
		state := "off"
		if s.Enabled {
			state = "on"
		} else if !s.Configured {
			state = "unset"
		}
		fmt.Fprintf(w, "%-18s %-10s %-8s %s\n", s.Service, s.Product, state, strings.Join(s.Operations, ", "))
	}
}

func renderStatuses(w io.Writer, sts []services.Status) {
	fmt.Fprintf(w, "%-18s %-10s %-10s %-12s %s\n", "SERVICE", "PRODUCT", "REACHABLE", "VERSION", "DETAIL")
	for _, s := range sts {
		reachable := "no"
		detail := s.Error
		if s.Reachable {
			reachable = "yes"
			detail = s.Elapsed.Round(time.Millisecond).String()
		}
		version := s.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%-18s %-10s %-10s %-12s %s\n", s.Service, s.Product, reachable, version, detail)
	}
}

func renderChecks(w io.Writer, checks []releases.Check) {
	fmt.Fprintf(w, "%-10s %-12s %-12s %s\n", "PRODUCT", "TAG", "PUBLISHED", "URL")
	for _, c := range checks {
		if c.Error != "" {
			fmt.Fprintf(w, "%-10s %s\n", c.Product, c.Error)
			continue
		}
		published := "-"
		if !c.Release.Published.IsZero() {
			published = c.Release.Published.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-10s %-12s %-12s %s\n", c.Product, c.Release.Tag, published, c.Release.URL)
	}
}
