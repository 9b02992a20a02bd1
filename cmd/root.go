package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "arr-suite",
	Version: version,
	Short:   "Natural language control for your media server stack",
	Long: `arr-suite routes plain English requests to the right media service:
the series and movie managers, the indexer manager, the subtitle manager,
the request manager, and the media server itself.

Ask for what you want and the router picks the service, the operation, and
the request parameters. Every call runs through a shared client with
retries, backoff, and a uniform error taxonomy. The same tools are
available to LLM hosts through 'arr-suite serve'.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.arr-suite.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output (shows routing + retry diagnostics)")

	// TODO: add error return here
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".arr-suite")
	}

	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("ARR_SUITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("debug") {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig resolves the effective configuration for one command run.
func loadConfig() *config.Config {
	return config.Load(viper.GetViper())
}
