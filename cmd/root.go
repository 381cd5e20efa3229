// Package cmd defines and implements the CLI commands for the scraping-gn
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraping-gn",
		Short: "Exports shop listings from a paginated restaurant directory to CSV.",
		Long: `scraping-gn walks a paginated restaurant directory, extracts one
structured record per shop (name, phone, email, address, website) and
serializes the results to a CSV file. The same pipeline runs over a static
document fetch or a live browser session.`,
	}

	cobra.OnInitialize(initConfig)
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./scraping-gn.yaml)")
	cmd.AddCommand(newExportCmd())
	return cmd
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "read config: %v\n", err)
			os.Exit(1)
		}
	}
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
