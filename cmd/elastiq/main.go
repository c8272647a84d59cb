package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elastiq/elastiq"
	"github.com/elastiq/elastiq/logger"
)

var (
	connectionName string
	logLevel       string = "warn"
)

var rootCmd = &cobra.Command{
	Use:   "elastiq",
	Short: "elastiq CLI - run ad-hoc Elasticsearch queries",
	Long: `elastiq CLI builds and executes Elasticsearch queries from the command
line using the elastiq fluent query builder. Connections are configured
through the environment (see ELASTICSEARCH_URL and friends).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Initialize(logLevel, "")
	},
}

// manager is shared by all subcommands; built once from the environment.
var manager *elastiq.Manager

func init() {
	rootCmd.PersistentFlags().StringVar(&connectionName, "connection", "", "Connection name (defaults to the configured default)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level: debug, info, warn, error")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(msearchCmd)
}

func main() {
	manager = elastiq.NewManager(elastiq.LoadConfig())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
