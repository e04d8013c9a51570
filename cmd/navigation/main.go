// Command navigation runs the RightFit navigation API and its maintenance
// jobs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "navigation"

var rootCmd = &cobra.Command{
	Use:   "navigation",
	Short: "RightFit navigation and geocoding service",
	Long: `navigation serves geocoding, routing, traffic and weather data for field
workers. Configuration is read from the environment, a local .env file in
development and Azure Key Vault elsewhere.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, backfillCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
