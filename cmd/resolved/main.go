package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyomed/resolve/cmd/resolved/commands"
	"github.com/odyomed/resolve/logger"
)

var rootCmd = &cobra.Command{
	Use:   "resolved",
	Short: "resolved - fuzzy entity resolution and autocomplete service",
	Long: `resolved matches free-typed text against known suppliers, inventory
categories and brands, offering ranked candidates and a "create new"
path when nothing matches.

Available commands:
  serve   - Start the HTTP/WebSocket resolution server
  search  - Run a one-shot resolution against the local database
  version - Show version information

Examples:
  resolved serve                     # Start the server
  resolved search brand raiovac      # Resolve a (typo'd) brand name
  resolved search category "pil" -j  # JSON output`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
