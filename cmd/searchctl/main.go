// Command searchctl is the CLI for the lexisearch hybrid search service: it
// starts the server, runs the offline evaluation harness, and acts as a thin
// client for search and indexing against a running instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexisearch/lexisearch/client"
	"github.com/lexisearch/lexisearch/internal/config"
)

var (
	commit    = ""
	buildDate = ""
)

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("searchctl version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}

	return fmt.Sprintf("searchctl version %s-dev", config.Version)
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "searchctl",
		Short:   "searchctl — hybrid lexical+semantic document search service",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "http://localhost:8080", "searchctl server URL (env: SEARCHCTL_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: SEARCHCTL_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table")

	serveCmd := newServeCmd()
	serveCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // serve builds its own components, no client needed

	runEvalsCmd := newRunEvalsCmd()
	runEvalsCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // likewise, runs the pipeline directly

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runEvalsCmd)
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newIndexCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	if flagURL == "http://localhost:8080" {
		if v := os.Getenv("SEARCHCTL_URL"); v != "" {
			flagURL = v
		}
	}

	if flagKey == "" {
		flagKey = os.Getenv("SEARCHCTL_API_KEY")
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
