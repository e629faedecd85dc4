package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexisearch/lexisearch/internal/models"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the document index",
	}

	cmd.AddCommand(newIndexUpsertCmd())
	cmd.AddCommand(newIndexDeleteCmd())

	return cmd
}

func newIndexUpsertCmd() *cobra.Command {
	var docsPath string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Upsert documents from a JSON file (array of documents, \"-\" for stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(docsPath)
			if err != nil {
				return fmt.Errorf("reading documents: %w", err)
			}

			var docs []models.Document
			if err := json.Unmarshal(data, &docs); err != nil {
				return fmt.Errorf("parsing documents: %w", err)
			}

			resp, err := apiClient.Index.Upsert(context.Background(), docs)
			if err != nil {
				fatal("index upsert", err)
			}

			formatJSON(resp)

			return nil
		},
	}
	cmd.Flags().StringVar(&docsPath, "file", "-", "Path to a JSON file of documents (\"-\" for stdin)")

	return cmd
}

func newIndexDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete documents by ID",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Index.Delete(context.Background(), args); err != nil {
				fatal("index delete", err)
			}

			formatQuiet(fmt.Sprintf("deleted %d document(s)", len(args)))
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(path)
}
