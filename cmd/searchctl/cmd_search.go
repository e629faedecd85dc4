package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexisearch/lexisearch/client"
	"github.com/lexisearch/lexisearch/internal/models"
)

func newSearchCmd() *cobra.Command {
	var country string
	var k int
	var mustDomains []string
	var mustNotDomains []string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid lexical+semantic search",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			req := client.SearchRequest{
				Text:           args[0],
				Country:        country,
				MustDomains:    mustDomains,
				MustNotDomains: mustNotDomains,
			}
			if k > 0 {
				req.K = &k
			}

			resp, err := apiClient.Search.Search(ctx, req)
			if err != nil {
				fatal("search", err)
			}

			if flagFmt == "table" {
				printResultTable(resp.Results)
				return
			}

			formatJSON(resp)
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Country code to localize results to")
	cmd.Flags().IntVar(&k, "k", 0, "Max results (0 uses the server default)")
	cmd.Flags().StringSliceVar(&mustDomains, "must-domain", nil, "Restrict results to these domains")
	cmd.Flags().StringSliceVar(&mustNotDomains, "must-not-domain", nil, "Exclude results from these domains")

	return cmd
}

func printResultTable(results []models.FusedResult) {
	headers := []string{"ID", "SCORE", "RANK", "DOMAIN", "TITLE"}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.ID, fmt.Sprintf("%.4f", r.Score), fmt.Sprintf("%d", r.Rank), r.Domain, r.Title})
	}

	formatTable(headers, rows)
}
