package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lexisearch/lexisearch/internal/evaluator"
	"github.com/lexisearch/lexisearch/internal/models"
)

func newRunEvalsCmd() *cobra.Command {
	var goldPath string

	cmd := &cobra.Command{
		Use:   "run-evals",
		Short: "Run the gold-query evaluation suite against the live pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvals(goldPath)
		},
	}
	cmd.Flags().StringVar(&goldPath, "gold", "eval/gold.yaml", "Path to the gold-query YAML file")

	return cmd
}

func runEvals(goldPath string) error {
	data, err := os.ReadFile(goldPath)
	if err != nil {
		return fmt.Errorf("reading gold queries: %w", err)
	}

	var goldQueries []models.GoldQuery
	if err := yaml.Unmarshal(data, &goldQueries); err != nil {
		return fmt.Errorf("parsing gold queries: %w", err)
	}

	ctx := context.Background()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.pool.Close()

	ev := evaluator.New(c.search, c.log, nil)

	summary, evalErr := ev.Evaluate(ctx, goldQueries)
	if evalErr != nil {
		c.log.WithError(evalErr).Warn("one or more gold queries failed")
	}

	if flagFmt == "table" {
		printEvalTable(summary)
	} else {
		formatJSON(summary)
	}

	if evalErr != nil || !summary.Passed {
		os.Exit(1)
	}

	return nil
}

func printEvalTable(summary models.EvalSummary) {
	headers := []string{"QUERY", "PRECISION", "RECALL", "NDCG", "LOCALIZATION", "LATENCY_MS", "DEGRADED"}

	rows := make([][]string, 0, len(summary.Queries))
	for _, qm := range summary.Queries {
		rows = append(rows, []string{
			qm.Query,
			fmt.Sprintf("%.3f", qm.Precision),
			fmt.Sprintf("%.3f", qm.Recall),
			fmt.Sprintf("%.3f", qm.NDCG),
			fmt.Sprintf("%.2f", qm.LocalizationAccuracy),
			fmt.Sprintf("%.1f", qm.LatencyMs),
			fmt.Sprintf("%v", qm.Degraded),
		})
	}

	formatTable(headers, rows)

	fmt.Printf("\naverage_precision=%.3f average_recall=%.3f average_ndcg=%.3f localization_accuracy=%.3f latency_p95_ms=%.1f passed=%v\n",
		summary.AveragePrecision, summary.AverageRecall, summary.AverageNDCG, summary.LocalizationAccuracy, summary.LatencyP95Ms, summary.Passed)
}
