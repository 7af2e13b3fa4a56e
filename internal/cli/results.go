package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"quiz-player/internal/config"
)

// NewResultsCmd lists recently finished runs.
func NewResultsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the most recent quiz results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.close()
			return printResults(cmd.Context(), cmd.OutOrStdout(), b.resultStore(cfg), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of results to show")
	return cmd
}

func printResults(ctx context.Context, out io.Writer, store resultStore, limit int) error {
	summaries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "no results recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tPOLICY\tSCORE\tPERCENT\tPASSED\tRUN")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d%%\t%t\t%s\n",
			s.FinishedAt.Format(time.RFC3339), s.Policy, s.Score, s.Total, s.Percent, s.Passed, s.RunID)
	}
	return tw.Flush()
}
