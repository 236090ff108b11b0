package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/insight"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var showInsights bool

	cmd := &cobra.Command{
		Use:   "report <bot-role>",
		Short: "Print a knowledge bot's performance report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			botRole := args[0]

			db, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			miner := &insight.Miner{Store: db}
			report, err := miner.BotMetrics(cmd.Context(), botRole, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Bot: %s\n", report.BotRole)
			_, _ = fmt.Fprintf(out, "  generated %d, selected %d, succeeded %d, failed %d\n",
				report.Generated, report.Selected, report.Succeeded, report.Failed)
			_, _ = fmt.Fprintf(out, "  selection rate %.0f%%, success rate %.0f%%, trend %s\n",
				report.SelectionRate*100, report.SuccessRate*100, report.Trend)
			if report.HighestImpactPattern != "" {
				_, _ = fmt.Fprintf(out, "  highest impact pattern: %s\n", report.HighestImpactPattern)
			}
			if report.LowestSuccessPattern != "" {
				_, _ = fmt.Fprintf(out, "  lowest success pattern: %s\n", report.LowestSuccessPattern)
			}
			_, _ = fmt.Fprintf(out, "  cross-subordinate patterns: %d\n", report.CrossSubordinateCount)

			if !showInsights {
				return nil
			}

			insights, err := miner.CrossSubordinateInsights(cmd.Context(), botRole)
			if err != nil {
				return err
			}
			if len(insights) == 0 {
				_, _ = fmt.Fprintln(out, "No cross-subordinate insights yet")
				return nil
			}
			_, _ = fmt.Fprintln(out, "Cross-subordinate insights:")
			for _, in := range insights {
				_, _ = fmt.Fprintf(out, "  %s: works for %s (%d successes, impact %.2f, confidence %.0f%%)\n",
					in.TargetingPattern, strings.Join(in.Subordinates, ", "),
					in.SuccessCount, in.WeightedImpact, in.ConfidenceScore*100)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showInsights, "insights", false, "Include cross-subordinate insights")
	return cmd
}
