package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/review"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/spf13/cobra"
)

func newReviewCmd() *cobra.Command {
	var leadRole string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run a review cycle for one or all team leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			profiles, err := config.LoadProfiles(home)
			if err != nil {
				return err
			}

			leads := profiles.Leads()
			if leadRole != "" {
				lead, ok := profiles.Lead(leadRole)
				if !ok {
					return fmt.Errorf("unknown team lead %q", leadRole)
				}
				leads = []config.TeamLeadProfile{lead}
			}

			ctl := review.NewController(st)
			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "LEAD\tSUBORDINATE\tSTATUS\tCOS\tTREND\tDETAIL")
			for _, lead := range leads {
				records, err := ctl.RunCycle(cmd.Context(), lead, now)
				if err != nil {
					return fmt.Errorf("review cycle for %s: %w", lead.Role, err)
				}
				for _, rec := range records {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
						rec.LeadRole, rec.SubordinateRole, rec.Status, rec.CosScore, rec.TrendDirection, rec.Detail)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&leadRole, "lead", "", "Run only this team lead's cycle (default: all)")
	return cmd
}
