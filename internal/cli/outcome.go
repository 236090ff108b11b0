package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/daemon"
	"github.com/overseerhq/overseer/internal/learning"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/client"
	"github.com/overseerhq/overseer/pkg/models"
	"github.com/spf13/cobra"
)

func newOutcomeCmd() *cobra.Command {
	var (
		succeeded      bool
		varianceBefore float64
		varianceAfter  float64
	)

	cmd := &cobra.Command{
		Use:   "outcome <amendment-id>",
		Short: "Record an amendment's evaluation outcome for learning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			amendmentID := args[0]

			// Route through the daemon when it is up so the SSE feed and
			// metrics see the outcome; otherwise write to the store directly.
			if st, err := daemon.Status(cmd.Context(), home); err == nil && st.Running && st.Addr != "" {
				c := client.New("http://"+st.Addr, os.Getenv("OVERSEER_API_KEY"))
				if err := c.RecordOutcome(cmd.Context(), models.OutcomeRequest{
					AmendmentID:    amendmentID,
					Succeeded:      succeeded,
					VarianceBefore: varianceBefore,
					VarianceAfter:  varianceAfter,
				}); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Outcome recorded (via daemon)")
				return nil
			}

			db, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ledger := &learning.Ledger{Store: db}
			if err := ledger.RecordOutcome(cmd.Context(), amendmentID, succeeded, varianceBefore, varianceAfter, time.Now()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Outcome recorded")
			return nil
		},
	}

	cmd.Flags().BoolVar(&succeeded, "succeeded", false, "Whether the amendment improved the subordinate")
	cmd.Flags().Float64Var(&varianceBefore, "variance-before", 0, "Performance variance before the amendment")
	cmd.Flags().Float64Var(&varianceAfter, "variance-after", 0, "Performance variance after the amendment")

	return cmd
}
