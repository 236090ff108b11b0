package cli

import (
	"fmt"

	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo bots, tasks, and recommendations into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			db, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := db.SeedDemo(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Demo data loaded")
			return nil
		},
	}
	return cmd
}
