package cli

import (
	"errors"
	"fmt"

	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify home directory, database, and review profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())

			var problems []string

			if err := store.EnsureSchema(home); err != nil {
				problems = append(problems, fmt.Sprintf("database: %v", err))
			}

			profiles, err := config.LoadProfiles(home)
			if err != nil {
				problems = append(problems, fmt.Sprintf("profiles: %v", err))
			} else if len(profiles.Leads()) == 0 {
				problems = append(problems, "profiles: no team leads configured")
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok (home %s, %d team leads)\n", home, len(profiles.Leads()))
			return nil
		},
	}
	return cmd
}
