package cli

import (
	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/daemon"
	"github.com/spf13/cobra"
)

func newDaemonCmd() *cobra.Command {
	var (
		port        int
		intervalSec float64
		pprofAddr   string
		dbDriver    string
		dbURL       string
		enableOtel  bool
		seed        bool
	)

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			return daemon.StartForeground(cmd.Context(), daemon.StartOptions{
				Home:        home,
				Port:        port,
				IntervalSec: intervalSec,
				PprofAddr:   pprofAddr,
				DBDriver:    dbDriver,
				DBURL:       dbURL,
				EnableOtel:  enableOtel,
				Seed:        seed,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 7466, "Port for the HTTP API")
	cmd.Flags().Float64Var(&intervalSec, "interval", 60.0, "Scheduler poll interval (seconds)")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&dbDriver, "db-driver", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "DB connection string (for postgres)")
	cmd.Flags().BoolVar(&enableOtel, "otel", false, "Enable OpenTelemetry metrics")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load demo data on startup")

	return cmd
}
