package daemon

// StartOptions configures the daemon (home, port, scheduler cadence, DB, metrics).
type StartOptions struct {
	Home        string
	Port        int
	IntervalSec float64 // how often the scheduler checks for due review cycles
	PprofAddr   string
	DBDriver    string // "sqlite" (default) or "postgres"
	DBURL       string // for postgres: connection string (or DATABASE_URL env)
	EnableOtel  bool   // enable OpenTelemetry metrics (Prometheus exporter + HTTP instrumentation)
	Seed        bool   // load demo data on startup
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
