package paxossim

const (
	// SimulatorVersion is reported in the startup log line, same spirit
	// as the teacher's ServerVersion.
	SimulatorVersion = "dev"

	// EventDelayMin and EventDelayMax bound the uniform random delay
	// applied to a scheduled-but-unticked event (spec §4.1 step 2,
	// §4.4 ACCEPTED retry, §9).
	EventDelayMin = 0
	EventDelayMax = 5

	// DefaultMetricsPort mirrors the teacher's DefaultPrometheusPort
	// convention (cmd/goshawkdb/main.go's -prometheusPort flag); 0
	// disables the HTTP metrics server entirely.
	DefaultMetricsPort = 0
)
