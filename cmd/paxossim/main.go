// Command paxossim runs a single-decree Paxos discrete-event simulation
// from a YAML scenario file, the way cmd/goshawkdb/main.go boots a
// goshawkdb server from flags: parse, validate, fail fast on error,
// then hand off to the long-running value.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	paxossim "goshawkdb.io/paxossim"
	"goshawkdb.io/paxossim/configuration"
	"goshawkdb.io/paxossim/metrics"
	"goshawkdb.io/paxossim/scenario"
	"goshawkdb.io/paxossim/trace"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	var scenarioFile string
	var numProposers, numAcceptors, maxDuration, metricsPort int
	var seed int64
	var haveSeed, showReport, version bool

	flag.StringVar(&scenarioFile, "scenario", "", "`Path` to a YAML scenario file (required).")
	flag.IntVar(&numProposers, "proposers", 2, "Number of proposers in the cluster.")
	flag.IntVar(&numAcceptors, "acceptors", 3, "Number of acceptors in the cluster (must be 2f+1).")
	flag.IntVar(&maxDuration, "maxDuration", 90, "Maximum number of ticks to run.")
	flag.Int64Var(&seed, "seed", 0, "RNG seed for the unresolved-tick delay draw.")
	flag.BoolVar(&haveSeed, "seeded", false, "Treat -seed as an explicit seed instead of time-based.")
	flag.IntVar(&metricsPort, "metricsPort", paxossim.DefaultMetricsPort, "Port to serve Prometheus /metrics on (0 disables).")
	flag.BoolVar(&showReport, "report", false, "Dump every node's log after the run.")
	flag.BoolVar(&version, "version", false, "Display version and exit.")
	flag.Parse()

	if version {
		fmt.Println("paxossim version", paxossim.SimulatorVersion)
		return
	}

	if scenarioFile == "" {
		fmt.Println("\nmissing -scenario")
		flag.Usage()
		os.Exit(1)
	}

	events, err := scenario.Load(scenarioFile)
	if paxossim.CheckWarn(err, logger) {
		os.Exit(1)
	}

	cfg := configuration.ClusterConfig{
		NumProposers: numProposers,
		NumAcceptors: numAcceptors,
		MaxDuration:  maxDuration,
		Seed:         seed,
		HaveSeed:     haveSeed,
	}

	var collector *metrics.Collector
	if metricsPort != 0 {
		registry := prometheus.NewRegistry()
		collector = metrics.NewCollector(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			addr := fmt.Sprintf("localhost:%d", metricsPort)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Log("msg", "metrics server stopped", "error", err)
			}
		}()
	}

	sink := trace.NewTextSink(os.Stdout)
	sim, err := paxossim.New(cfg, events, sink, collector, logger)
	if err != nil {
		fmt.Printf("\n%v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger.Log("msg", "starting", "version", paxossim.SimulatorVersion, "config", cfg.String())
	sim.Run()
	if showReport {
		sim.Report()
	}
}
