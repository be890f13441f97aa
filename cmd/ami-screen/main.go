/*
ami-screen runs a single active-learning screening pass over a candidate
catalogue: a cheap ranker keeps re-prioritizing what's left unknown while a
bounded pool of workers drives the expensive truth calculation to ground,
persisting every result to an append-only sink as it lands. Wire your own
Calculator against a real simulation backend and your own FeatureStore
against a real descriptor/fingerprint table; this binary's defaults
(EchoCalculator, IndexFeatureStore) exist so the whole pipeline is runnable
standalone, against nothing but a candidate list of numbers.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/bundaberg-joey/amiscreen/calculator"
	"github.com/bundaberg-joey/amiscreen/config"
	"github.com/bundaberg-joey/amiscreen/dashboard"
	"github.com/bundaberg-joey/amiscreen/datamanager"
	"github.com/bundaberg-joey/amiscreen/factory"
	"github.com/bundaberg-joey/amiscreen/ranker"
)

// dashboardResolution is how often the dashboard polls the state machine
// for a fresh progress snapshot.
const dashboardResolution = 200 * time.Millisecond

var (
	configPath    *string
	candidatePath *string
	outPath       *string
	ncpus         *int
	quota         *int
	threshold     *int
	rankerName    *string
	dashboardAddr *string
)

// TODO: per 12-factor rules these should come from env/flags uniformly; KISS for now.
func init() {
	configPath = flag.String("config", "", "path to a run config yaml (optional; flags below override its fields)")
	candidatePath = flag.String("candidates", "", "path to the candidate list (one float64 per line)")
	outPath = flag.String("out", "", "path to the result sink file")
	ncpus = flag.Int("ncpus", runtime.NumCPU(), "worker pool size")
	quota = flag.Int("quota", 0, "number of truth calculations to run (0 = exhaust the candidate list)")
	threshold = flag.Int("threshold", 10, "dirty-result count that triggers a re-ranking")
	rankerName = flag.String("ranker", "random", "bundled ranker to use: random, greedy, or ei")
	dashboardAddr = flag.String("dashboard-addr", "", "if set, serve a live progress dashboard at this address")
	flag.Parse()
}

func loadConfig() (*config.RunConfig, error) {
	cfg := &config.RunConfig{
		PoolSize:          *ncpus,
		TruthQuota:        *quota,
		DirtyThreshold:    *threshold,
		CandidateListPath: *candidatePath,
		ResultSinkPath:    *outPath,
		Ranker:            *rankerName,
	}
	if *configPath == "" {
		return cfg, nil
	}

	fileCfg, err := config.LoadRunConfig(*configPath)
	if err != nil {
		return nil, err
	}

	// Flags explicitly set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ncpus":
			fileCfg.PoolSize = *ncpus
		case "quota":
			fileCfg.TruthQuota = *quota
		case "threshold":
			fileCfg.DirtyThreshold = *threshold
		case "candidates":
			fileCfg.CandidateListPath = *candidatePath
		case "out":
			fileCfg.ResultSinkPath = *outPath
		case "ranker":
			fileCfg.Ranker = *rankerName
		}
	})
	return fileCfg, nil
}

func runApp() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading run config: %w", err)
	}
	if cfg.CandidateListPath == "" {
		return fmt.Errorf("no candidate list given: set -candidates or config.candidateListPath")
	}
	if cfg.ResultSinkPath == "" {
		return fmt.Errorf("no result sink given: set -out or config.resultSinkPath")
	}

	calc := calculator.NewEchoCalculator()

	truth, err := datamanager.NewFloatListTruthProvider(cfg.CandidateListPath, "index", calc.Schema())
	if err != nil {
		return fmt.Errorf("loading candidate list: %w", err)
	}

	features := datamanager.NewIndexFeatureStore(truth.Len())
	sink, err := datamanager.NewCSVResultSink(cfg.ResultSinkPath)
	if err != nil {
		return fmt.Errorf("opening result sink: %w", err)
	}

	dm, err := datamanager.New(truth, features, sink)
	if err != nil {
		sink.Close()
		return fmt.Errorf("constructing data manager: %w", err)
	}
	defer func() {
		if err := dm.Close(); err != nil {
			fmt.Println("closing result sink:", err)
		}
	}()

	registry := ranker.NewRegistry()
	initialRanker, err := registry.Build(cfg.Ranker)
	if err != nil {
		return fmt.Errorf("building initial ranker: %w", err)
	}
	activeRanker, err := registry.Build(cfg.Ranker)
	if err != nil {
		return fmt.Errorf("building active ranker: %w", err)
	}

	run, err := factory.New().
		SetDataManager(dm).
		SetCalculator(calc).
		SetInitialRanker(initialRanker).
		SetActiveRanker(activeRanker).
		SetPoolSize(cfg.PoolSize).
		SetDirtyThreshold(cfg.DirtyThreshold).
		SetFeatureSchema(features.Schema()).
		SetTargetSchema(calc.Schema()).
		Build()
	if err != nil {
		return fmt.Errorf("wiring runner: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *dashboardAddr != "" {
		sm := dm.StateMachine()
		srv, err := dashboard.NewServer(ctx, *dashboardAddr, dashboard.Convert(sm), dashboard.Snapshot(ctx, sm, dashboardResolution))
		if err != nil {
			return fmt.Errorf("building dashboard: %w", err)
		}
		go func() {
			if err := srv.Serve(); err != nil {
				fmt.Println("dashboard:", err)
			}
		}()
	}

	counter := cfg.TruthQuota
	if counter <= 0 {
		counter = truth.Len()
	}
	return run.Run(ctx, counter)
}

func main() {
	if err := runApp(); err != nil {
		fmt.Println(err)
	}
}
