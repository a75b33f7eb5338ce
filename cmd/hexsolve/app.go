package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/config"
	"github.com/hailam/hexsolver/internal/solver"
	"github.com/hailam/hexsolver/internal/store"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath  string
	logLevel    string
	dbPath      string
	inMemory    bool
	cpuProfile  string
	metricsAddr string

	cfg         config.Config
	logger      *slog.Logger
	profileFile *os.File
	metrics     *http.Server
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.dbPath != "" {
		cfg.Store.Path = a.dbPath
	}
	if a.inMemory {
		cfg.Store.InMemory = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(a.logger)

	profilePath := a.cpuProfile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("start CPU profile: %w", err)
		}
		a.profileFile = f
		a.logger.Info("CPU profiling enabled", "path", profilePath)
	}

	if a.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metrics = &http.Server{Addr: a.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		a.logger.Info("serving metrics", "addr", a.metricsAddr)
	}
	return nil
}

func (a *app) teardown() {
	if a.profileFile != nil {
		pprof.StopCPUProfile()
		a.profileFile.Close()
		a.profileFile = nil
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.metrics.Shutdown(ctx)
		a.metrics = nil
	}
}

// openDB opens the database of one solver kind for a board size.
func (a *app) openDB(kind string, geo *board.Geometry) (*store.DB, error) {
	dbCfg, err := a.cfg.Store.DBConfig(kind, geo.Width(), geo.Height(), a.logger)
	if err != nil {
		return nil, err
	}
	version := store.DFSVersion
	if kind == "dfpn" {
		version = store.DFPNVersion
	}
	db, err := store.OpenDB(dbCfg, a.cfg.Store.Settings(geo.Width(), geo.Height()), version)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", kind, err)
	}
	return db, nil
}

// newSolver builds a solver of the given kind with its own table.
func (a *app) newSolver(kind string, db *store.DB, geo *board.Geometry) (solver.GameSolver, error) {
	settings := a.cfg.Store.Settings(geo.Width(), geo.Height())
	switch kind {
	case "dfs":
		table := store.NewTable[store.DFSRecord](uint(a.cfg.Store.TableBits))
		return solver.NewDFS(store.NewDFSPositions(table, db, settings), nil, a.cfg.DFSOptions(a.logger)), nil
	case "dfpn":
		table := store.NewTable[store.DFPNRecord](uint(a.cfg.DFPN.TableBits))
		return solver.NewDFPN(store.NewDFPNPositions(table, db, settings), nil, a.cfg.DFPNOptions(a.logger)), nil
	}
	return nil, fmt.Errorf("unknown algorithm %q (want dfs or dfpn)", kind)
}

// limitFlags are the per-solve limits shared by solve and batch.
type limitFlags struct {
	timeLimit time.Duration
	depth     int
}

func (l *limitFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&l.timeLimit, "time", 0, "time limit per position, 0 for none")
	cmd.Flags().IntVar(&l.depth, "depth", 0, "depth limit, 0 for none")
}

func (l limitFlags) limits() solver.Limits {
	return solver.Limits{Time: l.timeLimit, Depth: l.depth}
}
