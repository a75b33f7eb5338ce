// Package config loads the hexsolver settings file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hailam/hexsolver/internal/solver"
	"github.com/hailam/hexsolver/internal/store"
)

// FileName is the settings file looked up in the working directory.
const FileName = "hexsolver.yaml"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every setting of the solver binaries.
type Config struct {
	Solver SolverConfig `yaml:"solver"`
	DFPN   DFPNConfig   `yaml:"dfpn"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Batch  BatchConfig  `yaml:"batch"`
}

// SolverConfig configures the DFS solver.
type SolverConfig struct {
	UseDecompositions bool `yaml:"use_decompositions"`
	ShrinkProofs      bool `yaml:"shrink_proofs"`
	BackupIce         bool `yaml:"backup_ice"`
	// MoveOrdering lists heuristics: mustplay, resist, center.
	MoveOrdering []string `yaml:"move_ordering"`
}

// DFPNConfig configures the proof-number solver.
type DFPNConfig struct {
	WideningBase     int     `yaml:"widening_base"`
	WideningFactor   float64 `yaml:"widening_factor"`
	Epsilon          float64 `yaml:"epsilon"`
	BoundsCorrection bool    `yaml:"bounds_correction"`
	TableBits        int     `yaml:"table_bits"`
}

// StoreConfig configures the solved-position store.
type StoreConfig struct {
	// Path is the database directory. Empty means the per-user data dir.
	Path              string `yaml:"path"`
	InMemory          bool   `yaml:"in_memory"`
	MaxStones         int    `yaml:"max_stones"`
	TransStones       int    `yaml:"trans_stones"`
	TableBits         int    `yaml:"table_bits"`
	SyncWrites        bool   `yaml:"sync_writes"`
	MaxTranspositions int    `yaml:"max_transpositions"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BatchConfig configures the worker pool.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			UseDecompositions: true,
			ShrinkProofs:      true,
			BackupIce:         false,
			MoveOrdering:      []string{"mustplay", "resist"},
		},
		DFPN: DFPNConfig{
			WideningBase:   1,
			WideningFactor: 0.25,
			TableBits:      20,
		},
		Store: StoreConfig{
			MaxStones:         64,
			TransStones:       8,
			TableBits:         20,
			MaxTranspositions: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; an
// empty path tries FileName. HEXSOLVER_DB_PATH and HEXSOLVER_LOG_LEVEL
// override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv("HEXSOLVER_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("HEXSOLVER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := c.Solver.Ordering(); err != nil {
		errs = append(errs, err)
	}
	if c.DFPN.WideningBase < 1 {
		bad("dfpn.widening_base must be at least 1, got %d", c.DFPN.WideningBase)
	}
	if c.DFPN.WideningFactor <= 0 || c.DFPN.WideningFactor > 1 {
		bad("dfpn.widening_factor must be in (0, 1], got %g", c.DFPN.WideningFactor)
	}
	if c.DFPN.Epsilon < 0 {
		bad("dfpn.epsilon must not be negative, got %g", c.DFPN.Epsilon)
	}
	if c.DFPN.TableBits < 4 || c.DFPN.TableBits > 30 {
		bad("dfpn.table_bits must be in [4, 30], got %d", c.DFPN.TableBits)
	}
	if c.Store.TableBits < 4 || c.Store.TableBits > 30 {
		bad("store.table_bits must be in [4, 30], got %d", c.Store.TableBits)
	}
	if c.Store.MaxStones < 0 || c.Store.TransStones < 0 {
		bad("store stone limits must not be negative")
	}
	if c.Store.TransStones > c.Store.MaxStones {
		bad("store.trans_stones (%d) exceeds store.max_stones (%d)", c.Store.TransStones, c.Store.MaxStones)
	}
	if c.Store.MaxTranspositions < 0 {
		bad("store.max_transpositions must not be negative, got %d", c.Store.MaxTranspositions)
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		bad("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Batch.Workers < 1 {
		bad("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return errors.Join(errs...)
}

// Ordering converts the move_ordering names to solver flags.
func (s SolverConfig) Ordering() (solver.OrderFlags, error) {
	var flags solver.OrderFlags
	for _, name := range s.MoveOrdering {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "mustplay":
			flags |= solver.WithMustplay
		case "resist":
			flags |= solver.WithResist
		case "center":
			flags |= solver.FromCenter
		default:
			return 0, fmt.Errorf("%w: unknown move ordering %q", ErrInvalidConfig, name)
		}
	}
	return flags, nil
}

// DFSOptions returns the DFS solver options.
func (c Config) DFSOptions(logger *slog.Logger) solver.DFSOptions {
	ordering, _ := c.Solver.Ordering()
	return solver.DFSOptions{
		UseDecompositions: c.Solver.UseDecompositions,
		ShrinkProofs:      c.Solver.ShrinkProofs,
		BackupIce:         c.Solver.BackupIce,
		Ordering:          ordering,
		MaxTranspositions: c.Store.MaxTranspositions,
		Logger:            logger,
	}
}

// DFPNOptions returns the DFPN solver options.
func (c Config) DFPNOptions(logger *slog.Logger) solver.DFPNOptions {
	return solver.DFPNOptions{
		WideningBase:     c.DFPN.WideningBase,
		WideningFactor:   c.DFPN.WideningFactor,
		Epsilon:          c.DFPN.Epsilon,
		BoundsCorrection: c.DFPN.BoundsCorrection,
		Logger:           logger,
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, l.Level)
	}
	return level, nil
}

// NewLogger builds the configured handler writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DBConfig returns the badger settings for kind ("dfs" or "dfpn") on a
// width x height board.
func (s StoreConfig) DBConfig(kind string, width, height int, logger *slog.Logger) (store.Config, error) {
	if s.InMemory {
		cfg := store.InMemoryConfig()
		cfg.Logger = logger
		return cfg, nil
	}
	path := s.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(kind, width, height); err != nil {
			return store.Config{}, fmt.Errorf("resolve database path: %w", err)
		}
	} else {
		path = filepath.Join(path, fmt.Sprintf("%s-%dx%d", kind, width, height))
	}
	return store.Config{
		Path:           path,
		SyncWrites:     s.SyncWrites,
		Logger:         logger,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}, nil
}

// Settings returns the store settings recorded in a database header.
func (s StoreConfig) Settings(width, height int) store.Settings {
	return store.Settings{
		Width:       width,
		Height:      height,
		MaxStones:   s.MaxStones,
		TransStones: s.TransStones,
	}
}
