// Command hexsolve proves Hex positions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.err.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &app{}
	root := &cobra.Command{
		Use:   "hexsolve",
		Short: "Prove Hex positions with DFS or proof-number search",
		Long: `hexsolve solves Hex positions exactly. A position is written row by
row, top to bottom, with B and W for stones and digits for runs of empty
cells, followed by the side to move: "3/1B1/3 w".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
		PersistentPostRun: func(*cobra.Command, []string) { app.teardown() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "settings file (default ./hexsolver.yaml)")
	flags.StringVar(&app.logLevel, "log-level", "", "override log.level")
	flags.StringVar(&app.dbPath, "db", "", "override store.path")
	flags.BoolVar(&app.inMemory, "in-memory", false, "keep the database in memory")
	flags.StringVar(&app.cpuProfile, "cpuprofile", "", "write a CPU profile to file")
	flags.StringVar(&app.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newSolveCmd(app), newBatchCmd(app), newDBCmd(app), newHTPCmd(app))
	return root
}
