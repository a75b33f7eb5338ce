package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hailam/hexsolver/internal/batch"
	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/solver"
	"github.com/hailam/hexsolver/internal/store"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		algo    string
		workers int
		limits  limitFlags
	)
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Solve one position per line of a file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			positions, err := batch.ReadPositions(in)
			if err != nil {
				return err
			}
			if len(positions) == 0 {
				return fmt.Errorf("no positions in %s", args[0])
			}

			// One database per board size, shared by the workers.
			geo := positions[0].Geometry()
			for _, pos := range positions[1:] {
				if pos.Geometry() != geo {
					return fmt.Errorf("batch positions must share one board size, found %dx%d and %dx%d",
						geo.Width(), geo.Height(), pos.Geometry().Width(), pos.Geometry().Height())
				}
			}
			db, err := a.openDB(algo, geo)
			if err != nil {
				return err
			}
			defer db.Close()

			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}
			factory := func(int) (solver.GameSolver, error) { return a.newSolver(algo, db, geo) }
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			outcomes, err := batch.New(workers, factory, limits.limits(), a.logger).Run(ctx, positions)
			printOutcomes(cmd.OutOrStdout(), outcomes, db)
			return err
		},
	}
	cmd.Flags().StringVar(&algo, "algo", "dfs", "solver: dfs or dfpn")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (default batch.workers)")
	limits.register(cmd)
	return cmd
}

func printOutcomes(w io.Writer, outcomes []batch.Outcome, db *store.DB) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tposition\twinner\tpv\tstates\ttime")
	var states uint64
	for _, out := range outcomes {
		res := out.Result
		winner := "?"
		if res.Solved() {
			winner = res.Winner.String()
		}
		states += res.Stats.States
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", out.Job.Index+1, out.Job.Position.Notation(),
			winner, board.FormatCells(res.PV), humanize.Comma(int64(res.Stats.States)), res.Duration.Round(time.Millisecond))
	}
	tw.Flush()
	dbStats := db.Stats()
	fmt.Fprintln(w, styles.muted.Render(fmt.Sprintf("%s states, db %s reads / %s writes",
		humanize.Comma(int64(states)), humanize.Comma(int64(dbStats.Gets)), humanize.Comma(int64(dbStats.Writes)))))
}
