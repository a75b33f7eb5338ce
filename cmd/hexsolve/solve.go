package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/render"
	"github.com/hailam/hexsolver/internal/solver"
)

func newSolveCmd(a *app) *cobra.Command {
	var (
		algo    string
		pngPath string
		limits  limitFlags
	)
	cmd := &cobra.Command{
		Use:   "solve <position>",
		Short: "Solve one position",
		Example: `  hexsolve solve "4/4/4/4 b"
  hexsolve solve --algo dfpn --time 30s "3/1B1/3 w"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := board.ParsePosition(strings.Join(args, " "))
			if err != nil {
				return err
			}
			db, err := a.openDB(algo, pos.Geometry())
			if err != nil {
				return err
			}
			defer db.Close()

			s, err := a.newSolver(algo, db, pos.Geometry())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := s.Solve(ctx, pos, limits.limits())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), pos, res)

			if pngPath != "" && res.Solved() {
				if err := writePNG(pngPath, pos, res); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), styles.muted.Render("proof image written to "+pngPath))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&algo, "algo", "dfs", "solver: dfs or dfpn")
	cmd.Flags().StringVar(&pngPath, "png", "", "write the board and proof to this PNG file")
	limits.register(cmd)
	return cmd
}

func printResult(w io.Writer, pos *board.Position, res solver.Result) {
	if !res.Solved() {
		fmt.Fprintf(w, "%s after %s\n", styles.loss.Render("unknown"), res.Duration.Round(time.Millisecond))
		fmt.Fprint(w, styles.muted.Render(res.Stats.Summary()))
		fmt.Fprintln(w)
		return
	}
	verdict := fmt.Sprintf("%s wins", res.Winner)
	style := styles.win
	if res.Outcome == solver.Loss {
		style = styles.loss
	}
	fmt.Fprintf(w, "%s (%s to move %s) in %s\n", style.Render(verdict), pos.ToPlay(),
		res.Outcome, res.Duration.Round(time.Millisecond))
	if len(res.PV) > 0 {
		fmt.Fprintf(w, "%s %s\n", styles.title.Render("pv:"), board.FormatCells(res.PV))
	}
	fmt.Fprintf(w, "%s %d\n", styles.title.Render("moves to connection:"), res.MovesToConnection)
	if res.Proof.Any() {
		fmt.Fprintf(w, "%s %s\n", styles.title.Render("proof:"), board.FormatCells(res.Proof.Cells()))
		fmt.Fprint(w, pos.Format(res.Proof.AndNot(pos.Occupied()), '*'))
	}
	fmt.Fprint(w, styles.muted.Render(res.Stats.Summary()))
	fmt.Fprintln(w)
}

func writePNG(path string, pos *board.Position, res solver.Result) error {
	opts := render.DefaultOptions()
	opts.Proof = res.Proof
	if len(res.PV) > 0 {
		opts.Mark = res.PV[0]
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render.PNG(f, pos, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
