package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/store"
)

func newDBCmd(a *app) *cobra.Command {
	var (
		algo   string
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the solved-position database",
	}
	cmd.PersistentFlags().StringVar(&algo, "algo", "dfs", "database: dfs or dfpn")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count stored states per stone count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			geo, err := board.NewGeometry(width, height)
			if err != nil {
				return err
			}
			db, err := a.openDB(algo, geo)
			if err != nil {
				return err
			}
			defer db.Close()

			counts, err := db.CountByStones()
			if err != nil {
				return fmt.Errorf("count states: %w", err)
			}
			out := cmd.OutOrStdout()
			settings := db.Settings()
			fmt.Fprintf(out, "%s %dx%d, max stones %d, transposition stones %d\n",
				styles.title.Render(algo+" database"), settings.Width, settings.Height,
				settings.MaxStones, settings.TransStones)
			keys := make([]int, 0, len(counts))
			total := 0
			for k, n := range counts {
				keys = append(keys, k)
				total += n
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %3d stones: %s\n", k, humanize.Comma(int64(counts[k])))
			}
			fmt.Fprintf(out, "  total: %s\n", humanize.Comma(int64(total)))
			return nil
		},
	}
	stats.Flags().IntVar(&width, "width", 7, "board width")
	stats.Flags().IntVar(&height, "height", 7, "board height")

	get := &cobra.Command{
		Use:   "get <position>",
		Short: "Show the stored record of a position",
		Args:  cobra.RangeArgs(1, 2),
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

			settings := a.cfg.Store.Settings(pos.Geometry().Width(), pos.Geometry().Height())
			out := cmd.OutOrStdout()
			switch algo {
			case "dfpn":
				rec, ok, err := store.NewDFPNPositions(nil, db, settings).Lookup(pos)
				if err != nil || !ok {
					return notStored(pos, err)
				}
				fmt.Fprintf(out, "bounds %s, best %s, work %s\n", rec.Bounds, rec.BestMove,
					humanize.Comma(int64(rec.Work)))
				fmt.Fprintf(out, "children %s\n", board.FormatCells(rec.Children))
			default:
				rec, ok, err := store.NewDFSPositions(nil, db, settings).Lookup(pos)
				if err != nil || !ok {
					return notStored(pos, err)
				}
				verdict := "loss"
				if rec.Win {
					verdict = "win"
				}
				fmt.Fprintf(out, "%s for %s in %d moves, best %s, %s states\n", verdict, pos.ToPlay(),
					rec.NumMoves, rec.BestMove, humanize.Comma(int64(rec.NumStates)))
			}
			return nil
		},
	}

	cmd.AddCommand(stats, get)
	return cmd
}

func notStored(pos *board.Position, err error) error {
	if err != nil {
		return fmt.Errorf("lookup %s: %w", pos.Notation(), err)
	}
	return fmt.Errorf("%s is not stored", pos.Notation())
}
