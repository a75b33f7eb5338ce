package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/htp"
)

func newHTPCmd(a *app) *cobra.Command {
	var (
		size   int
		limits limitFlags
	)
	cmd := &cobra.Command{
		Use:   "htp",
		Short: "Speak the Hex text protocol on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			geo, err := board.NewGeometry(size, size)
			if err != nil {
				return err
			}
			// Hashes include the board size, so boardsize may change while
			// the databases of the starting size stay open.
			dfsDB, err := a.openDB("dfs", geo)
			if err != nil {
				return err
			}
			defer dfsDB.Close()
			dfpnDB, err := a.openDB("dfpn", geo)
			if err != nil {
				return err
			}
			defer dfpnDB.Close()

			dfs, err := a.newSolver("dfs", dfsDB, geo)
			if err != nil {
				return err
			}
			dfpn, err := a.newSolver("dfpn", dfpnDB, geo)
			if err != nil {
				return err
			}

			if cmd.InOrStdin() == os.Stdin && interactive() {
				fmt.Fprintln(cmd.ErrOrStderr(), styles.muted.Render(
					"hexsolver on "+strconv.Itoa(size)+"x"+strconv.Itoa(size)+", type list_commands for help"))
			}
			return htp.New(geo, dfs, dfpn, limits.limits(), a.logger).Run(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&size, "size", 7, "initial board size")
	limits.register(cmd)
	return cmd
}
