package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "sweep deletes expired refresh tokens once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.engine.SweepExpiredRefreshTokens(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired refresh tokens\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
