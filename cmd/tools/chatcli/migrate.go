package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radoslav1992/ai-help-center/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back database migrations from DATABASE_* settings",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, driver, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			var n int
			if args[0] == "up" {
				n, err = repository.Migrate(db, driver)
			} else {
				n, err = repository.Rollback(db, driver, steps)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("%s: %d migration(s) on %s", args[0], n, driver)))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "migrations to roll back (0 means all)")
	return cmd
}
