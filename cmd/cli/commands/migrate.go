package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := app.Database.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Applied %d migrations\n\n", len(applied))
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
