package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DbCmd groups database administration subcommands.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the cadence database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, cfg, err := openDatabase(cmd, "")
		if err != nil {
			return err
		}
		defer database.Close()

		fmt.Printf("Database migrated: %s\n", cfg.Database.Path)
		return nil
	},
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
}
