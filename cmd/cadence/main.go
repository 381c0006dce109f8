package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/cadence/cmd/cadence/commands"
	"github.com/teranos/cadence/config"
	"github.com/teranos/cadence/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "cadence - polling trigger scheduler",
	Long: `cadence drives a dynamic catalog of flows, evaluating each polling
trigger at a fixed rate and emitting executions onto an outbound queue
when a trigger fires.

Examples:
  cadence start                # run the scheduler daemon in the foreground
  cadence trigger ls           # list known trigger records
  cadence trigger show ns f1 t1  # show a single trigger's last record
  cadence db migrate           # apply pending schema migrations`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg, err := config.Load(); err == nil {
			logger.SetTheme(cfg.Log.Theme)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		return logger.InitializeVerbose(jsonOutput, verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON logs instead of human-readable output")
	rootCmd.PersistentFlags().String("config", "", "path to a cadence.toml config file")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")

	rootCmd.AddCommand(commands.StartCmd)
	rootCmd.AddCommand(commands.TriggerCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
