package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cadence/trigger"
)

// TriggerCmd groups trigger record inspection subcommands.
var TriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Inspect trigger records",
}

var triggerLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all known trigger records",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openDatabase(cmd, "")
		if err != nil {
			return err
		}
		defer database.Close()

		store := trigger.NewSQLiteStore(database)
		records, err := store.ListAll(context.Background())
		if err != nil {
			return err
		}

		if len(records) == 0 {
			pterm.Info.Println("no trigger records yet")
			return nil
		}

		table := pterm.TableData{{"NAMESPACE", "FLOW", "TRIGGER", "REVISION", "DATE", "EXECUTION"}}
		for _, r := range records {
			execID := "-"
			if r.ExecutionID != nil {
				execID = *r.ExecutionID
			}
			table = append(table, []string{
				r.Namespace, r.FlowID, r.TriggerID,
				fmt.Sprintf("%d", r.FlowRevision),
				r.Date.Format("2006-01-02T15:04:05Z"),
				execID,
			})
		}

		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}

var triggerShowCmd = &cobra.Command{
	Use:   "show <namespace> <flow-id> <trigger-id>",
	Short: "Show a single trigger's last record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openDatabase(cmd, "")
		if err != nil {
			return err
		}
		defer database.Close()

		store := trigger.NewSQLiteStore(database)
		uid := trigger.UID{Namespace: args[0], FlowID: args[1], TriggerID: args[2]}

		record, err := store.FindLast(context.Background(), uid)
		if err != nil {
			return err
		}
		if record == nil {
			pterm.Warning.Printf("no record found for %s\n", uid.String())
			return nil
		}

		execID := "-"
		if record.ExecutionID != nil {
			execID = *record.ExecutionID
		}

		pterm.DefaultBulletList.WithItems([]pterm.BulletListItem{
			{Level: 0, Text: fmt.Sprintf("uid: %s", uid.String())},
			{Level: 0, Text: fmt.Sprintf("flow revision: %d", record.FlowRevision)},
			{Level: 0, Text: fmt.Sprintf("date: %s", record.Date.Format("2006-01-02T15:04:05Z"))},
			{Level: 0, Text: fmt.Sprintf("execution: %s", execID)},
		}).Render()

		return nil
	},
}

func init() {
	TriggerCmd.AddCommand(triggerLsCmd)
	TriggerCmd.AddCommand(triggerShowCmd)
}
