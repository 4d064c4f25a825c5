package commands

import (
	"os"
	"time"

	"rangedesk-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().Int("limit", 50, "Maximum number of attempts to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Shows the most recent allocation attempts, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		history, err := service().RecentHistory(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("recent history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Time", "Client", "Range", "Qty", "Outcome", "Batch"})

		for _, a := range history {
			t.AppendRow(table.Row{
				a.Id,
				a.CreatedAt.Format(time.DateTime),
				a.ClientExternalId,
				a.RangeToken,
				a.Quantity,
				a.Outcome,
				a.BatchId,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
