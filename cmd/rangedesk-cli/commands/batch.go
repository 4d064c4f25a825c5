package commands

import (
	"os"

	"rangedesk-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <path/to/rows.csv>",
	Short: "Runs every row of a CSV through the allocation flow.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("open csv", err)
		}
		defer file.Close()

		results, err := service().AllocateBatch(cmd.Context(), file)
		if err != nil {
			serviceutil.Fatal("batch allocate", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Client", "Range", "Qty", "Outcome", "Message"})

		for _, r := range results {
			t.AppendRow(table.Row{r.ClientExternalId, r.RangeToken, r.Quantity, r.Outcome, r.Message})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
