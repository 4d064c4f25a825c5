package commands

import (
	"os"

	"rangedesk-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rangesCmd)
}

var rangesCmd = &cobra.Command{
	Use:   "ranges <client external id>",
	Short: "Lists the ranges of a client with their availability.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ranges, err := service().ListRanges(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("list ranges", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Range", "Total", "Free", "Allocated", "Allocatable"})

		for _, r := range ranges {
			t.AppendRow(table.Row{r.Label, r.Total, r.Free, r.Allocated, r.IsAllocatable})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
