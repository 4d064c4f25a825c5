package commands

import (
	"os"

	"rangedesk-backend/lib/serviceutil"
	"rangedesk-backend/lib/textutil"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var clientsFind *string

func init() {
	clientsFind = clientsCmd.Flags().String("find", "", "Fuzzy-match client names against this string.")
	rootCmd.AddCommand(clientsCmd)
}

const findSimilarityThreshold = 0.8

var clientsCmd = &cobra.Command{
	Use:   "clients [--find <name>]",
	Short: "Lists the clients visible to the configured account.",
	Run: func(cmd *cobra.Command, args []string) {
		clients, err := service().ListClients(cmd.Context())
		if err != nil {
			serviceutil.Fatal("list clients", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"External ID", "Name"})

		needle := textutil.NormalizeName(*clientsFind)
		for _, c := range clients {
			if needle != "" {
				similarity := matchr.JaroWinkler(needle, textutil.NormalizeName(c.Name), false)
				if similarity < findSimilarityThreshold {
					continue
				}
			}
			t.AppendRow(table.Row{c.ExternalId, c.Name})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
