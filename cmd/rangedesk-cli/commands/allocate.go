package commands

import (
	"log/slog"
	"strconv"

	"rangedesk-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(allocateCmd)
}

var allocateCmd = &cobra.Command{
	Use:   "allocate <client external id> <range token> <quantity>",
	Short: "Submits one allocation attempt and reports its outcome.",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			serviceutil.Fatal("quantity must be an integer", err)
		}

		attempt, err := service().Allocate(cmd.Context(), args[0], args[1], quantity)
		if err != nil {
			serviceutil.Fatal("allocate", err)
		}

		slog.Info(
			"allocation attempt recorded",
			"id", attempt.Id,
			"outcome", attempt.Outcome,
			"excerpt", attempt.ResponseExcerpt,
		)
	},
}
