package commands

import (
	"context"
	"fmt"
	"os"

	"rangedesk-backend/lib/configutil"
	"rangedesk-backend/lib/serviceutil"
	"rangedesk-backend/services/allocator"
	"rangedesk-backend/services/allocator/db"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "rangedesk-cli",
	Short: "rangedesk-cli drives the range portal from the terminal.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Database  configutil.Database `json:"database"`
	Allocator allocator.Config    `json:"allocator"`
}

// service builds an allocator service from config.json5, applying the
// schema so a fresh database file just works.
func service() allocator.Service {
	cfg, err := configutil.ReadRecursively[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	database, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		serviceutil.Fatal("apply schema", err)
	}

	return allocator.NewService(cfg.Allocator, database)
}
