package main

import (
	"flag"
	"net/http"

	"rangedesk-backend/lib/configutil"
	"rangedesk-backend/lib/serviceutil"
	"rangedesk-backend/services/allocator"
	"rangedesk-backend/services/allocator/db"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	database, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		serviceutil.Fatal("apply schema", err)
	}

	service := allocator.NewService(cfg.Allocator, database)

	mux := http.NewServeMux()
	api{service: service}.register(mux)
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
