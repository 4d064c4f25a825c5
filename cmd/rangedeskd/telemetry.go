package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"rangedesk-backend/lib/restyutil"
	"rangedesk-backend/lib/scrapers/smsportal"
	"rangedesk-backend/lib/serviceutil"
	"rangedesk-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "rangedeskd")
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "no telemetry.json5 found, telemetry export disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	} else {
		go func() {
			<-ctx.Done()
			tel.Shutdown(context.Background())
		}()
		telemetry.InstrumentPerfStats(ctx)
	}

	if !verbose {
		return
	}

	smsportal.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/smsportal"),
	)
}
