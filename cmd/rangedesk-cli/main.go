package main

import (
	"context"

	"rangedesk-backend/cmd/rangedesk-cli/commands"
	"rangedesk-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
