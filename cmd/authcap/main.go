// File: cmd/authcap/main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/authcap-cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
