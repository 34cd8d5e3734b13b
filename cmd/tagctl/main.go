// Command tagctl is the administrative CLI for the wiki tags service:
// migrations, region management and offline tag helpers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/localwiki/wikitags/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
