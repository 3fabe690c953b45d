// shopsync drives the persisted storefront session and checkout from the
// command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"shopsync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
