// Package main is the entry point for the sitetokens CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonwraymond/sitetokens/cmd/sitetokens/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := commands.New()
	cli.SetArgs(os.Args[1:])
	if err := cli.Execute(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "sitetokens: %v\n", err)
		return 1
	}
	return 0
}
