package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shandysiswandi/margamflow/internal/app"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	err = application.Run()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	application.Stop(stopCtx) // flush telemetry, release the database and config watcher

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return goerror.ExitCode(err)
	}

	return 0
}
