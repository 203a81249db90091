package app

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/shandysiswandi/margamflow/internal/pkg/clock"
	"github.com/shandysiswandi/margamflow/internal/pkg/config"
	"github.com/shandysiswandi/margamflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/margamflow/internal/pkg/hash"
	"github.com/shandysiswandi/margamflow/internal/pkg/instrument"
	"github.com/shandysiswandi/margamflow/internal/pkg/validator"
	"github.com/spf13/cobra"
)

// App wires dependencies and manages the command lifecycle.
type App struct {
	ctx    context.Context
	args   []string
	stdout io.Writer
	stderr io.Writer

	// configuration
	config config.Config

	// instrumentation
	ins instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hasher    hash.Hash

	// resources, opened on first use
	dbConn *sql.DB

	// command
	root *cobra.Command

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application for the given command line arguments
// (without the program name). Output goes to stdout, logs go to stderr.
func New(ctx context.Context, args []string, stdout, stderr io.Writer) (*App, error) {
	app := &App{
		ctx:    ctx,
		args:   args,
		stdout: stdout,
		stderr: stderr,
	}

	steps := []func() error{
		app.initConfig,
		app.initInstrument,
		app.initLibraries,
		app.initCommand,
		app.initModules,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			app.initClosers()
			app.Stop(context.WithoutCancel(ctx))
			return nil, err
		}
	}

	app.initClosers()

	return app, nil
}

// Run executes the command selected by the arguments.
func (a *App) Run() error {
	a.root.SetArgs(a.args)
	return a.root.ExecuteContext(a.ctx)
}

// Stop releases every resource opened by New.
func (a *App) Stop(ctx context.Context) {
	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", closer.name, "error", err)
		}
	}
}
