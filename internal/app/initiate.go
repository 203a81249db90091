package app

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/pkg/clock"
	"github.com/shandysiswandi/margamflow/internal/pkg/config"
	"github.com/shandysiswandi/margamflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/margamflow/internal/pkg/hash"
	"github.com/shandysiswandi/margamflow/internal/pkg/instrument"
	"github.com/shandysiswandi/margamflow/internal/pkg/sqlite"
	"github.com/shandysiswandi/margamflow/internal/pkg/validator"
)

// configPath returns the value of --config from args, falling back to the
// CONFIG_PATH environment variable. Parsing stops at "--".
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}

	return os.Getenv("CONFIG_PATH")
}

func (a *App) initConfig() error {
	cfg, err := config.NewViper(configPath(a.args))
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return err
	}

	a.config = cfg
	return nil
}

func (a *App) initInstrument() error {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		Log: instrument.LogConfig{
			ServiceName: a.config.GetString("app.name"),
			Level:       a.config.GetString("log.level"),
			MaskFields:  a.config.GetArray("log.mask_fields"),
			Output:      a.stderr,
		},
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		return err
	}

	a.ins = ins
	return nil
}

func (a *App) initLibraries() error {
	a.clock = clock.New()
	a.goroutine = goroutine.NewManager(a.config.GetInt("modules.account.max_parallel_hash"))
	a.hasher = hash.NewPBKDF2(
		hash.WithIterations(a.config.GetInt("hash.pbkdf2.iterations")),
		hash.WithKeyLength(a.config.GetInt("hash.pbkdf2.key_length")),
		hash.WithSaltLength(a.config.GetInt("hash.pbkdf2.salt_length")),
		hash.WithPRF(a.config.GetString("hash.pbkdf2.prf")),
	)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		return err
	}
	a.validator = validator

	return nil
}

// openDatabase opens the sqlite store on first use and reuses it afterwards.
func (a *App) openDatabase(ctx context.Context) (*sql.DB, error) {
	if a.dbConn != nil {
		return a.dbConn, nil
	}

	conn, err := sqlite.Open(ctx, sqlite.Config{
		Path:        a.config.GetString("database.sqlite.path"),
		BusyTimeout: a.config.GetSecond("database.sqlite.busy_timeout_seconds"),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to open sqlite database", "error", err)
		return nil, err
	}

	a.dbConn = conn
	return conn, nil
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				if a.ins == nil {
					return nil
				}
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn == nil {
					return nil
				}
				return a.dbConn.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				if a.config == nil {
					return nil
				}
				return a.config.Close()
			},
		},
	}
}
