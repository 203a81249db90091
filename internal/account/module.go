package account

import (
	"context"
	"database/sql"

	"github.com/shandysiswandi/margamflow/internal/account/inbound"
	"github.com/shandysiswandi/margamflow/internal/account/outbound/db"
	"github.com/shandysiswandi/margamflow/internal/account/usecase"
	"github.com/shandysiswandi/margamflow/internal/pkg/clock"
	"github.com/shandysiswandi/margamflow/internal/pkg/config"
	"github.com/shandysiswandi/margamflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/margamflow/internal/pkg/hash"
	"github.com/shandysiswandi/margamflow/internal/pkg/instrument"
	"github.com/shandysiswandi/margamflow/internal/pkg/validator"
	"github.com/spf13/cobra"
)

type Dependency struct {
	// Database opens the account store. It is only called when an account
	// command runs.
	Database   func(ctx context.Context) (*sql.DB, error) `validate:"required"`
	Root       *cobra.Command                             `validate:"required"`
	Goroutine  *goroutine.Manager                         `validate:"required"`
	Config     config.Config                              `validate:"required"`
	Hasher     hash.Hash                                  `validate:"required"`
	Clock      clock.Clocker                              `validate:"required"`
	Validator  validator.Validator                        `validate:"required"`
	Instrument instrument.Instrumentation                 `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	inbound.RegisterCLICommand(dep.Root, func(ctx context.Context) (*usecase.Usecase, error) {
		conn, err := dep.Database(ctx)
		if err != nil {
			return nil, err
		}

		dbAccount := db.NewDB(conn, dep.Instrument)
		if err := dbAccount.Migrate(ctx); err != nil {
			return nil, err
		}

		return usecase.New(usecase.Dependency{
			RepoDB:     dbAccount,
			Validator:  dep.Validator,
			Config:     dep.Config,
			Hasher:     dep.Hasher,
			Clock:      dep.Clock,
			Goroutine:  dep.Goroutine,
			Instrument: dep.Instrument,
		}), nil
	})

	return nil
}
