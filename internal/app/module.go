package app

import (
	"log/slog"

	"github.com/shandysiswandi/margamflow/internal/account"
)

func (a *App) initModules() error {
	if !a.config.GetBool("modules.account.enabled") {
		slog.Debug("account module disabled")
		return nil
	}

	if err := account.New(account.Dependency{
		Database:   a.openDatabase,
		Root:       a.root,
		Goroutine:  a.goroutine,
		Config:     a.config,
		Hasher:     a.hasher,
		Clock:      a.clock,
		Validator:  a.validator,
		Instrument: a.ins,
	}); err != nil {
		slog.Error("failed to init module account", "error", err)
		return err
	}

	return nil
}
