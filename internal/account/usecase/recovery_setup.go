package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

type SetupRecoveryInput struct {
	Username string                               `validate:"required"`
	Password string                               `validate:"required"`
	Answers  [entity.RecoveryQuestionCount]string `validate:"dive,required"`
}

// SetupRecovery stores hashes of the three recovery answers under a fresh
// recovery salt. The current password is required.
func (s *Usecase) SetupRecovery(ctx context.Context, in SetupRecoveryInput) error {
	ctx, span := s.startSpan(ctx, "SetupRecovery")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	acc, err := s.getAccount(ctx, in.Username)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(in.Password, acc.PasswordHash, acc.PasswordSalt)
	if err != nil {
		return s.hashFailure(ctx, acc.Username, err)
	}
	s.recordCheck(ctx, "setup_recovery", ok)
	if !ok {
		slog.WarnContext(ctx, "password account not match", "username", acc.Username)
		return goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return s.hashFailure(ctx, acc.Username, err)
	}

	var hashed [entity.RecoveryQuestionCount]string
	tasks := make([]func(context.Context) error, 0, len(in.Answers))
	for i, answer := range in.Answers {
		tasks = append(tasks, func(context.Context) error {
			h, err := s.hasher.Hash(answer, salt)
			hashed[i] = h
			return err
		})
	}
	if err := s.goroutine.Run(ctx, tasks...); err != nil {
		return s.hashFailure(ctx, acc.Username, err)
	}

	err = s.repoDB.UpdateRecovery(ctx, entity.UpdateRecovery{
		Username:  acc.Username,
		Salt:      salt,
		Answers:   hashed,
		UpdatedAt: s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update recovery answers", "username", acc.Username, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "recovery answers updated", "username", acc.Username)

	return nil
}
