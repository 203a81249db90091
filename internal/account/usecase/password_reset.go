package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

type ResetPasswordInput struct {
	Username    string                               `validate:"required"`
	Answers     [entity.RecoveryQuestionCount]string `validate:"dive,required"`
	NewPassword string                               `validate:"required,password"`
}

// ResetPassword replaces the password after enough recovery answers verify.
// The password is re-salted; recovery answers keep their own salt.
func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	acc, err := s.getAccount(ctx, in.Username)
	if err != nil {
		return err
	}

	res, err := s.verifyRecovery(ctx, acc, in.Answers)
	if err != nil {
		return err
	}
	if !res.Passed {
		return goerror.NewBusiness(fmt.Sprintf("at least %d answers must be correct", res.Required), goerror.CodeUnauthorized)
	}

	pwHash, salt, err := s.newCredential(in.NewPassword)
	if err != nil {
		return s.hashFailure(ctx, acc.Username, err)
	}

	err = s.repoDB.UpdatePassword(ctx, entity.UpdatePassword{
		Username:  acc.Username,
		Hash:      pwHash,
		Salt:      salt,
		UpdatedAt: s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to update account password", "username", acc.Username, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "password reset", "username", acc.Username)

	return nil
}
