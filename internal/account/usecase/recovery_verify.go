package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

type VerifyRecoveryInput struct {
	Username string                               `validate:"required"`
	Answers  [entity.RecoveryQuestionCount]string `validate:"dive,required"`
}

type VerifyRecoveryOutput struct {
	Correct  int
	Required int
	Passed   bool
}

func (s *Usecase) VerifyRecovery(ctx context.Context, in VerifyRecoveryInput) (*VerifyRecoveryOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyRecovery")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.getAccount(ctx, in.Username)
	if err != nil {
		return nil, err
	}

	return s.verifyRecovery(ctx, acc, in.Answers)
}

func (s *Usecase) verifyRecovery(ctx context.Context, acc *entity.Account, answers [entity.RecoveryQuestionCount]string) (*VerifyRecoveryOutput, error) {
	if !acc.HasRecovery() {
		slog.WarnContext(ctx, "account has no recovery answers", "username", acc.Username)
		return nil, goerror.NewBusiness("recovery answers are not set up", goerror.CodeForbidden)
	}

	correct, err := s.countCorrectAnswers(ctx, acc, answers)
	if err != nil {
		return nil, s.hashFailure(ctx, acc.Username, err)
	}

	required := s.MinCorrectRecoveryAnswers()
	out := &VerifyRecoveryOutput{
		Correct:  correct,
		Required: required,
		Passed:   correct >= required,
	}
	s.recordCheck(ctx, "recovery", out.Passed)
	if !out.Passed {
		slog.WarnContext(ctx, "recovery answers not enough", "username", acc.Username, "correct", correct)
	}

	return out, nil
}
