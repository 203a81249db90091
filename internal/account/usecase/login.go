package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	Username string
	Name     string
	Email    string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.repoDB.GetAccount(ctx, in.Username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "username", in.Username)
		return nil, goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	ok, err := s.hasher.Verify(in.Password, acc.PasswordHash, acc.PasswordSalt)
	if err != nil {
		return nil, s.hashFailure(ctx, acc.Username, err)
	}
	s.recordCheck(ctx, "login", ok)
	if !ok {
		slog.WarnContext(ctx, "password account not match", "username", acc.Username)
		return nil, goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)
	}

	return &LoginOutput{
		Username: acc.Username,
		Name:     acc.Name,
		Email:    acc.Email,
	}, nil
}
