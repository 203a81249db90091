package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

type SignUpInput struct {
	Username        string `validate:"required,username"`
	Password        string `validate:"required,password"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
	Name            string `validate:"omitempty,max=100"`
	Email           string `validate:"omitempty,email"`
}

func (s *Usecase) SignUp(ctx context.Context, in SignUpInput) error {
	ctx, span := s.startSpan(ctx, "SignUp")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	exists, err := s.repoDB.ExistsUsername(ctx, in.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check username", "username", in.Username, "error", err)
		return goerror.NewServer(err)
	}
	if exists {
		return goerror.NewBusiness("username already taken", goerror.CodeConflict)
	}

	pwHash, salt, err := s.newCredential(in.Password)
	if err != nil {
		return s.hashFailure(ctx, in.Username, err)
	}

	err = s.repoDB.CreateAccount(ctx, entity.NewAccount{
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: pwHash,
		PasswordSalt: salt,
		CreatedAt:    s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusiness("username already taken", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create account", "username", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "account registered", "username", in.Username)

	return nil
}
