package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

type CheckUsernameInput struct {
	Username string `validate:"required,username"`
}

type CheckUsernameOutput struct {
	Available bool
}

func (s *Usecase) CheckUsername(ctx context.Context, in CheckUsernameInput) (*CheckUsernameOutput, error) {
	ctx, span := s.startSpan(ctx, "CheckUsername")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	exists, err := s.repoDB.ExistsUsername(ctx, in.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check username", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CheckUsernameOutput{Available: !exists}, nil
}
