package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/clock"
	"github.com/shandysiswandi/margamflow/internal/pkg/config"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
	"github.com/shandysiswandi/margamflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/margamflow/internal/pkg/hash"
	"github.com/shandysiswandi/margamflow/internal/pkg/instrument"
	"github.com/shandysiswandi/margamflow/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetAccount(ctx context.Context, username string) (*entity.Account, error)
	ExistsUsername(ctx context.Context, username string) (bool, error)
	CreateAccount(ctx context.Context, in entity.NewAccount) error
	UpdatePassword(ctx context.Context, in entity.UpdatePassword) error
	UpdateRecovery(ctx context.Context, in entity.UpdateRecovery) error
}

type Usecase struct {
	repoDB    repoDB
	validator validator.Validator
	cfg       config.Config
	hasher    hash.Hash
	clock     clock.Clocker
	ins       instrument.Instrumentation
	goroutine *goroutine.Manager
	checks    metric.Int64Counter
}

type Dependency struct {
	RepoDB     repoDB
	Validator  validator.Validator
	Config     config.Config
	Hasher     hash.Hash
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	checks, err := dep.Instrument.Meter("account.usecase").Int64Counter(
		"account.credential.checks",
		metric.WithDescription("Password and recovery answer checks by operation and outcome"),
	)
	if err != nil {
		slog.Warn("failed to create credential check counter", "error", err)
		checks = noop.Int64Counter{}
	}

	return &Usecase{
		repoDB:    dep.RepoDB,
		validator: dep.Validator,
		cfg:       dep.Config,
		hasher:    dep.Hasher,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		goroutine: dep.Goroutine,
		checks:    checks,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("account.usecase").Start(ctx, name)
}

func (s *Usecase) recordCheck(ctx context.Context, operation string, passed bool) {
	s.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("passed", passed),
	))
}

// MinCorrectRecoveryAnswers is the number of recovery answers that must
// verify before a password reset is allowed. It is read on every call so a
// reloaded config applies to the next check.
func (s *Usecase) MinCorrectRecoveryAnswers() int {
	n := s.cfg.GetInt("modules.account.min_correct_recovery_answers")
	return min(max(n, 1), entity.RecoveryQuestionCount)
}

func (s *Usecase) getAccount(ctx context.Context, username string) (*entity.Account, error) {
	acc, err := s.repoDB.GetAccount(ctx, username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "username", username)
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	return acc, nil
}

// hashFailure maps hash package errors. A record that cannot be decoded is
// reported as a business error so the user can be sent to password reset.
func (s *Usecase) hashFailure(ctx context.Context, username string, err error) error {
	if errors.Is(err, hash.ErrDecode) {
		slog.ErrorContext(ctx, "corrupt credential record", "username", username, "error", err)
		return goerror.NewBusiness("credential record is corrupt, reset the password", goerror.CodeForbidden)
	}

	slog.ErrorContext(ctx, "failed to hash credential", "username", username, "error", err)
	return goerror.NewServer(err)
}

// newCredential draws a fresh salt and hashes secret with it.
func (s *Usecase) newCredential(secret string) (hashed, salt string, err error) {
	salt, err = s.hasher.GenerateSalt()
	if err != nil {
		return "", "", err
	}

	hashed, err = s.hasher.Hash(secret, salt)
	if err != nil {
		return "", "", err
	}

	return hashed, salt, nil
}

// countCorrectAnswers verifies every answer against the stored recovery
// hashes in parallel and returns how many matched. A stored answer hash that
// cannot be decoded counts as a wrong answer so the remaining answers can
// still unlock a reset.
func (s *Usecase) countCorrectAnswers(ctx context.Context, acc *entity.Account, answers [entity.RecoveryQuestionCount]string) (int, error) {
	var results [entity.RecoveryQuestionCount]bool

	tasks := make([]func(context.Context) error, 0, entity.RecoveryQuestionCount)
	for i := range answers {
		tasks = append(tasks, func(ctx context.Context) error {
			ok, err := s.hasher.Verify(answers[i], acc.RecoveryAnswers[i], acc.RecoverySalt)
			if errors.Is(err, hash.ErrDecode) {
				slog.ErrorContext(ctx, "corrupt recovery answer counted as wrong",
					"username", acc.Username, "question", i+1, "error", err)
				return nil
			}
			results[i] = ok
			return err
		})
	}

	if err := s.goroutine.Run(ctx, tasks...); err != nil {
		return 0, err
	}

	return lo.Count(results[:], true), nil
}
