package db

import (
	"context"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
)

func (s *DB) GetAccount(ctx context.Context, username string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRowContext(ctx, `
		SELECT username, name, email, password_hash, password_salt,
		       recovery_salt, recovery_answer_1, recovery_answer_2, recovery_answer_3,
		       created_at, updated_at
		FROM accounts
		WHERE username = ?`, username)

	var (
		acc                  entity.Account
		createdAt, updatedAt int64
	)
	if err = row.Scan(
		&acc.Username,
		&acc.Name,
		&acc.Email,
		&acc.PasswordHash,
		&acc.PasswordSalt,
		&acc.RecoverySalt,
		&acc.RecoveryAnswers[0],
		&acc.RecoveryAnswers[1],
		&acc.RecoveryAnswers[2],
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, s.mapError(err)
	}

	acc.CreatedAt = fromMillis(createdAt)
	acc.UpdatedAt = fromMillis(updatedAt)

	return &acc, nil
}

func (s *DB) ExistsUsername(ctx context.Context, username string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ExistsUsername")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}
