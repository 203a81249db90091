package db

import (
	"context"
	"database/sql"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
)

func (s *DB) UpdatePassword(ctx context.Context, in entity.UpdatePassword) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePassword")
	defer func() { s.endSpan(span, err) }()

	res, err := s.exec(ctx, `
		UPDATE accounts
		SET password_hash = ?, password_salt = ?, updated_at = ?
		WHERE username = ?`,
		in.Hash,
		in.Salt,
		toMillis(in.UpdatedAt),
		in.Username,
	)

	err = s.affectedOne(res, err)
	return err
}

func (s *DB) UpdateRecovery(ctx context.Context, in entity.UpdateRecovery) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateRecovery")
	defer func() { s.endSpan(span, err) }()

	res, err := s.exec(ctx, `
		UPDATE accounts
		SET recovery_salt = ?, recovery_answer_1 = ?, recovery_answer_2 = ?, recovery_answer_3 = ?, updated_at = ?
		WHERE username = ?`,
		in.Salt,
		in.Answers[0],
		in.Answers[1],
		in.Answers[2],
		toMillis(in.UpdatedAt),
		in.Username,
	)

	err = s.affectedOne(res, err)
	return err
}

func (s *DB) affectedOne(res sql.Result, err error) error {
	if err != nil {
		return s.mapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
