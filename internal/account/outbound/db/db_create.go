package db

import (
	"context"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
)

func (s *DB) CreateAccount(ctx context.Context, in entity.NewAccount) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	at := toMillis(in.CreatedAt)

	_, err = s.exec(ctx, `
		INSERT INTO accounts (username, name, email, password_hash, password_salt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Username,
		in.Name,
		in.Email,
		in.PasswordHash,
		in.PasswordSalt,
		at,
		at,
	)

	err = s.mapError(err)
	return err
}
