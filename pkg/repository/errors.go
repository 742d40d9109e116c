package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes mapped by MapError.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// MapError translates storage errors into domain errors.
//
//   - sql.ErrNoRows becomes notFoundErr.
//   - A foreign key violation becomes notFoundErr, since the referenced row is gone.
//   - A unique violation becomes duplicateErr.
//
// The PostgreSQL detail, when present, is kept in the message. Other errors
// pass through unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return withDetail(duplicateErr, pgErr)
	case codeForeignKeyViolation:
		return withDetail(notFoundErr, pgErr)
	}
	return err
}

func withDetail(target error, pgErr *pgconn.PgError) error {
	if pgErr.Detail == "" {
		return target
	}
	return fmt.Errorf("%w: %s", target, pgErr.Detail)
}
