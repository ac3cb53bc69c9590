package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

// PostgreSQL error codes mapped by MapError.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError converts pgx/pgconn errors to domain errors. key identifies the
// row being touched (a slug, an id) and is only used in the message.
// The *pgconn.PgError stays in the chain so callers can inspect
// ConstraintName. context.DeadlineExceeded and context.Canceled are NOT
// mapped; they pass through.
func MapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}

	if pgxscan.NotFound(err) {
		return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s %s: %w: %w", entity, key, domain.ErrAlreadyExists, pgErr)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s %s: %w: %w", entity, key, domain.ErrNotFound, pgErr)
		case codeCheckViolation:
			return fmt.Errorf("%s %s: %w: %w", entity, key, domain.ErrValidation, pgErr)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, key, err)
}

// ConstraintName returns the violated constraint of a PgError, or "".
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
