package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes mapped onto domain errors.
const (
	uniqueViolation = "23505"
)

// MapError rewrites a missing row as notFound and a unique violation as
// duplicate. The original error stays in the chain.
func MapError(err, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", notFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", duplicate, pgErr.ConstraintName)
	}
	return err
}
