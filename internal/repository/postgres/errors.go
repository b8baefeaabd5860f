package postgres

import (
	"errors"
	"fmt"

	"zaanjob-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// mapError translates driver errors into domain sentinels, keeping the
// original error wrapped for logging.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Detail)
		case pgUndefinedTable:
			return fmt.Errorf("%w: %s", domain.ErrTableMissing, pgErr.Message)
		}
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}
