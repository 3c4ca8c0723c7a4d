package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/litscan/litscan/internal/domain"
)

const uniqueViolation = "23505"

// storeErr maps a pgx failure onto the domain error taxonomy: unique-key
// violations become ErrConflict, other server-side errors ErrQuery, and
// everything else (dial, TLS, broken pipe) ErrStoreConnection.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return fmt.Errorf("op=%s: %w", op, domain.ErrConflict)
		}
		return fmt.Errorf("op=%s: %s: %w", op, pgErr.Message, domain.ErrQuery)
	}
	return fmt.Errorf("op=%s: %s: %w", op, err, domain.ErrStoreConnection)
}
