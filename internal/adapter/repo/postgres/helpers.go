package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

func noRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

func txOptions() pgx.TxOptions { return pgx.TxOptions{} }
