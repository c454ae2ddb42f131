package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEmailTaken se devuelve cuando el email ya pertenece a otro usuario.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAlreadyAdopted se devuelve cuando la escritura condicional de adopción no aplica.
	ErrAlreadyAdopted = errors.New("pet already adopted")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
