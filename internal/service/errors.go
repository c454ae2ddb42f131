package service

import (
	"errors"
	"fmt"
)

// Taxonomía de errores esperados. Los servicios los envuelven con detalle
// (fmt.Errorf("%w: ...")) y el borde HTTP los clasifica con errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAuthFailure = errors.New("authentication failed")
	ErrRateLimited = errors.New("rate limited")
)

// DetailError conserva el mensaje para el usuario separado del sentinel.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *DetailError) Unwrap() error {
	return e.Kind
}

func validationf(format string, args ...any) error {
	return &DetailError{Kind: ErrValidation, Detail: fmt.Sprintf(format, args...)}
}

func notFound(detail string) error {
	return &DetailError{Kind: ErrNotFound, Detail: detail}
}

func conflict(detail string) error {
	return &DetailError{Kind: ErrConflict, Detail: detail}
}

// Detail devuelve el mensaje legible de un error esperado, o fallback si no lo tiene.
func Detail(err error, fallback string) string {
	var de *DetailError
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	return fallback
}
