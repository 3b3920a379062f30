package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"dexter/pkg/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrCheckViolation = errors.New("check constraint violated")
	ErrForeignKey     = errors.New("referenced row does not exist")
	ErrInvalidInput   = errors.New("invalid input")
)

// Postgres SQLSTATE codes.
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeInvalidTextRep      = "22P02"
)

// translateError maps engine errors onto the package sentinels, keeping the
// constraint name for context.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	detail := pgErr.ConstraintName
	if detail == "" {
		detail = pgErr.Message
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrConflict, detail)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", ErrCheckViolation, detail)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrForeignKey, detail)
	case codeNotNullViolation, codeInvalidTextRep:
		return fmt.Errorf("%w: %s", ErrInvalidInput, detail)
	}
	return err
}

func validate(v any) error {
	if err := domain.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func invalidEnum[T ~string](what string, v T) error {
	return fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, what, string(v))
}

// rejectionKind labels a sentinel for metrics; empty for other errors.
func rejectionKind(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCheckViolation):
		return "check"
	case errors.Is(err, ErrForeignKey):
		return "foreign_key"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	}
	return ""
}
