package repository

import (
	"errors"
	"strings"

	"qipu/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

func isCheckConstraintError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

// wrapWriteError maps a failed insert/update on resource to an AppError.
// Errors that already are AppErrors (from model hooks) pass through.
func wrapWriteError(err error, resource string) error {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case isUniqueConstraintError(err):
		return models.NewValidationError(resource + " already exists")
	case isForeignKeyError(err):
		return models.NewValidationError(resource + " references a missing object")
	case isCheckConstraintError(err):
		return models.NewValidationError(resource + " violates a constraint")
	default:
		return models.NewInternalError(err)
	}
}
