// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"yatube/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

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

// lookupError maps a single-row lookup failure to the AppError taxonomy.
func lookupError(err error, resource string, key interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, key)
	}
	return models.NewInternalError(err)
}

// writeError maps an insert or update failure; duplicates become validation errors.
func writeError(err error, duplicateMsg string) error {
	if isUniqueConstraintError(err) {
		return models.NewValidationError(duplicateMsg)
	}
	return models.NewInternalError(err)
}
