package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateFood      = errors.New(msgDuplicateFood)
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("wrong email or password")
	ErrUpstream           = errors.New("upstream food search failed")
	ErrSearchDisabled     = errors.New("food search is not configured")
)

// ValidationError collects every rule a request broke.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func newValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

// Extended result codes of the sqlite driver, which the gorm dialector only
// partly translates.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
	sqliteConstraintForeignKey = 787
)

// sqliteCode returns the extended result code of a sqlite driver error, or 0.
func sqliteCode(err error) int {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return 0
}

// storageError maps constraint violations reported by the database onto
// domain errors. dup is returned for unique violations.
func storageError(op string, err error, dup error) error {
	if err == nil {
		return nil
	}
	code := sqliteCode(err)
	switch {
	case (errors.Is(err, gorm.ErrDuplicatedKey) || code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey) && dup != nil:
		return dup
	case errors.Is(err, gorm.ErrCheckConstraintViolated) || code == sqliteConstraintCheck:
		return newValidationError(msgNutrientSum)
	case errors.Is(err, gorm.ErrForeignKeyViolated) || code == sqliteConstraintForeignKey:
		return newValidationError(msgInvalidFoodID)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
