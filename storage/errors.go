package storage

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return containsAny(
		msg,
		// SQLite
		"UNIQUE constraint failed",
		// MySQL
		"Duplicate entry", "Error 1062",
		// Postgres
		"duplicate key value", "violates unique constraint",
	)
}

func isForeignKeyError(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return containsAny(
		msg,
		// SQLite
		"FOREIGN KEY constraint failed",
		// MySQL
		"a foreign key constraint fails", "Error 1451", "Error 1452",
		// Postgres
		"violates foreign key constraint",
	)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// writeError classifies a failed insert or update of the named entity
func writeError(label string, err error) error {
	switch {
	case isUniqueConstraintError(err):
		return model.AlreadyExistsErrorFmt("%s with the same unique value already exists", label)
	case isForeignKeyError(err):
		return model.ValidationErrorFmt("%s references an entity that does not exist", label)
	default:
		return errors.WithStack(err)
	}
}

// deleteError classifies a failed delete of the referenced entity
func deleteError(ref model.Reference, id uint, err error) error {
	if isForeignKeyError(err) {
		return referencedError(ref, id)
	}
	return err
}

func referencedError(ref model.Reference, id uint) model.ConflictError {
	return model.ConflictErrorFmt("%s with ID %d is still referenced and cannot be deleted.", ref.Label, id)
}
