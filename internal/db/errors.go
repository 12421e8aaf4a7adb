package db

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsForeignKeyViolation reports whether err is a SQLite foreign key failure.
// A plain reference miss reports SQLITE_CONSTRAINT_FOREIGNKEY; an
// ON DELETE RESTRICT parent delete reports SQLITE_CONSTRAINT_TRIGGER with
// the same message.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return false
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
		return true
	}
	return false
}
