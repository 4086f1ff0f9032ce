package sqlstore

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// uniqueViolationField inspects a storage error for a unique
// constraint violation and reports which identity column tripped it.
// The unique index is the source of truth for registration conflicts;
// this translation is what turns the race loser's insert into a
// conflict outcome instead of an opaque internal failure.
func uniqueViolationField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code != sqlite3.ErrConstraint || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
			return "", false
		}
		return fieldFromConstraintMessage(sqliteErr.Error()), true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return "", false
		}
		if field := fieldFromConstraintMessage(pqErr.Constraint); field != "" {
			return field, true
		}
		return fieldFromConstraintMessage(pqErr.Detail), true
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "unique") || strings.Contains(message, "duplicate") {
		return fieldFromConstraintMessage(message), true
	}
	return "", false
}

func fieldFromConstraintMessage(message string) string {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "username"):
		return "username"
	case strings.Contains(lowered, "email"):
		return "email"
	default:
		return ""
	}
}
