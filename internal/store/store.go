// internal/store/store.go
package store

import (
	"errors"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Querier is satisfied by both *db.DB and *sqlx.Tx, so every query here can
// run standalone or inside RunInTx.
type Querier interface {
	sqlx.ExtContext
}

// IsUniqueViolation reports whether err is a SQLite unique constraint
// failure. The slot index on reservations is the authoritative guard against
// concurrent double booking; callers translate this into their own conflict
// error instead of surfacing it as an infrastructure failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
