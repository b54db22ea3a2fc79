package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/mealvote/internal/auth/store/drivers/sqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect is the sqldb dialect for modernc sqlite.
var Dialect = sqldb.Dialect{
	Name:              "sqlite",
	Placeholder:       sqldb.Question,
	IsUniqueViolation: isUniqueViolation,
}

type Store struct {
	*sqldb.Store
	dsn string
}

// NewStore opens the database at dsn. ":memory:" gives a private in-memory
// database, handy for tests.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers anyway and an in-memory database lives on a
	// single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	} {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Store{
		Store: sqldb.New(db, Dialect),
		dsn:   dsn,
	}, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	// Primary result code only; fall back to the message.
	return strings.Contains(se.Error(), "UNIQUE constraint failed")
}
