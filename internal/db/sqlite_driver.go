package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLite driver. Every connection it
	// opens has foreign key enforcement switched on, whatever the DSN says.
	SQLiteDriverName = "sqlite3_notes_api"

	// HasTagFunc is the SQL function has_tag(tags, tag). It is 1 when the JSON
	// array in tags contains tag as a whole element, compared byte for byte.
	HasTagFunc = "has_tag"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if _, err := conn.Exec("PRAGMA foreign_keys = ON", nil); err != nil {
				return fmt.Errorf("enable foreign keys: %w", err)
			}
			if err := conn.RegisterFunc(HasTagFunc, hasTag, true); err != nil {
				return fmt.Errorf("register %s: %w", HasTagFunc, err)
			}
			return nil
		},
	})
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint failing inside SQLite.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// IsForeignKeyViolation reports whether err came from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// hasTag backs the has_tag SQL function. Malformed JSON never matches.
func hasTag(raw, tag string) bool {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return false
	}
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
