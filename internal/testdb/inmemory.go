package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/kuitang/notes-api/internal/db"
)

var storeCounter atomic.Int64

// NewStoreInMemory creates an isolated, migrated in-memory Store for tests.
// Each call gets its own shared-cache database name, so stores never see each
// other's rows.
func NewStoreInMemory(name string) (*db.Store, error) {
	if name == "" {
		name = "test"
	}
	dbName := fmt.Sprintf("%s-%d", name, storeCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000", dbName)

	sqlDB, err := sql.Open(db.SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// The in-memory database lives as long as one connection holds it open.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping in-memory database: %w", err)
	}

	if err := applyFastSQLitePragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}

	if err := db.Migrate(context.Background(), sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize in-memory schema: %w", err)
	}

	return db.NewStoreFromSQL(sqlDB, ":memory:"), nil
}

// MustStore is NewStoreInMemory for test setup code that cannot continue on
// failure. The store is closed when the test finishes.
func MustStore(t interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}, name string) *db.Store {
	t.Helper()
	store, err := NewStoreInMemory(name)
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func applyFastSQLitePragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
