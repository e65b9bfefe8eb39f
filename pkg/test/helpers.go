package test

import (
	"log"
	"strings"
	"testing"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"accountapp/internal/adapter/database/sqlite"
	"accountapp/internal/core/util"
)

// InitTestDB opens a private in-memory database with the schema applied.
// It also lowers the bcrypt cost so suites that hash many credentials stay
// fast.
func InitTestDB() *sqlite.DB {
	util.HashCost = bcrypt.MinCost

	db, err := sqlite.Open(sqlite.Config{Path: sqlite.MemoryPath})

	if err != nil {
		log.Fatal(err)
	}

	return db
}

func NopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

// CleanDB empties every application table, keeping the migration state.
func CleanDB(t *testing.T, db *sqlite.DB) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT IN ('sqlite_sequence', 'schema_migrations')")

	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}

	var tables []string

	for rows.Next() {
		var table string

		if err := rows.Scan(&table); err != nil {
			rows.Close()
			t.Fatalf("Failed to scan table name: %v", err)
		}

		tables = append(tables, strings.TrimSpace(table))
	}

	if err := rows.Err(); err != nil {
		t.Fatalf("Error iterating over rows: %v", err)
	}

	rows.Close()

	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("Failed to execute delete for table %s: %v", table, err)
		}
	}
}
