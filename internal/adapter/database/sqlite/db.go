package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const MemoryPath = ":memory:"

type Config struct {
	Path        string
	BusyTimeout time.Duration

	// QueryLog receives every statement when non-nil.
	QueryLog io.Writer
}

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

// Open connects to the database file, applies the embedded migrations and
// returns a handle limited to one connection so that writes are serialized.
func Open(cfg Config) (*DB, error) {
	dsn := buildDSN(cfg)

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("accountapp"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.QueryLog != nil {
		logger := zerolog.New(cfg.QueryLog).With().Timestamp().Logger()
		wrapped := sqldblogger.OpenDriver(dsn, sqlDB.Driver(), zerologadapter.New(logger),
			sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
			sqldblogger.WithSQLQueryAsMessage(true),
		)

		sqlDB.Close()
		sqlDB = wrapped
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if isMemory(cfg.Path) {
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
	}, nil
}

// RunMigrations applies the embedded schema on db. The migrate instance is
// left open on purpose: closing it would close db.
func RunMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func isMemory(path string) bool {
	return path == "" || path == MemoryPath
}

func buildDSN(cfg Config) string {
	timeout := cfg.BusyTimeout

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	params := fmt.Sprintf("_busy_timeout=%d&_foreign_keys=on", timeout.Milliseconds())

	if isMemory(cfg.Path) {
		return fmt.Sprintf("file:mem-%s?mode=memory&cache=shared&%s", uuid.NewString(), params)
	}

	if strings.Contains(cfg.Path, "?") {
		return cfg.Path + "&" + params
	}

	return cfg.Path + "?" + params
}

// IsUniqueViolation reports whether err comes from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
