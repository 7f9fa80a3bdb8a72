package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// DB wraps *sql.DB so that queries written with `?` placeholders run
// unchanged on every supported driver.
type DB struct {
	*sql.DB
	dialect dialect
}

// Querier is satisfied by both *DB and *Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a SQLite database at the given path and runs migrations.
func Open(dbPath string) (*DB, error) {
	return OpenDriver(DriverSQLite, dbPath)
}

// OpenDriver opens a database for the named driver and runs migrations.
// For sqlite the dsn is a file path (or ":memory:"); for postgres it is a
// connection URL.
func OpenDriver(driver, dsn string) (*DB, error) {
	db, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Connect opens and pings a database without touching its schema.
func Connect(driver, dsn string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(d.driverName, d.dsn(dsn))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	d.configure(sqlDB)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{DB: sqlDB, dialect: d}, nil
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Migrate applies all pending migrations for the database's dialect.
func (db *DB) Migrate() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(db.dialect.gooseDialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db.DB, db.dialect.migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// MigrationVersion reports the currently applied schema version.
func (db *DB) MigrationVersion() (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(db.dialect.gooseDialect); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	v, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.dialect.rebind(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.dialect.rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.dialect.rebind(query), args...)
}

// Tx wraps sql.Tx with the same placeholder rewriting as DB.
type Tx struct {
	*sql.Tx
	dialect dialect
}

// Begin starts a read-write transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{Tx: tx, dialect: db.dialect}, nil
}

// BeginSnapshot starts a read-only transaction in which every query sees
// the same committed state.
func (db *DB) BeginSnapshot(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, db.dialect.snapshotOpts)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	return &Tx{Tx: tx, dialect: db.dialect}, nil
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, tx.dialect.rebind(query), args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.Tx.QueryContext(ctx, tx.dialect.rebind(query), args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.Tx.QueryRowContext(ctx, tx.dialect.rebind(query), args...)
}
