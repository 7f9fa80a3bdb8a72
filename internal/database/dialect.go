package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name          string
	driverName    string
	gooseDialect  string
	migrationsDir string
	numbered      bool // $1, $2 placeholders instead of ?
	snapshotOpts  *sql.TxOptions
	dsn           func(string) string
	configure     func(*sql.DB)
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return dialect{
			name:          DriverSQLite,
			driverName:    "sqlite",
			gooseDialect:  "sqlite3",
			migrationsDir: "migrations/sqlite",
			dsn: func(path string) string {
				return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
			},
			// One connection serializes writers and keeps ":memory:" databases
			// shared across the pool.
			configure: func(db *sql.DB) {
				db.SetMaxOpenConns(1)
			},
		}, nil
	case "postgres", "postgresql":
		return dialect{
			name:          DriverPostgres,
			driverName:    "postgres",
			gooseDialect:  "postgres",
			migrationsDir: "migrations/postgres",
			numbered:      true,
			snapshotOpts:  &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
			dsn:           func(url string) string { return url },
			configure: func(db *sql.DB) {
				db.SetMaxOpenConns(10)
				db.SetMaxIdleConns(5)
			},
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind converts ? placeholders to $N for drivers that need it. Queries in
// this module never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
