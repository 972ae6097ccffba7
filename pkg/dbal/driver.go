package dbal

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver (cgo)
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)
)

// Dialects understood by the migration clients and schema renderers.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
)

type driverInfo struct {
	// sqlName is the name registered with database/sql.
	sqlName string
	dialect string
}

var drivers = map[string]driverInfo{
	"pg":       {sqlName: "pgx", dialect: DialectPostgres},
	"pgx":      {sqlName: "pgx", dialect: DialectPostgres},
	"postgres": {sqlName: "postgres", dialect: DialectPostgres},
	"sqlite3":  {sqlName: "sqlite3", dialect: DialectSQLite},
	"sqlite":   {sqlName: "sqlite", dialect: DialectSQLite},
	"mysql":    {sqlName: "mysql", dialect: DialectMySQL},
}

func lookupDriver(name string) (driverInfo, error) {
	info, ok := drivers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return driverInfo{}, fmt.Errorf("db driver '%s' not supported. Must be one of: pg, pgx, postgres, sqlite3, sqlite or mysql", name)
	}
	return info, nil
}

// DialectOf returns the SQL dialect of a configured driver name.
func DialectOf(driver string) (string, error) {
	info, err := lookupDriver(driver)
	if err != nil {
		return "", err
	}
	return info.dialect, nil
}
