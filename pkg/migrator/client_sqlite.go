package migrator

import (
	"database/sql"
	"fmt"
)

// SqliteClient implements the Client interface for SQLite.
type SqliteClient struct {
	baseClient
}

// NewSqliteClient creates a new SqliteClient.
func NewSqliteClient(table string, db *sql.DB) Client {
	c := &SqliteClient{baseClient: baseClient{table: table, db: db}}
	c.quotedTableFn = c.quotedTable
	c.columnsSqlFn = c.columnsSql
	c.createTableSqlFn = c.createTableSql
	c.columnTypeFn = func(string) string { return "TEXT" }
	c.placeholderFn = questionPlaceholder
	return c
}

func (c *SqliteClient) quotedTable() string {
	return fmt.Sprintf(`"%s"`, c.table)
}

func (c *SqliteClient) columnsSql() (string, []any) {
	return `SELECT name AS column_name FROM pragma_table_info(?)`, []any{c.table}
}

func (c *SqliteClient) createTableSql() string {
	return fmt.Sprintf(`CREATE TABLE %s (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      migration TEXT NOT NULL
    )`, c.quotedTable())
}
