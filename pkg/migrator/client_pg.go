package migrator

import (
	"database/sql"
	"fmt"
	"strings"
)

// PostgresClient implements the Client interface for PostgreSQL.
type PostgresClient struct {
	baseClient
}

// NewPostgresClient creates a new PostgresClient. table may be schema
// qualified, e.g. "app.migrations".
func NewPostgresClient(table string, db *sql.DB) Client {
	c := &PostgresClient{baseClient: baseClient{table: table, db: db}}
	c.quotedTableFn = c.quotedTable
	c.columnsSqlFn = c.columnsSql
	c.createTableSqlFn = c.createTableSql
	c.columnTypeFn = c.columnType
	c.placeholderFn = func(n int) string { return fmt.Sprintf("$%d", n) }
	return c
}

func (c *PostgresClient) splitTable() (schema, table string) {
	if i := strings.Index(c.table, "."); i >= 0 {
		return c.table[:i], c.table[i+1:]
	}
	return "", c.table
}

func (c *PostgresClient) quotedTable() string {
	schema, table := c.splitTable()
	if schema == "" {
		return fmt.Sprintf(`"%s"`, table)
	}
	return fmt.Sprintf(`"%s"."%s"`, schema, table)
}

func (c *PostgresClient) columnsSql() (string, []any) {
	schema, table := c.splitTable()
	if schema == "" {
		return `SELECT column_name
      FROM information_schema.columns
      WHERE table_schema = current_schema() AND table_name = $1`, []any{table}
	}
	return `SELECT column_name
      FROM information_schema.columns
      WHERE table_schema = $1 AND table_name = $2`, []any{schema, table}
}

func (c *PostgresClient) createTableSql() string {
	return fmt.Sprintf(`CREATE TABLE %s (
      id BIGSERIAL PRIMARY KEY,
      migration TEXT NOT NULL
    )`, c.quotedTable())
}

func (c *PostgresClient) columnType(column string) string {
	if column == "md5" {
		return "TEXT"
	}
	return "TIMESTAMP WITH TIME ZONE"
}
