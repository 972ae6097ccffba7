package migrator

import (
	"database/sql"
	"fmt"
)

// MysqlClient implements the Client interface for MySQL. Migration scripts
// holding several statements need multiStatements=true in the DSN.
type MysqlClient struct {
	baseClient
}

// NewMysqlClient creates a new MysqlClient.
func NewMysqlClient(table string, db *sql.DB) Client {
	c := &MysqlClient{baseClient: baseClient{table: table, db: db}}
	c.quotedTableFn = c.quotedTable
	c.columnsSqlFn = c.columnsSql
	c.createTableSqlFn = c.createTableSql
	c.columnTypeFn = c.columnType
	c.placeholderFn = questionPlaceholder
	return c
}

func (c *MysqlClient) quotedTable() string {
	return fmt.Sprintf("`%s`", c.table)
}

func (c *MysqlClient) columnsSql() (string, []any) {
	return `SELECT column_name
      FROM information_schema.columns
      WHERE table_schema = DATABASE() AND table_name = ?`, []any{c.table}
}

func (c *MysqlClient) createTableSql() string {
	return fmt.Sprintf(`CREATE TABLE %s (
      id BIGINT AUTO_INCREMENT PRIMARY KEY,
      migration VARCHAR(255) NOT NULL
    )`, c.quotedTable())
}

func (c *MysqlClient) columnType(column string) string {
	if column == "md5" {
		return "VARCHAR(32)"
	}
	return "DATETIME(6)"
}
