package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bcomnes/cyclekit/pkg/dbal"
)

// Record is a row of the migrations table.
type Record struct {
	Migration    string
	Md5          string
	TimeExecuted time.Time
	CreatedAt    time.Time
}

// Execer runs statements. *sql.DB and *sql.Tx satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Client talks to the migrations table of one database.
type Client interface {
	QuotedTable() string
	HasTable(ctx context.Context) (bool, error)
	EnsureTable(ctx context.Context) error
	Executed(ctx context.Context) (map[string]Record, error)
	Persist(ctx context.Context, ex Execer, m *Migration, at time.Time) error
	Forget(ctx context.Context, ex Execer, m *Migration) error
}

// NewClient creates a Client for the dialect of db.
func NewClient(dialect, table string, db *sql.DB) (Client, error) {
	switch dialect {
	case dbal.DialectPostgres:
		return NewPostgresClient(table, db), nil
	case dbal.DialectSQLite:
		return NewSqliteClient(table, db), nil
	case dbal.DialectMySQL:
		return NewMysqlClient(table, db), nil
	default:
		return nil, fmt.Errorf("dialect '%s' not supported. Must be one of: postgres, sqlite or mysql", dialect)
	}
}

// baseClient implements the parts shared by all dialects. Dialect specific
// SQL comes in through the function fields.
type baseClient struct {
	table string
	db    *sql.DB

	quotedTableFn    func() string
	columnsSqlFn     func() (string, []any)
	createTableSqlFn func() string
	columnTypeFn     func(column string) string
	placeholderFn    func(n int) string
}

func (c *baseClient) QuotedTable() string {
	return c.quotedTableFn()
}

func (c *baseClient) columns(ctx context.Context) ([]string, error) {
	query, args := c.columnsSqlFn()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// HasTable checks for the migrations table by querying its columns.
func (c *baseClient) HasTable(ctx context.Context) (bool, error) {
	cols, err := c.columns(ctx)
	if err != nil {
		return false, err
	}
	return len(cols) > 0, nil
}

// EnsureTable creates the migrations table and adds columns missing from
// tables created by older versions.
func (c *baseClient) EnsureTable(ctx context.Context) error {
	cols, err := c.columns(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		if _, err := c.db.ExecContext(ctx, c.createTableSqlFn()); err != nil {
			return fmt.Errorf("create migrations table: %w", err)
		}
		cols = []string{"id", "migration"}
	}
	for _, col := range []string{"md5", "time_executed", "created_at"} {
		if hasColumn(cols, col) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.QuotedTable(), col, c.columnTypeFn(col))
		if _, err := c.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

// Executed returns the executed migrations keyed by migration key.
func (c *baseClient) Executed(ctx context.Context) (map[string]Record, error) {
	query := fmt.Sprintf("SELECT migration, md5, time_executed, created_at FROM %s ORDER BY id", c.QuotedTable())
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make(map[string]Record)
	for rows.Next() {
		var (
			name                string
			md5, executed, crtd sql.NullString
		)
		if err := rows.Scan(&name, &md5, &executed, &crtd); err != nil {
			return nil, err
		}
		records[name] = Record{
			Migration:    name,
			Md5:          md5.String,
			TimeExecuted: parseTime(executed.String),
			CreatedAt:    parseTime(crtd.String),
		}
	}
	return records, rows.Err()
}

// Persist records m as executed.
func (c *baseClient) Persist(ctx context.Context, ex Execer, m *Migration, at time.Time) error {
	query := fmt.Sprintf("INSERT INTO %s (migration, md5, time_executed, created_at) VALUES (%s, %s, %s, %s)",
		c.QuotedTable(), c.placeholderFn(1), c.placeholderFn(2), c.placeholderFn(3), c.placeholderFn(4))
	_, err := ex.ExecContext(ctx, query, m.Key(), m.Md5, at.UTC(), m.Created.UTC())
	return err
}

// Forget removes the record of m.
func (c *baseClient) Forget(ctx context.Context, ex Execer, m *Migration) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE migration = %s", c.QuotedTable(), c.placeholderFn(1))
	_, err := ex.ExecContext(ctx, query, m.Key())
	return err
}

// Helper function to check for a column name (case insensitive).
func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTime reads the textual timestamps drivers hand back. Unknown formats
// yield the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func questionPlaceholder(int) string {
	return "?"
}
